package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/malek283/shop-chat/internal/handlers"
	dlq_handler "github.com/malek283/shop-chat/internal/handlers/dlq-handler"
	hub_handler "github.com/malek283/shop-chat/internal/handlers/hub-handler"
	"github.com/malek283/shop-chat/internal/middleware"
	"github.com/malek283/shop-chat/internal/websocket"
	"github.com/malek283/shop-chat/state"
)

// HubRouter exposes the ops surface: hub introspection, moderation and
// dead-letter visibility. Everything except the health probe sits behind
// JWT auth.
func HubRouter(r chi.Router, appState *state.AppState, wsHub *websocket.Hub, dlqStats dlq_handler.StatsProvider) {
	hubHandler := hub_handler.NewHubHandler(wsHub)
	dlqHandler := dlq_handler.NewDLQHandler(dlqStats)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", hubHandler.HandleHealth)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(appState.JwtSecret.Public))

			r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetStats))
			r.Get("/dlq/stats", handlers.WrapHandler(dlqHandler.HandleGetStats))

			// Room routes
			r.Route("/rooms/{roomName}", func(r chi.Router) {
				r.Get("/stats", handlers.WrapHandler(hubHandler.HandleGetRoomStats))
				r.Get("/clients", handlers.WrapHandler(hubHandler.HandleGetRoomClients))
				r.Post("/broadcast", handlers.WrapHandler(hubHandler.HandleBroadcastToRoom))
				r.Post("/kick", handlers.WrapHandler(hubHandler.HandleKickUser))
			})

			// User routes
			r.Route("/users/{userId}", func(r chi.Router) {
				r.Get("/status", handlers.WrapHandler(hubHandler.HandleGetUserStatus))
				r.Get("/connections", handlers.WrapHandler(hubHandler.HandleGetUserConnections))
				r.Post("/broadcast", handlers.WrapHandler(hubHandler.HandleBroadcastToUser))
				r.Post("/disconnect", handlers.WrapHandler(hubHandler.HandleDisconnectUser))
			})
		})
	})
}
