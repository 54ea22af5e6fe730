package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	dlq_handler "github.com/malek283/shop-chat/internal/handlers/dlq-handler"
	"github.com/malek283/shop-chat/internal/middleware"
	"github.com/malek283/shop-chat/internal/websocket"
	"github.com/malek283/shop-chat/state"
)

func NewRouter(appState *state.AppState, hub *websocket.Hub, wsHandler *websocket.WebSocketHandler, dlqStats dlq_handler.StatsProvider) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.WithRequestId)
	WSRouter(r, wsHandler)
	HubRouter(r, appState, hub, dlqStats)
	return r
}
