package routers

import (
	"github.com/go-chi/chi/v5"

	"github.com/malek283/shop-chat/internal/websocket"
)

func WSRouter(r chi.Router, wsHandler *websocket.WebSocketHandler) {
	r.Get("/ws/chat/{roomName}", wsHandler.HandleWS)
}
