package chat_service

import (
	"github.com/malek283/shop-chat/internal/websocket"
)

// ChatServiceContract is the full message lifecycle surface driven by room
// sessions.
type ChatServiceContract interface {
	websocket.ChatUseCase
}
