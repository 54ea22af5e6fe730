package worker_handler

import (
	"context"

	"github.com/redis/go-redis/v9"

	chat_repo "github.com/malek283/shop-chat/internal/repo/chat"
	"github.com/malek283/shop-chat/internal/websocket"
)

type WorkerHandler struct {
	Ctx      context.Context
	Redis    *redis.Client
	Ws       *websocket.Hub
	ChatRepo chat_repo.ChatRepoContract
}

func NewWorkerHandler(ctx context.Context, redis *redis.Client, ws *websocket.Hub, chatRepo chat_repo.ChatRepoContract) *WorkerHandler {
	return &WorkerHandler{
		Ctx:      ctx,
		Redis:    redis,
		Ws:       ws,
		ChatRepo: chatRepo,
	}
}
