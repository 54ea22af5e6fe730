package worker

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/malek283/shop-chat/internal/queue"
	chat_repo "github.com/malek283/shop-chat/internal/repo/chat"
	"github.com/malek283/shop-chat/internal/websocket"
	worker_handler "github.com/malek283/shop-chat/internal/worker/worker-handler"
)

func HandleJob(ctx context.Context, job queue.Job, redis *redis.Client, ws *websocket.Hub, chatRepo chat_repo.ChatRepoContract) error {
	workerHandler := worker_handler.NewWorkerHandler(ctx, redis, ws, chatRepo)
	switch job.Type {
	case queue.JobNotificationFanout:
		return workerHandler.HandleNotificationFanout(ctx, job.Payload)
	case queue.JobCustomerEntered:
		return workerHandler.HandleCustomerEntered(ctx, job.Payload)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}
