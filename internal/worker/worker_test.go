package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/malek283/shop-chat/internal/entity"
	app_error "github.com/malek283/shop-chat/internal/errors"
	"github.com/malek283/shop-chat/internal/queue"
	chat_repo "github.com/malek283/shop-chat/internal/repo/chat"
	"github.com/malek283/shop-chat/internal/utils/types"
	"github.com/malek283/shop-chat/internal/websocket"
)

// stubRepo overrides only what the fan-out handlers touch.
type stubRepo struct {
	chat_repo.ChatRepoContract
	mu            sync.Mutex
	memberIDs     []uint
	notifications []*entity.Notification
}

func (r *stubRepo) ListMemberIDs(ctx context.Context, roomID uint) ([]uint, *app_error.AppError) {
	return r.memberIDs, nil
}

func (r *stubRepo) CreateNotification(ctx context.Context, n *entity.Notification) *app_error.AppError {
	r.mu.Lock()
	defer r.mu.Unlock()
	n.ID = uint(len(r.notifications) + 1)
	n.CreatedAt = time.Now()
	r.notifications = append(r.notifications, n)
	return nil
}

func (r *stubRepo) notificationCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.notifications)
}

func newTestPool(t *testing.T, repo chat_repo.ChatRepoContract) (*WorkerPool, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	hub := websocket.NewHub()
	t.Cleanup(hub.Close)

	pool := NewWorkerPool(rdb, nil, 1, hub, repo, types.DLQRetryConfig{
		BatchSize:     10,
		RetryInterval: time.Minute,
		MaxRetryCount: 3,
		BackoffFactor: 2.0,
	})
	return pool, rdb
}

func TestHandleJobUnknownType(t *testing.T) {
	err := HandleJob(context.Background(), queue.Job{Type: "warp_drive"}, nil, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown job type")
}

func TestWorkerPoolProcessesQueuedJob(t *testing.T) {
	repo := &stubRepo{}
	pool, rdb := newTestPool(t, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	producer := queue.NewProducer(rdb)
	now := time.Now().Unix()
	job := queue.Job{
		ID:   "job-1",
		Type: queue.JobCustomerEntered,
		Payload: queue.MustMarshal(types.CustomerEnteredPayload{
			RoomName: "5", MerchantID: 10, CustomerID: 20, CustomerName: "alice",
		}),
		Priority:  1,
		MaxRetry:  3,
		CreatedAt: now,
		ExpireAt:  now + 600,
	}
	require.NoError(t, producer.Enqueue(ctx, job))

	require.Eventually(t, func() bool {
		return repo.notificationCount() == 1
	}, 5*time.Second, 50*time.Millisecond, "job should be picked up and handled")

	assert.Equal(t, uint(10), repo.notifications[0].UserID)

	// consumed, not re-queued
	remaining, err := rdb.ZCard(ctx, "priority_queue").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), remaining)
}

func TestExhaustedJobLandsInDLQ(t *testing.T) {
	pool, rdb := newTestPool(t, &stubRepo{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool.Start(ctx)

	producer := queue.NewProducer(rdb)
	now := time.Now().Unix()
	job := queue.Job{
		ID:        "doomed",
		Type:      "warp_drive",
		Priority:  1,
		MaxRetry:  1,
		CreatedAt: now,
		ExpireAt:  now + 600,
	}
	require.NoError(t, producer.Enqueue(ctx, job))

	require.Eventually(t, func() bool {
		n, _ := rdb.LLen(ctx, "priority_queue_dlq").Result()
		return n == 1
	}, 5*time.Second, 50*time.Millisecond, "failed job should land in the DLQ")

	raw, err := rdb.LIndex(ctx, "priority_queue_dlq", 0).Result()
	require.NoError(t, err)

	var dead queue.Job
	require.NoError(t, json.Unmarshal([]byte(raw), &dead))
	assert.Equal(t, "doomed", dead.ID)
	assert.Equal(t, 1, dead.Retry)
	assert.Contains(t, dead.ErrorMsg, "unknown job type")
}
