package queue

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	Enqueue(ctx context.Context, job Job) error
}

type RedisProducer struct {
	Redis *redis.Client
}

func NewProducer(redis *redis.Client) Producer {
	return &RedisProducer{Redis: redis}
}

func (p *RedisProducer) Enqueue(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return err
	}

	// score = readiness time; the consumer only pops scores <= now, so a
	// fresh job is ready immediately and a retried one after its backoff.
	// The priority fraction orders jobs that became ready in the same
	// second, lowest first.
	score := float64(job.CreatedAt) + float64(job.Priority)/10
	return p.Redis.ZAdd(ctx, "priority_queue", redis.Z{
		Score:  score,
		Member: jobBytes,
	}).Err()
}
