package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestEnqueueStoresJobReadyNow(t *testing.T) {
	rdb := newTestRedis(t)
	producer := NewProducer(rdb)

	now := time.Now().Unix()
	job := Job{
		ID:        "job-1",
		Type:      JobNotificationFanout,
		Payload:   MustMarshal(map[string]string{"preview": "hi"}),
		Priority:  2,
		MaxRetry:  3,
		CreatedAt: now,
		ExpireAt:  time.Now().Add(10 * time.Minute).Unix(),
	}

	require.NoError(t, producer.Enqueue(context.Background(), job))

	ctx := context.Background()
	entries, err := rdb.ZRangeByScoreWithScores(ctx, "priority_queue", &redis.ZRangeBy{
		Min: "-inf",
		Max: "+inf",
	}).Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	// ready as soon as it is enqueued
	assert.LessOrEqual(t, entries[0].Score, float64(now)+1)

	var stored Job
	require.NoError(t, json.Unmarshal([]byte(entries[0].Member.(string)), &stored))
	assert.Equal(t, "job-1", stored.ID)
	assert.Equal(t, JobNotificationFanout, stored.Type)
	assert.Equal(t, 3, stored.MaxRetry)
}

func TestEnqueuePriorityOrdersReadyJobs(t *testing.T) {
	rdb := newTestRedis(t)
	producer := NewProducer(rdb)
	ctx := context.Background()

	now := time.Now().Unix()
	urgent := Job{ID: "urgent", Type: JobCustomerEntered, Priority: 1, CreatedAt: now, ExpireAt: now + 600}
	routine := Job{ID: "routine", Type: JobNotificationFanout, Priority: 2, CreatedAt: now, ExpireAt: now + 600}

	require.NoError(t, producer.Enqueue(ctx, routine))
	require.NoError(t, producer.Enqueue(ctx, urgent))

	entries, err := rdb.ZRangeByScore(ctx, "priority_queue", &redis.ZRangeBy{Min: "-inf", Max: "+inf"}).Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	var first Job
	require.NoError(t, json.Unmarshal([]byte(entries[0]), &first))
	assert.Equal(t, "urgent", first.ID)
}

func TestMustMarshalNilOnFailure(t *testing.T) {
	assert.Nil(t, MustMarshal(make(chan int)))
	assert.NotNil(t, MustMarshal(map[string]int{"a": 1}))
}
