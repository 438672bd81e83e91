package jobs

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelviewer/internal/queue"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestScheduler_EnqueueCleanup(t *testing.T) {
	client := setupTestRedis(t)
	s := NewScheduler(queue.NewProducer(client, "models:ingest"), "0 0 3 * * *", zerolog.Nop())

	s.enqueueCleanup()

	entries, err := client.XRange(context.Background(), "models:ingest", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	task, err := queue.DecodeTask(entries[0].Values)
	require.NoError(t, err)
	assert.Equal(t, queue.TaskCleanup, task.Type)
	assert.Empty(t, task.AssetID)
}

func TestScheduler_StartRejectsBadSchedule(t *testing.T) {
	client := setupTestRedis(t)
	s := NewScheduler(queue.NewProducer(client, "models:ingest"), "every day", zerolog.Nop())

	assert.Error(t, s.Start())
}

func TestScheduler_StartStop(t *testing.T) {
	client := setupTestRedis(t)
	s := NewScheduler(queue.NewProducer(client, "models:ingest"), "0 0 3 * * *", zerolog.Nop())

	require.NoError(t, s.Start())
	<-s.Stop().Done()
}
