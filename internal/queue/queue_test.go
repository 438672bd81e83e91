package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return mr, client
}

type recordingHandler struct {
	tasks []Task
	fail  bool
}

func (h *recordingHandler) Handle(_ context.Context, msg redis.XMessage) error {
	if h.fail {
		return errors.New("boom")
	}
	task, err := DecodeTask(msg.Values)
	if err != nil {
		return err
	}
	h.tasks = append(h.tasks, task)
	return nil
}

func newTestConsumer(client *redis.Client, handler MessageHandler) *Consumer {
	c := NewConsumer(client, "model:ingest", "workers", "w1", time.Minute, zerolog.Nop(), handler)
	c.block = 10 * time.Millisecond
	return c
}

func TestTask_RoundTrip(t *testing.T) {
	ingest := Task{Type: TaskIngest, AssetID: "a1", Bucket: "models", Object: "2024/a1.glb", Format: "glb"}

	values := map[string]any{}
	for k, v := range ingest.Values() {
		values[k] = v.(string)
	}
	got, err := DecodeTask(values)
	require.NoError(t, err)
	assert.Equal(t, ingest, got)

	assert.Equal(t, map[string]any{"type": TaskCleanup}, Task{Type: TaskCleanup}.Values())
}

func TestDecodeTask_Malformed(t *testing.T) {
	_, err := DecodeTask(map[string]any{})
	assert.ErrorIs(t, err, ErrMalformedTask)

	_, err = DecodeTask(map[string]any{"type": TaskIngest})
	assert.ErrorIs(t, err, ErrMalformedTask)
}

func TestProducerConsumer(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	handler := &recordingHandler{}
	consumer := newTestConsumer(client, handler)
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, consumer.EnsureGroup(ctx), "second call is a no-op")

	producer := NewProducer(client, "model:ingest")
	require.NoError(t, producer.Enqueue(ctx, Task{Type: TaskIngest, AssetID: "a1", Bucket: "models", Object: "k.glb", Format: "glb"}))
	require.NoError(t, producer.Enqueue(ctx, Task{Type: TaskCleanup}))

	require.NoError(t, consumer.read(ctx))
	require.Len(t, handler.tasks, 2)
	assert.Equal(t, "a1", handler.tasks[0].AssetID)
	assert.Equal(t, TaskCleanup, handler.tasks[1].Type)

	pending, err := client.XPending(ctx, "model:ingest", "workers").Result()
	require.NoError(t, err)
	assert.Zero(t, pending.Count)
}

func TestConsumer_FailedMessagesStayPending(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	consumer := newTestConsumer(client, &recordingHandler{fail: true})
	require.NoError(t, consumer.EnsureGroup(ctx))
	require.NoError(t, NewProducer(client, "model:ingest").Enqueue(ctx, Task{Type: TaskCleanup}))

	require.NoError(t, consumer.read(ctx))

	pending, err := client.XPending(ctx, "model:ingest", "workers").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending.Count)
}

func TestProducer_NilClientDrops(t *testing.T) {
	var producer *Producer
	assert.NoError(t, producer.Enqueue(context.Background(), Task{Type: TaskCleanup}))
	assert.NoError(t, NewProducer(nil, "s").Enqueue(context.Background(), Task{Type: TaskCleanup}))
}
