package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestOptionCache_SetGetDelete(t *testing.T) {
	mr, client := setupTestRedis(t)
	cache := NewOptionCache(client, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "opts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "opts", []byte(`{"a":1}`)))
	value, ok, err := cache.Get(ctx, "opts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"a":1}`, string(value))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "opts")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after ttl")

	require.NoError(t, cache.Set(ctx, "opts", []byte(`{}`)))
	require.NoError(t, cache.Delete(ctx, "opts"))
	_, ok, err = cache.Get(ctx, "opts")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOptionCache_NilIsNoop(t *testing.T) {
	var cache *OptionCache
	_, ok, err := cache.Get(context.Background(), "opts")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, cache.Set(context.Background(), "opts", nil))
	assert.NoError(t, cache.Delete(context.Background(), "opts"))
}

func TestNewRedisClient(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()
	assert.NoError(t, client.Ping(context.Background()).Err())
}
