package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const optionKeyPrefix = "modelviewer:option:"

// OptionCache keeps raw option records in Redis for a bounded time.
type OptionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewOptionCache(client *redis.Client, ttl time.Duration) *OptionCache {
	return &OptionCache{client: client, ttl: ttl}
}

// Get returns the cached record and whether it was present.
func (c *OptionCache) Get(ctx context.Context, name string) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	value, err := c.client.Get(ctx, optionKeyPrefix+name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (c *OptionCache) Set(ctx context.Context, name string, value []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, optionKeyPrefix+name, value, c.ttl).Err()
}

func (c *OptionCache) Delete(ctx context.Context, name string) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, optionKeyPrefix+name).Err()
}
