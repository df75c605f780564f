package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/weiawesome/wes-idgen/internal/generator"
)

// RedisSourceCache stores source configurations as JSON values.
type RedisSourceCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSourceCacheWithClient wraps an existing client.
func NewRedisSourceCacheWithClient(client redis.UniversalClient, prefix string) *RedisSourceCache {
	return &RedisSourceCache{client: client, prefix: prefix}
}

func (c *RedisSourceCache) BuildKeyByID(sourceID int64) string {
	return fmt.Sprintf("%s:source:%d", c.prefix, sourceID)
}

func (c *RedisSourceCache) Get(ctx context.Context, key string) (*generator.SourceConfig, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var cfg generator.SourceConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cache data: %w", err)
	}
	return &cfg, nil
}

func (c *RedisSourceCache) Set(ctx context.Context, key string, cfg *generator.SourceConfig, ttl time.Duration) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set in redis: %w", err)
	}
	return nil
}

func (c *RedisSourceCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

func (c *RedisSourceCache) Close() error {
	return c.client.Close()
}
