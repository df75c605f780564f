package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher publishes events on Redis channels.
type RedisPublisher struct {
	client redis.UniversalClient
}

// NewRedisPublisher connects to Redis and returns a publisher.
func NewRedisPublisher(cfg RedisConfig) (*RedisPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisPublisher{client: client}, nil
}

// NewRedisPublisherWithClient wraps an existing client.
func NewRedisPublisherWithClient(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish publishes an event to the specified channel.
func (r *RedisPublisher) Publish(ctx context.Context, channel string, event *Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	return r.client.Publish(ctx, channel, data).Err()
}

// Close closes the Redis client.
func (r *RedisPublisher) Close() error {
	return r.client.Close()
}
