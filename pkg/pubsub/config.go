package pubsub

import (
	"context"
	"fmt"
	"time"
)

// KafkaConfig holds Kafka-specific configuration.
type KafkaConfig struct {
	Brokers    string `mapstructure:"brokers"`
	Partitions int    `mapstructure:"partitions"`
}

// Config holds the configuration for the event bus.
type Config struct {
	Driver string      `mapstructure:"driver"` // "none", "redis", "kafka"
	Redis  RedisConfig `mapstructure:"redis"`
	Kafka  KafkaConfig `mapstructure:"kafka"`
}

// RedisConfig holds Redis-specific configuration.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// NewPublisher creates the publisher named by cfg.Driver.
func NewPublisher(cfg Config) (Publisher, error) {
	switch cfg.Driver {
	case "kafka":
		return NewKafkaPublisher(cfg.Kafka)
	case "redis":
		return NewRedisPublisher(cfg.Redis)
	case "none", "":
		return NoopPublisher{}, nil
	default:
		return nil, fmt.Errorf("unsupported pubsub driver: %s", cfg.Driver)
	}
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, *Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
