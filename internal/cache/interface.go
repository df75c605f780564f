package cache

import (
	"context"
	"errors"
	"time"

	"github.com/weiawesome/wes-idgen/internal/generator"
)

var ErrCacheMiss = errors.New("cache miss")

// SourceCache caches identifier source configurations.
type SourceCache interface {
	Get(ctx context.Context, key string) (*generator.SourceConfig, error)
	Set(ctx context.Context, key string, cfg *generator.SourceConfig, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	BuildKeyByID(sourceID int64) string
	Close() error
}

// NoopSourceCache never holds anything.
type NoopSourceCache struct{}

func (NoopSourceCache) Get(context.Context, string) (*generator.SourceConfig, error) {
	return nil, ErrCacheMiss
}

func (NoopSourceCache) Set(context.Context, string, *generator.SourceConfig, time.Duration) error {
	return nil
}

func (NoopSourceCache) Delete(context.Context, ...string) error { return nil }

func (NoopSourceCache) BuildKeyByID(int64) string { return "" }

func (NoopSourceCache) Close() error { return nil }
