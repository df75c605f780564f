//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/weiawesome/wes-idgen/internal/generator"
)

func TestRedisSourceCache_RoundTrip(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	c := NewRedisSourceCacheWithClient(redis.NewClient(opts), "idgen-test")
	t.Cleanup(func() { _ = c.Close() })

	key := c.BuildKeyByID(4)
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)

	cfg := &generator.SourceConfig{
		ID:               4,
		Name:             "Main",
		BaseCharacterSet: "0123456789",
		IdentifierType:   &generator.IdentifierType{Name: "OpenMRS ID", ValidatorRef: "luhn"},
	}
	require.NoError(t, c.Set(ctx, key, cfg, time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, cfg, got)

	require.NoError(t, c.Delete(ctx, key))
	_, err = c.Get(ctx, key)
	assert.ErrorIs(t, err, ErrCacheMiss)
}
