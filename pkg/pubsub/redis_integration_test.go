//go:build integration

package pubsub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	addr, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(addr)
	require.NoError(t, err)

	client := redis.NewClient(opts)
	publisher := NewRedisPublisherWithClient(client)
	t.Cleanup(func() { _ = publisher.Close() })

	sub := client.Subscribe(ctx, GeneratedChannel(9))
	t.Cleanup(func() { _ = sub.Close() })
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	event, err := NewEvent(EventIdentifiersGenerated, 9, GeneratedPayload{SourceID: 9, Identifiers: []string{"A-001"}})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, GeneratedChannel(9), event))

	select {
	case msg := <-sub.Channel():
		var got Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, EventIdentifiersGenerated, got.Type)
		assert.Equal(t, int64(9), got.SourceID)
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}
