package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// reserveScript initializes the counter at ARGV[2] when missing, then adds
// ARGV[1]. It returns the first reserved seed and whether the key existed.
var reserveScript = redis.NewScript(`
local existed = redis.call("EXISTS", KEYS[1])
if existed == 0 then
	redis.call("SET", KEYS[1], ARGV[2])
end
local next = redis.call("INCRBY", KEYS[1], ARGV[1])
return {next - tonumber(ARGV[1]), existed}
`)

// RedisSequenceStore keeps sequence values as Redis counters.
type RedisSequenceStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSequenceStoreWithClient wraps an existing client.
func NewRedisSequenceStoreWithClient(client redis.UniversalClient, prefix string) *RedisSequenceStore {
	return &RedisSequenceStore{client: client, prefix: prefix}
}

func (s *RedisSequenceStore) key(sourceID int64) string {
	return fmt.Sprintf("%s:sequence:%d", s.prefix, sourceID)
}

// SequenceValue returns the next seed of a source.
func (s *RedisSequenceStore) SequenceValue(ctx context.Context, sourceID int64) (int64, bool, error) {
	raw, err := s.client.Get(ctx, s.key(sourceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get from redis: %w", err)
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid sequence value %q: %w", raw, err)
	}
	return value, true, nil
}

// Reserve takes count consecutive seeds with a single atomic script call.
func (s *RedisSequenceStore) Reserve(ctx context.Context, sourceID, count, start int64) (Reservation, error) {
	if count <= 0 {
		return Reservation{}, ErrInvalidCount
	}

	values, err := reserveScript.Run(ctx, s.client, []string{s.key(sourceID)}, count, start).Int64Slice()
	if err != nil {
		return Reservation{}, fmt.Errorf("failed to reserve sequence values: %w", err)
	}
	if len(values) != 2 {
		return Reservation{}, fmt.Errorf("unexpected reserve reply %v", values)
	}

	res := Reservation{
		First:       values[0],
		Count:       count,
		Initialized: values[1] == 1,
	}
	if res.Initialized {
		res.Previous = res.First
	}
	return res, nil
}

// Close closes the underlying client.
func (s *RedisSequenceStore) Close() error {
	return s.client.Close()
}
