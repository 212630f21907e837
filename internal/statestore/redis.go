package statestore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Compile-time interface check.
var _ Store = (*RedisStore)(nil)

// RedisStore implements Store on Redis, for deployments with more than one
// instance behind the callback URL. TTL is enforced by Redis; single use by
// GETDEL.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects using a REDIS_URL-style connection string.
func NewRedisStore(rawURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func key(state string) string {
	return "oauth_state:" + state
}

func (r *RedisStore) Issue(ctx context.Context, state string, userID uint, ttl time.Duration) error {
	return r.client.Set(ctx, key(state), strconv.FormatUint(uint64(userID), 10), ttl).Err()
}

func (r *RedisStore) Consume(ctx context.Context, state string) (uint, error) {
	val, err := r.client.GetDel(ctx, key(state)).Result()
	if err == redis.Nil {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, ErrNotFound
	}
	return uint(userID), nil
}

// Ping verifies connectivity at startup.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
