package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisBackend persists entries in Redis under a key prefix, for headless
// agents that share credentials across restarts or hosts.
type RedisBackend struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisBackend creates a Redis backend. prefix namespaces the credential
// keys; it defaults to "mcs" when empty.
func NewRedisBackend(client redis.UniversalClient, prefix string) *RedisBackend {
	if prefix == "" {
		prefix = "mcs"
	}
	return &RedisBackend{redis: client, prefix: prefix}
}

func (r *RedisBackend) key(key string) string {
	return r.prefix + ":" + key
}

// Get returns the stored value, [ErrKeyNotFound] when absent, or a wrapped
// [ErrStorageUnavailable] when Redis fails.
func (r *RedisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := r.redis.Get(ctx, r.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrKeyNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return value, nil
}

// Set persists the value without expiration; credential lifetime is governed
// by the manager, not the backend.
func (r *RedisBackend) Set(ctx context.Context, key, value string) error {
	if err := r.redis.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes the entry if present.
func (r *RedisBackend) Delete(ctx context.Context, key string) error {
	if err := r.redis.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
