// Package cache implements the exact-match response cache. Its backend
// is a single Redis client, mirroring the connection-pool settings the
// teacher corpus uses for its own Redis wrapper.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is a thin wrapper around go-redis/v9 with the pool
// settings the gateway standardizes on.
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient builds a client pointed at host:port. It does not
// connect eagerly — call Ping to verify connectivity.
func NewRedisClient(host, port string) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:         fmt.Sprintf("%s:%s", host, port),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		}),
	}
}

// NewRedisClientFromExisting wraps an already-constructed *redis.Client,
// used by tests to point the cache at a miniredis instance.
func NewRedisClientFromExisting(c *redis.Client) *RedisClient {
	return &RedisClient{client: c}
}

func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisClient) Close() error {
	return r.client.Close()
}

// Get returns the raw string value and whether it was present. Any
// backend error is treated as "not present" by the caller.
func (r *RedisClient) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis GET %s: %w", key, err)
	}
	return v, true, nil
}

// SetEx stores value at key with the given TTL.
func (r *RedisClient) SetEx(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis SETEX %s: %w", key, err)
	}
	return nil
}

// IncrWithExpiry atomically increments key and, only on the first
// increment (count == 1), sets its TTL — the fixed-window rate-limit
// counter pattern.
func (r *RedisClient) IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error) {
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis rate-limit incr %s: %w", key, err)
	}
	return incr.Val(), nil
}
