// Package cache implements ports.CachePort against Redis, the cache-aside
// read path wallet queries fall back to before hitting the repository.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is used when Put is called with a non-positive ttl.
const DefaultTTL = 5 * time.Minute

// RedisCache is a thin wrapper over a *redis.Client implementing
// ports.CachePort. Connection lifecycle (dial, reconnect) is handled by the
// underlying client; this type only translates Get/Put/Invalidate/Ping into
// Redis commands and normalizes go-redis's miss/error signaling into the
// port's (bytes, found, error) shape.
type RedisCache struct {
	client *redis.Client
}

// Config controls the underlying redis.Client.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New dials Redis lazily — go-redis connects on first command, not on
// construction — and returns a RedisCache wrapping the client.
func New(cfg Config) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &RedisCache{client: client}
}

// Get returns the cached bytes under key. A Redis miss (redis.Nil) is
// reported as (nil, false, nil) — not an error — per ports.CachePort's
// contract; any other failure is returned as a non-nil error so the caller
// treats the cache as unreachable.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %q: %w", key, err)
	}
	return val, true, nil
}

// Put stores value under key with ttl. A non-positive ttl falls back to
// DefaultTTL rather than storing the key forever by accident.
func (c *RedisCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %q: %w", key, err)
	}
	return nil
}

// Invalidate removes key. Deleting an absent key is a no-op in Redis, so
// this never distinguishes "was present" from "already gone".
func (c *RedisCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %q: %w", key, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
