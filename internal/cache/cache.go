// Package cache keeps short-lived read models in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "farmerp:"

// Cache stores JSON values under a fixed TTL. A nil *Cache or one without a
// client is a pass-through.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New wraps a Redis client.
func New(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}
}

// Ping checks the connection.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close releases the client.
func (c *Cache) Close() error {
	if !c.enabled() {
		return nil
	}
	return c.rdb.Close()
}

func (c *Cache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// Remember returns the cached value for key or computes it with load and
// stores it. Redis failures are logged and fall back to load.
func Remember[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	if !c.enabled() {
		return load(ctx)
	}

	var cached T
	data, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		c.logger.Warn("discard unreadable cache entry", zap.String("key", key))
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	value, err := load(ctx)
	if err != nil {
		return value, err
	}

	if data, err := json.Marshal(value); err == nil {
		if err := c.rdb.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return value, nil
}
