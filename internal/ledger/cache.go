package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps Redis based caching for the aggregate read path. Expiry is the
// only invalidation: mutations never touch the cached snapshot, so a read may
// observe pre-mutation values until the TTL elapses. A TTL of zero stores the
// snapshot without expiry.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{client: client, ttl: ttl, logger: logger}
}

// TTL returns the configured time-to-live.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}

// Put overwrites the cached value under key, restarting the TTL window.
func (c *Cache) Put(ctx context.Context, key string, value interface{}) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}

// Fetch loads a cached value or populates it using the loader. Without a
// Redis client the loader result is passed through uncached. A Redis fault is
// treated the same way: the error is logged and the loader serves the read,
// so an unreachable cache degrades aggregate reads instead of failing them.
func (c *Cache) Fetch(ctx context.Context, key string, dest interface{}, loader func(context.Context) (interface{}, error)) error {
	if loader == nil {
		return errors.New("cache: loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		return json.Unmarshal(raw, dest)
	}
	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if err != redis.Nil {
		c.warn("cache read failed, serving from store", key, err)
	}
	value, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.warn("cache write failed, snapshot not stored", key, err)
	}
	return json.Unmarshal(raw, dest)
}

func (c *Cache) warn(msg, key string, err error) {
	if c == nil || c.logger == nil {
		return
	}
	c.logger.Warn(msg, slog.String("key", key), slog.Any("error", err))
}
