// Package cache provides a small read-through cache used by the order queue
// and shift summary read paths. Keys are namespaced so a whole branch scope
// can be dropped in one call before callers observe a mutation.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is the read-through interface consumed by services.
type Cache interface {
	// WithCache returns the cached bytes for key, or runs loader, stores the
	// result with the given TTL and returns it.
	WithCache(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, error)
	// Invalidate drops every key matching any of the given prefixes.
	Invalidate(ctx context.Context, prefixes ...string) error
}

// Redis is a Cache backed by a redis client.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (c *Redis) WithCache(ctx context.Context, key string, ttl time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		return data, nil
	}

	data, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	// A failed SET only costs the next reader a reload.
	_ = c.client.Set(ctx, key, data, ttl).Err()
	return data, nil
}

func (c *Redis) Invalidate(ctx context.Context, prefixes ...string) error {
	for _, prefix := range prefixes {
		iter := c.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				return err
			}
		}
		if err := iter.Err(); err != nil {
			return err
		}
	}
	return nil
}

// Noop disables caching. Used when Redis is not configured and in tests.
type Noop struct{}

func (Noop) WithCache(ctx context.Context, _ string, _ time.Duration, loader func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	return loader(ctx)
}

func (Noop) Invalidate(context.Context, ...string) error { return nil }

// Marshal is a convenience for loaders that cache JSON documents.
func Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}
