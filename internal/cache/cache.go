package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader produces a value on a cache miss.
type Loader func(ctx context.Context) ([]byte, error)

// NamespaceReports is the generation namespace of cached reports.
const NamespaceReports = "reports"

// Invalidator retires every key built from the current generation of a
// namespace.
type Invalidator interface {
	Bump(ctx context.Context, namespace string) error
}

// Cache is a read-through byte cache. Callers that need invalidation include
// Generation(namespace) in their keys; Bump makes those keys unreachable and
// they age out through their ttl.
type Cache interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]byte, error)
	Generation(ctx context.Context, namespace string) (int64, error)
	Invalidator
}

// RedisCache stores values in redis and coalesces concurrent misses for the
// same key into a single load.
type RedisCache struct {
	rdb    *redis.Client
	prefix string
	sf     singleflight.Group
	onHit  func(hit bool)
}

// NewRedisCache wraps rdb. onHit, when set, is called with the result of
// every lookup.
func NewRedisCache(rdb *redis.Client, prefix string, onHit func(hit bool)) *RedisCache {
	return &RedisCache{rdb: rdb, prefix: prefix, onHit: onHit}
}

func (c *RedisCache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]byte, error) {
	key = c.prefix + key

	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		c.record(true)
		return b, nil
	}
	if !errors.Is(err, redis.Nil) {
		// Redis being unavailable degrades to loading from the source.
		c.record(false)
		return load(ctx)
	}
	c.record(false)

	v, err, _ := c.sf.Do(key, func() (any, error) {
		b, err := load(ctx)
		if err != nil {
			return nil, err
		}
		_ = c.rdb.Set(ctx, key, b, ttl).Err()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *RedisCache) Generation(ctx context.Context, namespace string) (int64, error) {
	n, err := c.rdb.Get(ctx, c.generationKey(namespace)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *RedisCache) Bump(ctx context.Context, namespace string) error {
	return c.rdb.Incr(ctx, c.generationKey(namespace)).Err()
}

func (c *RedisCache) generationKey(namespace string) string {
	return c.prefix + "gen:" + namespace
}

func (c *RedisCache) record(hit bool) {
	if c.onHit != nil {
		c.onHit(hit)
	}
}

// Nop always loads.
type Nop struct{}

func (Nop) GetOrLoad(ctx context.Context, _ string, _ time.Duration, load Loader) ([]byte, error) {
	return load(ctx)
}

func (Nop) Generation(context.Context, string) (int64, error) { return 0, nil }

func (Nop) Bump(context.Context, string) error { return nil }

// GetOrLoadJSON is GetOrLoad for JSON encoded values.
func GetOrLoadJSON[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func(ctx context.Context) (*T, error)) (*T, error) {
	if ttl <= 0 {
		return load(ctx)
	}

	b, err := c.GetOrLoad(ctx, key, ttl, func(ctx context.Context) ([]byte, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	})
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
