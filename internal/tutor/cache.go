package tutor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	goredis "github.com/redis/go-redis/v9"
)

// Cache stores tutor replies by key.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type memEntry struct {
	value   string
	expires time.Time
}

// MemoryCache is a bounded in-process cache. When full, the least
// recently used entry is evicted.
type MemoryCache struct {
	lru *expirable.LRU[string, memEntry]
	now func() time.Time
}

// NewMemoryCache holds at most max entries.
func NewMemoryCache(max int) *MemoryCache {
	if max <= 0 {
		max = 256
	}
	// Expiry is per entry, so the LRU itself never expires anything.
	return &MemoryCache{lru: expirable.NewLRU[string, memEntry](max, nil, 0), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return "", false, nil
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		c.lru.Remove(key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisCache shares replies between server instances.
type RedisCache struct {
	rdb    *goredis.Client
	prefix string
}

// NewRedisCache connects to the Redis URL (redis://host:port/db) and
// pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisCache{rdb: rdb, prefix: "mathdrill:tutor:"}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefix+key, value, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.rdb.Close()
}
