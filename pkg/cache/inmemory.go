package cache

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// Cache is a process-local key store with per-key expiry. A one-shot scan
// starts with an empty cache; a long-lived process keeps it across runs.
type Cache interface {
	Set(key string, value interface{}, ttl time.Duration)
	Get(key string) (interface{}, bool)
	// Expiry reports when key expires. ok is false for missing keys and for
	// keys stored without expiration.
	Expiry(key string) (at time.Time, ok bool)
	Len() int
}

type goCache struct {
	internal *cache.Cache
}

func NewCache(defaultExpiration, cleanupInterval time.Duration) Cache {
	return &goCache{
		internal: cache.New(defaultExpiration, cleanupInterval),
	}
}

func (c *goCache) Set(key string, value interface{}, ttl time.Duration) {
	c.internal.Set(key, value, ttl)
}

func (c *goCache) Get(key string) (interface{}, bool) {
	return c.internal.Get(key)
}

func (c *goCache) Expiry(key string) (time.Time, bool) {
	_, at, found := c.internal.GetWithExpiration(key)
	if !found || at.IsZero() {
		return time.Time{}, false
	}
	return at, true
}

// Len counts stored items, including expired ones not yet cleaned up.
func (c *goCache) Len() int {
	return c.internal.ItemCount()
}

// Lookup returns the value under key when it holds a T.
func Lookup[T any](c Cache, key string) (T, bool) {
	var zero T
	val, found := c.Get(key)
	if !found {
		return zero, false
	}
	typed, ok := val.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
