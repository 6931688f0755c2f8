package cache

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// TTL tiers. Catalog data changes rarely; permission snapshots and derived
// boolean checks are cheap to recompute, so they expire faster. Values
// obtained during a degraded (fallback) read use DegradedTTL so they are
// retried soon instead of being pinned.
const (
	CatalogTTL    = 5 * time.Minute
	PermissionTTL = 2 * time.Minute
	CheckTTL      = 1 * time.Minute
	DegradedTTL   = 1 * time.Minute
)

// Cache is an in-process TTL key-value cache with prefix invalidation.
// Entries are evicted lazily on access; there is no background sweeper, so
// memory is bounded by the working set in practice. An expired entry is
// never returned.
type Cache struct {
	inner *ttlcache.Cache[string, any]
}

// New creates a cache with the given default TTL.
func New(defaultTTL time.Duration) *Cache {
	inner := ttlcache.New[string, any](
		ttlcache.WithTTL[string, any](defaultTTL),
		ttlcache.WithDisableTouchOnHit[string, any](),
	)
	// inner.Start() is deliberately not called: expiry is handled on
	// access, never by a background goroutine.
	return &Cache{inner: inner}
}

// Get returns the cached value for key, or false when absent or expired.
// Expired entries are dropped on the read that observes them.
func (c *Cache) Get(key string) (any, bool) {
	item := c.inner.Get(key)
	if item == nil {
		c.inner.DeleteExpired()
		return nil, false
	}
	return item.Value(), true
}

// Set stores a value under key with an explicit TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.inner.Set(key, value, ttl)
}

// SetDefault stores a value under key with the cache's default TTL.
func (c *Cache) SetDefault(key string, value any) {
	c.inner.Set(key, value, ttlcache.DefaultTTL)
}

// Delete removes a single entry.
func (c *Cache) Delete(key string) {
	c.inner.Delete(key)
}

// InvalidatePrefix removes every entry whose key starts with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.inner.DeleteExpired()
	for _, key := range c.inner.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.inner.Delete(key)
		}
	}
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.inner.DeleteAll()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.inner.DeleteExpired()
	return c.inner.Len()
}
