package cache

import (
	"sync"
	"time"

	"github.com/c360/cachekit/errors"
)

// simpleCache is a thread-safe cache with no eviction policy. Items stay
// until explicitly deleted, cleared, or expired by a per-entry TTL. With
// no ordering structure to maintain on reads, lookups only need a read
// lock; expired entries are purged lazily on the next write to their key
// or reported invisible in the meantime.
type simpleCache[V any] struct {
	mu         sync.RWMutex
	items      map[string]*entry[V]
	defaultTTL time.Duration
	clock      Clock
	stats      *Statistics // ALWAYS initialized
	metrics    *cacheMetrics
	evictFn    EvictCallback[V]
	closeOnce  sync.Once
}

// newSimpleCache creates a new simple cache instance.
// Returns an error if metrics registration fails when requested.
func newSimpleCache[V any](opts *cacheOptions[V]) (*simpleCache[V], error) {
	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *cacheMetrics
	// Optionally expose stats as Prometheus metrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "newSimpleCache", "metrics registration")
		}
		metrics.opened(string(PolicySimple))
	}

	return &simpleCache[V]{
		items:      make(map[string]*entry[V]),
		defaultTTL: opts.defaultTTL,
		clock:      opts.clock,
		stats:      stats,
		metrics:    metrics,
		evictFn:    opts.evictCallback,
	}, nil
}

// Get retrieves a value by key, treating expired entries as misses.
func (c *simpleCache[V]) Get(key string) (V, bool) {
	if c.metrics != nil {
		defer c.metrics.observeOp("get", time.Now())
	}

	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || e.expired(now) {
		if ok {
			c.purgeExpired(key, now)
		}

		var zero V
		c.stats.Miss()
		if c.metrics != nil {
			c.metrics.recordMiss()
		}
		return zero, false
	}

	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}
	return e.value, true
}

// Set stores a value with the cache's default TTL.
func (c *simpleCache[V]) Set(key string, value V) (bool, error) {
	return c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL; zero means no expiry.
func (c *simpleCache[V]) SetWithTTL(key string, value V, ttl time.Duration) (bool, error) {
	if c.metrics != nil {
		defer c.metrics.observeOp("set", time.Now())
	}

	if err := validateKey(key); err != nil {
		if c.metrics != nil {
			c.metrics.recordError(err)
		}
		return false, err
	}

	now := c.clock.Now()

	c.mu.Lock()
	old, exists := c.items[key]
	var displaced *entry[V]
	if exists && old.expired(now) {
		// An expired entry being overwritten counts as a fresh
		// admission; the dead value is disposed of like any other
		// expiration.
		displaced = old
		exists = false
	}
	c.items[key] = &entry[V]{
		key:       key,
		value:     value,
		createdAt: now,
		expiresAt: expiresAt(now, ttl),
	}
	size := len(c.items)
	c.mu.Unlock()

	if displaced != nil {
		if c.evictFn != nil {
			c.evictFn(displaced.key, displaced.value)
		}
		c.stats.Expiration()
		if c.metrics != nil {
			c.metrics.recordExpiration()
		}
	}

	c.stats.Set()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordSet()
		c.metrics.updateSize(size)
	}
	return !exists, nil
}

// Delete removes an entry by key. A lingering expired entry counts as
// already absent.
func (c *simpleCache[V]) Delete(key string) (bool, error) {
	if c.metrics != nil {
		defer c.metrics.observeOp("delete", time.Now())
	}

	if err := validateKey(key); err != nil {
		if c.metrics != nil {
			c.metrics.recordError(err)
		}
		return false, err
	}

	now := c.clock.Now()

	c.mu.Lock()
	e, exists := c.items[key]
	if exists {
		delete(c.items, key)
	}
	size := len(c.items)
	c.mu.Unlock()

	if !exists {
		return false, nil
	}
	if e.expired(now) {
		c.recordExpiration(size)
		return false, nil
	}

	c.stats.Delete()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordDelete()
		c.metrics.updateSize(size)
	}
	return true, nil
}

// Contains reports whether a live entry exists for key.
func (c *simpleCache[V]) Contains(key string) bool {
	now := c.clock.Now()

	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	return ok && !e.expired(now)
}

// Clear removes all entries from the cache.
func (c *simpleCache[V]) Clear() error {
	c.mu.Lock()
	c.items = make(map[string]*entry[V])
	c.mu.Unlock()

	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.recordClear()
		c.metrics.updateSize(0)
	}
	return nil
}

// Size returns the number of live entries. Entries that expired but have
// not been purged yet are excluded from the count.
func (c *simpleCache[V]) Size() int {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	size := 0
	for _, e := range c.items {
		if !e.expired(now) {
			size++
		}
	}
	return size
}

// Keys returns all live keys. Order is unspecified.
func (c *simpleCache[V]) Keys() []string {
	now := c.clock.Now()

	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.items))
	for key, e := range c.items {
		if !e.expired(now) {
			keys = append(keys, key)
		}
	}
	return keys
}

// Stats returns cache statistics.
func (c *simpleCache[V]) Stats() *Statistics {
	return c.stats
}

// Close shuts down the cache. The simple cache has no background
// goroutines; only the instance gauge is updated.
func (c *simpleCache[V]) Close() error {
	c.closeOnce.Do(func() {
		if c.metrics != nil {
			c.metrics.closed(string(PolicySimple))
		}
	})
	return nil
}

// purgeExpired removes an entry discovered expired during a read. The
// double-check under the write lock guards against a concurrent overwrite
// that revived the key.
func (c *simpleCache[V]) purgeExpired(key string, now time.Time) {
	c.mu.Lock()
	e, ok := c.items[key]
	if !ok || !e.expired(now) {
		c.mu.Unlock()
		return
	}
	delete(c.items, key)
	size := len(c.items)
	c.mu.Unlock()

	if c.evictFn != nil {
		c.evictFn(e.key, e.value)
	}
	c.recordExpiration(size)
}

func (c *simpleCache[V]) recordExpiration(size int) {
	c.stats.Expiration()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordExpiration()
		c.metrics.updateSize(size)
	}
}
