package cache

import (
	"fmt"
	"sync"
	"time"

	"github.com/c360/cachekit/errors"
)

// mkItem is one cached value addressable under several alias keys, with a
// single expiration deadline shared by all of them.
type mkItem[V any] struct {
	value     V
	keys      []string
	expiresAt time.Time
}

// MultiKeyCache stores values addressable under several alias keys with a
// per-item TTL. All aliases of an item resolve to the same value and
// expire together. There is no capacity bound; items leave only by
// expiring or by explicit removal.
//
// Unlike the policy caches, expiration here is eager: every operation
// first purges all items whose deadline has passed, so Len and KeyCount
// are always exact. The expiry order is tracked in a deadline min-heap
// keyed by each item's first alias.
type MultiKeyCache[V any] struct {
	mu         sync.Mutex
	items      map[string]*mkItem[V] // alias key -> item
	expiry     *expiryQueue          // keyed by item's first alias
	count      int                   // distinct items
	defaultTTL time.Duration
	clock      Clock
	stats      *Statistics // ALWAYS initialized
	metrics    *cacheMetrics
	evictFn    EvictCallback[V] // invoked once per item with its first alias
	closeOnce  sync.Once
}

// NewMultiKey creates a multi-key TTL cache. The eviction callback, when
// set, is invoked once per removed item with the item's first alias key.
func NewMultiKey[V any](options ...Option[V]) (*MultiKeyCache[V], error) {
	opts := applyOptions(options...)

	stats := NewStatistics()

	var metrics *cacheMetrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "NewMultiKey", "metrics registration")
		}
		metrics.opened("multikey")
	}

	return &MultiKeyCache[V]{
		items:      make(map[string]*mkItem[V]),
		expiry:     newExpiryQueue(),
		defaultTTL: opts.defaultTTL,
		clock:      opts.clock,
		stats:      stats,
		metrics:    metrics,
		evictFn:    opts.evictCallback,
	}, nil
}

// Put stores value under every key in keys with the given TTL. A ttl of
// zero falls back to the cache default. All keys must be new; if any is
// already present the whole Put is rejected with a classified
// ErrKeyExists and nothing is stored.
func (c *MultiKeyCache[V]) Put(value V, ttl time.Duration, keys ...string) error {
	ok, err := c.put(value, ttl, keys, true)
	if err != nil {
		return err
	}
	if !ok {
		// put with rejectConflict reports conflicts as errors, so this is
		// unreachable; kept for symmetry with PutIfAbsent.
		return errors.WrapInvalid(errors.ErrKeyExists, "cache", "Put", "key conflict")
	}
	return nil
}

// PutIfAbsent behaves like Put but treats a key conflict as a normal
// outcome: it stores nothing and returns false.
func (c *MultiKeyCache[V]) PutIfAbsent(value V, ttl time.Duration, keys ...string) (bool, error) {
	return c.put(value, ttl, keys, false)
}

func (c *MultiKeyCache[V]) put(value V, ttl time.Duration, keys []string, rejectConflict bool) (bool, error) {
	if err := c.validatePut(keys, &ttl); err != nil {
		if c.metrics != nil {
			c.metrics.recordError(err)
		}
		return false, err
	}

	now := c.clock.Now()

	c.mu.Lock()
	removed := c.purgeExpiredLocked(now)

	for _, key := range keys {
		if _, exists := c.items[key]; exists {
			c.mu.Unlock()
			c.notify(removed)
			if rejectConflict {
				return false, errors.WrapInvalid(errors.ErrKeyExists, "cache", "Put",
					fmt.Sprintf("key %q already exists", key))
			}
			return false, nil
		}
	}

	item := &mkItem[V]{
		value:     value,
		keys:      keys,
		expiresAt: now.Add(ttl),
	}
	for _, key := range keys {
		c.items[key] = item
	}
	c.expiry.schedule(keys[0], item.expiresAt)
	c.count++
	size := c.count
	c.mu.Unlock()
	c.notify(removed)

	c.stats.Set()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordSet()
		c.metrics.updateSize(size)
	}
	return true, nil
}

// Get retrieves the value stored under any alias of an item.
func (c *MultiKeyCache[V]) Get(key string) (V, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	removed := c.purgeExpiredLocked(now)
	item, ok := c.items[key]
	c.mu.Unlock()
	c.notify(removed)

	if !ok {
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
	return item.value, true
}

// Contains reports whether key resolves to a live item.
func (c *MultiKeyCache[V]) Contains(key string) bool {
	now := c.clock.Now()

	c.mu.Lock()
	removed := c.purgeExpiredLocked(now)
	_, ok := c.items[key]
	c.mu.Unlock()
	c.notify(removed)

	return ok
}

// validatePut checks the key set and resolves the effective TTL in place.
func (c *MultiKeyCache[V]) validatePut(keys []string, ttl *time.Duration) error {
	if len(keys) == 0 {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "Put", "at least one key is required")
	}
	for _, key := range keys {
		if err := validateKey(key); err != nil {
			return err
		}
	}
	if *ttl <= 0 {
		*ttl = c.defaultTTL
	}
	if *ttl <= 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Put",
			"a positive ttl is required (no default configured)")
	}
	return nil
}

// Remove deletes the item reachable under key together with all of its
// aliases. Returns true if an item was removed.
func (c *MultiKeyCache[V]) Remove(key string) (bool, error) {
	if err := validateKey(key); err != nil {
		if c.metrics != nil {
			c.metrics.recordError(err)
		}
		return false, err
	}

	now := c.clock.Now()

	c.mu.Lock()
	removed := c.purgeExpiredLocked(now)

	item, ok := c.items[key]
	if ok {
		c.dropItemLocked(item)
	}
	size := c.count
	c.mu.Unlock()
	c.notify(removed)

	if !ok {
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

// Len returns the number of distinct live items.
func (c *MultiKeyCache[V]) Len() int {
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	n := c.count
	c.mu.Unlock()
	c.notify(removed)
	return n
}

// KeyCount returns the number of live alias keys across all items.
func (c *MultiKeyCache[V]) KeyCount() int {
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	n := len(c.items)
	c.mu.Unlock()
	c.notify(removed)
	return n
}

// Purge removes all expired items immediately and returns how many were
// dropped. Expiration is already applied on every operation; Purge exists
// for callers that want to bound dead-item memory during quiet periods.
func (c *MultiKeyCache[V]) Purge() int {
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	c.mu.Unlock()
	c.notify(removed)
	return len(removed)
}

// Stats returns the cache statistics.
func (c *MultiKeyCache[V]) Stats() *Statistics {
	return c.stats
}

// Close invalidates every remaining item, delivering the eviction
// callback for each, and leaves the cache empty but usable.
func (c *MultiKeyCache[V]) Close() error {
	c.mu.Lock()
	var all []*mkItem[V]
	seen := make(map[*mkItem[V]]bool)
	for _, item := range c.items {
		if !seen[item] {
			seen[item] = true
			all = append(all, item)
		}
	}
	c.items = make(map[string]*mkItem[V])
	c.expiry.reset()
	c.count = 0
	c.mu.Unlock()

	c.notify(all)
	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.updateSize(0)
	}
	c.closeOnce.Do(func() {
		if c.metrics != nil {
			c.metrics.closed("multikey")
		}
	})
	return nil
}

// dropItemLocked removes an item and all of its aliases. Must be called
// with the mutex held.
func (c *MultiKeyCache[V]) dropItemLocked(item *mkItem[V]) {
	for _, key := range item.keys {
		delete(c.items, key)
	}
	c.expiry.cancel(item.keys[0])
	c.count--
}

// purgeExpiredLocked removes every item whose deadline has passed and
// returns them for callback delivery after the lock is released. Must be
// called with the mutex held.
func (c *MultiKeyCache[V]) purgeExpiredLocked(now time.Time) []*mkItem[V] {
	var removed []*mkItem[V]
	for {
		key, at, ok := c.expiry.peek()
		if !ok || now.Before(at) {
			break
		}
		c.expiry.pop()
		if item, ok := c.items[key]; ok {
			for _, k := range item.keys {
				delete(c.items, k)
			}
			c.count--
			removed = append(removed, item)
		}
	}

	if len(removed) > 0 {
		size := c.count
		for range removed {
			c.stats.Expiration()
			if c.metrics != nil {
				c.metrics.recordExpiration()
			}
		}
		c.stats.UpdateSize(int64(size))
		if c.metrics != nil {
			c.metrics.updateSize(size)
		}
	}
	return removed
}

// notify delivers eviction callbacks outside the lock, once per item,
// using the item's first alias.
func (c *MultiKeyCache[V]) notify(removed []*mkItem[V]) {
	if c.evictFn == nil {
		return
	}
	for _, item := range removed {
		c.evictFn(item.keys[0], item.value)
	}
}
