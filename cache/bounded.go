package cache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360/cachekit/errors"
)

// boundedCache is the capacity-bounded cache engine shared by the LRU,
// LFU, and FIFO policies, optionally layered with TTL expiration. All
// mutating operations, including Get (the recency and frequency policies
// reorder on reads), run under one exclusive lock over the store and its
// ordering structure. Statistics use atomic counters updated outside the
// lock and may trail the store by a few operations.
type boundedCache[V any] struct {
	mu         sync.Mutex
	store      *store[V]
	expiry     *expiryQueue
	capacity   int
	policyName Policy
	defaultTTL time.Duration
	clock      Clock
	stats      *Statistics // ALWAYS initialized
	metrics    *cacheMetrics
	evictFn    EvictCallback[V]
	logger     *slog.Logger

	// Background sweep coordination; nil channels mean no sweeper.
	shutdown chan struct{}
	done     chan struct{}

	closeOnce sync.Once
}

// newBoundedCache creates the engine for a policy and capacity. Capacity
// must be positive; a non-positive capacity is a configuration error
// reported at construction, never at call time.
func newBoundedCache[V any](policyName Policy, capacity int, opts *cacheOptions[V]) (*boundedCache[V], error) {
	if capacity <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "newBoundedCache",
			fmt.Sprintf("capacity must be positive, got %d", capacity))
	}

	// Stats are ALWAYS initialized - observability is not optional
	stats := NewStatistics()

	var metrics *cacheMetrics
	// Optionally expose stats as Prometheus metrics
	if opts.metricsReg != nil && opts.metricsPrefix != "" {
		var err error
		metrics, err = newCacheMetrics(opts.metricsReg, opts.metricsPrefix)
		if err != nil {
			return nil, errors.WrapTransient(err, "cache", "newBoundedCache", "metrics registration")
		}
		metrics.opened(string(policyName))
	}

	return &boundedCache[V]{
		store:      newStore[V](newPolicy(policyName)),
		expiry:     newExpiryQueue(),
		capacity:   capacity,
		policyName: policyName,
		defaultTTL: opts.defaultTTL,
		clock:      opts.clock,
		stats:      stats,
		metrics:    metrics,
		evictFn:    opts.evictCallback,
		logger:     opts.logger,
	}, nil
}

// startSweeper launches the background expiration sweep. The sweeper
// acquires the same lock as every mutating operation and stops when the
// context is cancelled or the cache is closed.
func (c *boundedCache[V]) startSweeper(ctx context.Context, interval time.Duration) {
	c.shutdown = make(chan struct{})
	c.done = make(chan struct{})
	go c.sweep(ctx, interval)
}

// Get retrieves a value by key and promotes it per the active policy.
func (c *boundedCache[V]) Get(key string) (V, bool) {
	if c.metrics != nil {
		defer c.metrics.observeOp("get", time.Now())
	}

	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())

	e, ok := c.store.lookup(key)
	if !ok {
		c.mu.Unlock()
		c.notifyRemoved(removed)

		var zero V
		c.stats.Miss()
		if c.metrics != nil {
			c.metrics.recordMiss()
		}
		return zero, false
	}

	c.store.touch(key)
	value := e.value
	c.mu.Unlock()
	c.notifyRemoved(removed)

	c.stats.Hit()
	if c.metrics != nil {
		c.metrics.recordHit()
	}
	return value, true
}

// Set stores a value under key using the cache's default TTL.
func (c *boundedCache[V]) Set(key string, value V) (bool, error) {
	return c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores a value with an explicit TTL. Replacing an existing
// key counts as an access for the eviction policy, not a fresh admission,
// and never triggers an eviction. Admitting a new key evicts at most one
// entry, with already-expired entries removed preferentially.
func (c *boundedCache[V]) SetWithTTL(key string, value V, ttl time.Duration) (bool, error) {
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
	removed := c.purgeExpiredLocked(now)

	if e, ok := c.store.lookup(key); ok {
		e.value = value
		e.expiresAt = expiresAt(now, ttl)
		if e.expiresAt.IsZero() {
			c.expiry.cancel(key)
		} else {
			c.expiry.schedule(key, e.expiresAt)
		}
		c.store.touch(key)
		c.mu.Unlock()
		c.notifyRemoved(removed)

		c.stats.Set()
		if c.metrics != nil {
			c.metrics.recordSet()
		}
		return false, nil
	}

	if c.store.len() >= c.capacity {
		if victim, ok := c.store.evict(); ok {
			c.expiry.cancel(victim.key)
			removed = append(removed, victim)
			c.stats.Eviction()
			if c.metrics != nil {
				c.metrics.recordEviction()
			}
		}
	}

	e := &entry[V]{
		key:       key,
		value:     value,
		createdAt: now,
		expiresAt: expiresAt(now, ttl),
	}
	c.store.admit(e)
	if !e.expiresAt.IsZero() {
		c.expiry.schedule(key, e.expiresAt)
	}
	size := c.store.len()
	c.mu.Unlock()
	c.notifyRemoved(removed)

	c.stats.Set()
	c.stats.UpdateSize(int64(size))
	if c.metrics != nil {
		c.metrics.recordSet()
		c.metrics.updateSize(size)
	}
	return true, nil
}

// Delete removes an entry by key. The eviction callback is not invoked
// for explicit deletes; the caller already holds the value if it cares.
func (c *boundedCache[V]) Delete(key string) (bool, error) {
	if c.metrics != nil {
		defer c.metrics.observeOp("delete", time.Now())
	}

	if err := validateKey(key); err != nil {
		if c.metrics != nil {
			c.metrics.recordError(err)
		}
		return false, err
	}

	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())

	_, ok := c.store.remove(key)
	if ok {
		c.expiry.cancel(key)
	}
	size := c.store.len()
	c.mu.Unlock()
	c.notifyRemoved(removed)

	if ok {
		c.stats.Delete()
		c.stats.UpdateSize(int64(size))
		if c.metrics != nil {
			c.metrics.recordDelete()
			c.metrics.updateSize(size)
		}
	}
	return ok, nil
}

// Contains reports whether a live entry exists for key without promoting
// it and without touching hit/miss statistics.
func (c *boundedCache[V]) Contains(key string) bool {
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	_, ok := c.store.lookup(key)
	c.mu.Unlock()
	c.notifyRemoved(removed)
	return ok
}

// Clear removes all entries. Capacity and policy are unchanged, and the
// eviction callback is not invoked.
func (c *boundedCache[V]) Clear() error {
	c.mu.Lock()
	c.store.reset()
	c.expiry.reset()
	c.mu.Unlock()

	c.stats.UpdateSize(0)
	if c.metrics != nil {
		c.metrics.recordClear()
		c.metrics.updateSize(0)
	}
	return nil
}

// Size returns the number of live entries.
func (c *boundedCache[V]) Size() int {
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	size := c.store.len()
	c.mu.Unlock()
	c.notifyRemoved(removed)
	return size
}

// Keys returns all live keys in policy order, next victim last.
func (c *boundedCache[V]) Keys() []string {
	c.mu.Lock()
	removed := c.purgeExpiredLocked(c.clock.Now())
	keys := c.store.keys()
	c.mu.Unlock()
	c.notifyRemoved(removed)
	return keys
}

// Stats returns the cache statistics.
func (c *boundedCache[V]) Stats() *Statistics {
	return c.stats
}

// Close stops the background sweeper if one is running. Closing twice is
// safe.
func (c *boundedCache[V]) Close() error {
	c.closeOnce.Do(func() {
		if c.metrics != nil {
			c.metrics.closed(string(c.policyName))
		}
	})

	if c.done == nil {
		return nil
	}

	select {
	case <-c.shutdown:
		// Already shutting down
	default:
		close(c.shutdown)
	}

	select {
	case <-c.done:
		return nil
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timeout waiting for sweep goroutine to finish")
	}
}

// purgeExpiredLocked removes every entry whose deadline has passed and
// returns them for callback delivery after the lock is released. Must be
// called with the mutex held.
func (c *boundedCache[V]) purgeExpiredLocked(now time.Time) []*entry[V] {
	var removed []*entry[V]
	for {
		_, at, ok := c.expiry.peek()
		if !ok || now.Before(at) {
			break
		}
		key := c.expiry.pop()
		if e, ok := c.store.remove(key); ok {
			removed = append(removed, e)
		}
	}

	if len(removed) > 0 {
		size := c.store.len()
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

// notifyRemoved delivers eviction callbacks outside the lock to prevent
// deadlocks when the callback re-enters the cache.
func (c *boundedCache[V]) notifyRemoved(removed []*entry[V]) {
	if c.evictFn == nil {
		return
	}
	for _, e := range removed {
		c.evictFn(e.key, e.value)
	}
}

// sweep runs in a background goroutine and periodically purges expired
// entries so memory held by dead entries stays bounded even when the
// cache is idle.
func (c *boundedCache[V]) sweep(ctx context.Context, interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-ticker.C:
			c.mu.Lock()
			removed := c.purgeExpiredLocked(c.clock.Now())
			c.mu.Unlock()
			c.notifyRemoved(removed)

			if len(removed) > 0 {
				c.logger.Debug("swept expired cache entries",
					"policy", string(c.policyName),
					"count", len(removed))
			}
		}
	}
}

// expiresAt converts a TTL into an absolute deadline; zero stays zero.
func expiresAt(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
