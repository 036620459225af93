package cache

import (
	"time"

	"github.com/c360/cachekit/errors"
)

// Cache represents a generic cache interface that all cache implementations
// must satisfy. The cache is parameterized by value type V for type safety;
// keys are always strings.
type Cache[V any] interface {
	// Get retrieves a value by key. Returns the value and true on a hit,
	// zero value and false on a miss. An expired entry is a miss even if
	// it has not been physically removed yet.
	Get(key string) (V, bool)

	// Set stores a value with the given key using the cache's default TTL.
	// Returns true if a new entry was admitted, false if an existing entry
	// was updated. Returns an error only for invalid keys.
	Set(key string, value V) (bool, error)

	// SetWithTTL stores a value with an explicit TTL that overrides the
	// cache's default. A ttl of zero means the entry never expires.
	SetWithTTL(key string, value V, ttl time.Duration) (bool, error)

	// Delete removes an entry by key. Returns true if the key existed and
	// was deleted. Deleting an absent key is not an error.
	Delete(key string) (bool, error)

	// Contains reports whether a live entry exists for key. Expired
	// entries report false. Contains does not promote the entry and does
	// not count toward hit/miss statistics.
	Contains(key string) bool

	// Clear removes all entries from the cache. Capacity is unchanged.
	Clear() error

	// Size returns the current number of live entries in the cache.
	Size() int

	// Keys returns a slice of all live keys currently in the cache, in
	// policy order where the implementation maintains one.
	Keys() []string

	// Stats returns cache statistics. Never nil; the noop cache counts
	// its misses too.
	Stats() *Statistics

	// Close shuts down the cache and releases any resources (e.g.,
	// background goroutines).
	Close() error
}

// EvictCallback is called when an entry is removed from the cache by
// eviction or expiration (not by an explicit Delete or Clear unless
// documented otherwise by the implementation). It receives the key and
// value of the removed entry and runs outside the cache lock.
type EvictCallback[V any] func(key string, value V)

// validateKey validates a cache key for basic requirements.
// Returns a classified error if the key is invalid.
func validateKey(key string) error {
	if key == "" {
		return errors.WrapInvalid(errors.ErrInvalidData, "cache", "validateKey", "key cannot be empty")
	}
	return nil
}
