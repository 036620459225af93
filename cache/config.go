package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/cachekit/errors"
)

// Policy names the eviction strategy for a cache.
type Policy string

const (
	// PolicySimple uses no eviction policy; the cache is unbounded.
	PolicySimple Policy = "simple"

	// PolicyLRU evicts the least recently used entry when full.
	PolicyLRU Policy = "lru"

	// PolicyLFU evicts the least frequently used entry when full, breaking
	// frequency ties by least recent promotion.
	PolicyLFU Policy = "lfu"

	// PolicyFIFO evicts the oldest inserted entry when full, ignoring
	// access patterns.
	PolicyFIFO Policy = "fifo"
)

// bounded reports whether the policy requires a positive capacity.
func (p Policy) bounded() bool {
	switch p {
	case PolicyLRU, PolicyLFU, PolicyFIFO:
		return true
	default:
		return false
	}
}

// Config contains configuration for cache creation.
type Config struct {
	// Enabled determines if caching is enabled.
	Enabled bool `json:"enabled"`

	// Policy determines the eviction strategy.
	Policy Policy `json:"policy"`

	// MaxSize is the maximum number of entries (for bounded policies).
	MaxSize int `json:"max_size"`

	// DefaultTTL is the time-to-live applied by Set; zero disables
	// expiration.
	DefaultTTL time.Duration `json:"default_ttl"`

	// CleanupInterval is how often the background sweep removes expired
	// entries; zero disables the sweep (expiration stays lazy).
	CleanupInterval time.Duration `json:"cleanup_interval"`
}

// DefaultConfig returns a default cache configuration: LRU over 1000
// entries with no expiration.
func DefaultConfig() Config {
	return Config{
		Enabled: true,
		Policy:  PolicyLRU,
		MaxSize: 1000,
	}
}

// Validate checks if the configuration is valid. Configuration problems
// are reported here, at construction, and never at call time.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil // No validation needed if disabled
	}

	switch c.Policy {
	case PolicySimple:
		// Unbounded; MaxSize is ignored
	case PolicyLRU, PolicyLFU, PolicyFIFO:
		if c.MaxSize <= 0 {
			return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
				fmt.Sprintf("max_size must be positive for %s cache, got %d", c.Policy, c.MaxSize))
		}
	default:
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("unknown cache policy: %q", c.Policy))
	}

	if c.DefaultTTL < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("default_ttl must not be negative, got %v", c.DefaultTTL))
	}
	if c.CleanupInterval < 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			fmt.Sprintf("cleanup_interval must not be negative, got %v", c.CleanupInterval))
	}
	if c.CleanupInterval > 0 && c.DefaultTTL == 0 {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "Validate",
			"cleanup_interval requires a default_ttl")
	}

	return nil
}

// NewFromConfig creates a cache based on the provided configuration.
// Returns a disabled cache (NewNoop) if config.Enabled is false. The
// context bounds the background sweep goroutine when CleanupInterval is
// set. Additional functional options configure metrics, callbacks, the
// clock, etc.
func NewFromConfig[V any](ctx context.Context, config Config, options ...Option[V]) (Cache[V], error) {
	if err := config.Validate(); err != nil {
		return nil, errors.WrapInvalid(err, "cache", "NewFromConfig", "config validation")
	}

	if !config.Enabled {
		return NewNoop[V](), nil
	}

	if config.DefaultTTL > 0 {
		options = append(options, WithDefaultTTL[V](config.DefaultTTL))
	}

	if config.Policy == PolicySimple {
		return NewSimple[V](options...)
	}

	if config.CleanupInterval > 0 {
		return NewExpiring[V](ctx, config.Policy, config.MaxSize, config.DefaultTTL, config.CleanupInterval, options...)
	}
	return New[V](config.Policy, config.MaxSize, options...)
}

// New creates a bounded cache with the given eviction policy and capacity.
// Expiration, if configured via WithDefaultTTL or SetWithTTL, is lazy: no
// background goroutine is started. Use NewExpiring for an eager sweep.
func New[V any](policy Policy, maxSize int, options ...Option[V]) (Cache[V], error) {
	if !policy.bounded() {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "New",
			fmt.Sprintf("policy %q is not capacity-bounded", policy))
	}
	opts := applyOptions(options...)
	return newBoundedCache[V](policy, maxSize, opts)
}

// NewLRU creates a new LRU cache with the specified maximum size.
// Stats are always enabled for observability. Use WithMetrics() to also
// export as Prometheus metrics.
func NewLRU[V any](maxSize int, options ...Option[V]) (Cache[V], error) {
	return New[V](PolicyLRU, maxSize, options...)
}

// NewLFU creates a new LFU cache with the specified maximum size.
func NewLFU[V any](maxSize int, options ...Option[V]) (Cache[V], error) {
	return New[V](PolicyLFU, maxSize, options...)
}

// NewFIFO creates a new FIFO cache with the specified maximum size.
func NewFIFO[V any](maxSize int, options ...Option[V]) (Cache[V], error) {
	return New[V](PolicyFIFO, maxSize, options...)
}

// NewExpiring creates a bounded cache whose entries expire after ttl,
// with a background sweep every cleanupInterval that removes expired
// entries even when the cache is idle. Expired entries are always removed
// in preference to policy evictions. The sweep goroutine stops when ctx
// is cancelled or the cache is closed.
func NewExpiring[V any](
	ctx context.Context, policy Policy, maxSize int, ttl, cleanupInterval time.Duration,
	options ...Option[V],
) (Cache[V], error) {
	if !policy.bounded() {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewExpiring",
			fmt.Sprintf("policy %q is not capacity-bounded", policy))
	}
	if ttl <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewExpiring",
			fmt.Sprintf("ttl must be positive, got %v", ttl))
	}
	if cleanupInterval <= 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "cache", "NewExpiring",
			fmt.Sprintf("cleanup_interval must be positive, got %v", cleanupInterval))
	}

	options = append(options, WithDefaultTTL[V](ttl))
	opts := applyOptions(options...)

	c, err := newBoundedCache[V](policy, maxSize, opts)
	if err != nil {
		return nil, err
	}
	c.startSweeper(ctx, cleanupInterval)
	return c, nil
}

// NewSimple creates a new unbounded cache with no eviction policy.
// Stats are always enabled for observability. Use WithMetrics() to also
// export as Prometheus metrics.
func NewSimple[V any](options ...Option[V]) (Cache[V], error) {
	opts := applyOptions(options...)
	return newSimpleCache[V](opts)
}

// NewNoop creates a cache that does nothing (always returns cache misses).
// This is useful when caching is disabled via configuration. Statistics
// are still tracked, so code written against the Cache interface can read
// them without checking which implementation it got.
func NewNoop[V any]() Cache[V] {
	return &noopCache[V]{stats: NewStatistics()}
}

// noopCache is a cache implementation that stores nothing. Every lookup
// counts as a miss; writes and deletes are accepted and discarded.
type noopCache[V any] struct {
	stats *Statistics
}

func (c *noopCache[V]) Get(_ string) (V, bool) {
	c.stats.Miss()
	var zero V
	return zero, false
}

func (c *noopCache[V]) Set(_ string, _ V) (bool, error) {
	return false, nil
}

func (c *noopCache[V]) SetWithTTL(_ string, _ V, _ time.Duration) (bool, error) {
	return false, nil
}

func (c *noopCache[V]) Delete(_ string) (bool, error) {
	return false, nil
}

func (c *noopCache[V]) Contains(_ string) bool {
	return false
}

func (c *noopCache[V]) Clear() error {
	return nil
}

func (c *noopCache[V]) Size() int {
	return 0
}

func (c *noopCache[V]) Keys() []string {
	return nil
}

func (c *noopCache[V]) Stats() *Statistics {
	return c.stats
}

func (c *noopCache[V]) Close() error {
	return nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Config to support
// duration strings (e.g., "1h", "5m", "30s") in addition to nanosecond
// integers.
func (c *Config) UnmarshalJSON(data []byte) error {
	// Use an alias to avoid infinite recursion
	type Alias Config

	// Temporary struct that accepts durations as either int64 or string
	aux := &struct {
		DefaultTTL      json.RawMessage `json:"default_ttl,omitempty"`
		CleanupInterval json.RawMessage `json:"cleanup_interval,omitempty"`
		*Alias
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.DefaultTTL) > 0 {
		ttl, err := parseDurationField(aux.DefaultTTL, "default_ttl")
		if err != nil {
			return err
		}
		c.DefaultTTL = ttl
	}

	if len(aux.CleanupInterval) > 0 {
		interval, err := parseDurationField(aux.CleanupInterval, "cleanup_interval")
		if err != nil {
			return err
		}
		c.CleanupInterval = interval
	}

	return nil
}

// parseDurationField parses a JSON duration field that can be either:
// - An integer (nanoseconds) for backward compatibility
// - A string (duration like "1h", "5m", "30s")
func parseDurationField(data json.RawMessage, fieldName string) (time.Duration, error) {
	// Try parsing as string first (most common case)
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		duration, err := time.ParseDuration(str)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", fieldName, err)
		}
		return duration, nil
	}

	// Fall back to integer (nanoseconds) for backward compatibility
	var nsec int64
	if err := json.Unmarshal(data, &nsec); err != nil {
		return 0, fmt.Errorf("field %s must be either a duration string (e.g., '1h') or integer nanoseconds", fieldName)
	}
	return time.Duration(nsec), nil
}
