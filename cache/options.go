package cache

import (
	"log/slog"
	"time"

	"github.com/c360/cachekit/metric"
)

// Option configures cache behavior using the functional options pattern.
type Option[V any] func(*cacheOptions[V])

// cacheOptions holds internal configuration for cache instances.
// Stats are ALWAYS collected - they are not optional.
// Metrics are optional and exposed via WithMetrics().
type cacheOptions[V any] struct {
	// metricsReg is optional - if provided, cache stats are also exposed
	// as Prometheus metrics
	metricsReg *metric.MetricsRegistry

	// metricsPrefix is used as the component label for Prometheus metrics
	metricsPrefix string

	// evictCallback is called when items are evicted or expire
	evictCallback EvictCallback[V]

	// clock supplies the time source for TTL decisions
	clock Clock

	// defaultTTL applies to Set calls; zero means entries never expire
	defaultTTL time.Duration

	// logger receives sweep and lifecycle events
	logger *slog.Logger
}

// WithMetrics enables Prometheus metrics export for cache statistics.
// If registry is nil or prefix is empty, this option is ignored.
func WithMetrics[V any](registry *metric.MetricsRegistry, prefix string) Option[V] {
	return func(opts *cacheOptions[V]) {
		if registry != nil && prefix != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = prefix
		}
	}
}

// WithEvictionCallback sets a callback function that is called when items
// are evicted or expire. The callback receives the key and value of the
// removed entry and runs outside the cache lock.
func WithEvictionCallback[V any](callback EvictCallback[V]) Option[V] {
	return func(opts *cacheOptions[V]) {
		opts.evictCallback = callback
	}
}

// WithClock replaces the time source used for TTL decisions. Intended for
// tests; if clock is nil, this option is ignored.
func WithClock[V any](clock Clock) Option[V] {
	return func(opts *cacheOptions[V]) {
		if clock != nil {
			opts.clock = clock
		}
	}
}

// WithDefaultTTL sets the TTL applied by Set. SetWithTTL overrides it per
// entry. If ttl is <= 0, this option is ignored and entries never expire
// unless given an explicit TTL.
func WithDefaultTTL[V any](ttl time.Duration) Option[V] {
	return func(opts *cacheOptions[V]) {
		if ttl > 0 {
			opts.defaultTTL = ttl
		}
	}
}

// WithLogger sets the structured logger used for background sweep events.
// If logger is nil, this option is ignored.
func WithLogger[V any](logger *slog.Logger) Option[V] {
	return func(opts *cacheOptions[V]) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// applyOptions applies functional options to create final cache configuration.
// This is an internal helper used by cache constructors.
func applyOptions[V any](options ...Option[V]) *cacheOptions[V] {
	opts := &cacheOptions[V]{
		clock:  systemClock{},
		logger: slog.Default(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
