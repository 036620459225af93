// Package cache provides generic in-process caches with pluggable
// eviction policies, TTL-based expiration, and always-on statistics.
//
// # Cache Types
//
// The package offers several cache implementations behind one interface:
//
//   - Bounded policy caches (NewLRU, NewLFU, NewFIFO): fixed capacity,
//     deterministic victim selection when full.
//   - Simple cache (NewSimple): unbounded, lazy per-entry expiration.
//   - Expiring cache (NewExpiring): bounded policy cache with a default
//     TTL and an optional background cleanup sweep.
//   - Multi-key cache (NewMultiKey): one value addressable under several
//     alias keys that expire together.
//   - Noop cache (NewNoop): stores nothing, for disabled configurations.
//
// # Configuration
//
// Caches can be built directly or from a Config, which supports JSON
// unmarshaling with duration strings:
//
//	cfg := cache.DefaultConfig()
//	cfg.Policy = cache.PolicyLFU
//	cfg.MaxSize = 10000
//	c, err := cache.NewFromConfig[string](ctx, cfg)
//
// # Statistics and Metrics
//
// Every cache tracks hits, misses, sets, deletes, evictions, and
// expirations in-process via Stats(). Prometheus export is opt-in
// through WithMetrics:
//
//	c, err := cache.NewLRU[User](1000,
//	    cache.WithMetrics[User](registry, "users"),
//	    cache.WithDefaultTTL[User](5*time.Minute),
//	)
//
// # Concurrency
//
// All caches are safe for concurrent use. Eviction callbacks run outside
// the cache lock, so a callback may call back into the cache.
package cache
