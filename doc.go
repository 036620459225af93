// Package cachekit is the root of a toolkit for in-process caching:
// generic caches with pluggable eviction policies, TTL expiration, and
// built-in observability, plus a TTL-bounded object pool.
//
// # Packages
//
//   - cache: the core library. LRU, LFU, and FIFO bounded caches, an
//     unbounded simple cache, a multi-key cache, and a noop cache, all
//     behind one generic interface with always-on statistics and
//     optional Prometheus metrics.
//   - pool: a factory-backed object pool that retires instances after
//     they idle past a TTL, for parsers, codecs, and client handles that
//     are expensive to build.
//   - errors: classified errors (transient, invalid, fatal) and the
//     sentinel values shared across the module.
//   - metric: a self-contained Prometheus registry with named
//     registration and an HTTP handler for scraping.
//
// # Quick Start
//
//	c, err := cache.NewLRU[User](10000,
//	    cache.WithDefaultTTL[User](5*time.Minute),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	c.Set("alice", alice)
//	if user, ok := c.Get("alice"); ok {
//	    // cache hit
//	}
//
// See cmd/cachekit-bench for a workload driver that exercises the
// policies under load and exports their metrics.
package cachekit
