// Package metric provides Prometheus metrics management for cachekit.
//
// A MetricsRegistry wraps a private prometheus.Registry and tracks every
// collector registered through it under a "cache.metric" key, so duplicate
// registrations are caught with a classified error instead of a panic.
//
// The registry ships with core library metrics (active instance gauge,
// removal counters by reason, operation latency histograms) plus the Go
// runtime and process collectors. Cache instances register their own
// per-instance counters through the MetricsRegistrar interface when the
// cache.WithMetrics option is used.
//
// Metrics are exposed by mounting Handler() on an existing HTTP mux; the
// package deliberately does not own a listener.
package metric
