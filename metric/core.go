package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Removal reasons reported to RecordRemoval. Capacity evictions and TTL
// expirations are the same event from the caller's perspective; the
// reason label is the only place the distinction is preserved.
const (
	ReasonEvicted = "evicted"
	ReasonExpired = "expired"
	ReasonDeleted = "deleted"
	ReasonCleared = "cleared"
)

// Metrics contains library-level metrics shared across cache instances
type Metrics struct {
	// CachesActive tracks the number of live cache instances per policy
	CachesActive *prometheus.GaugeVec

	// RemovalsTotal counts entry removals by cache and reason
	RemovalsTotal *prometheus.CounterVec

	// OperationDuration observes per-operation latency
	OperationDuration *prometheus.HistogramVec

	// ErrorsTotal counts errors by cache and type
	ErrorsTotal *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all library metrics
func NewMetrics() *Metrics {
	return &Metrics{
		CachesActive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "cachekit",
				Subsystem: "instances",
				Name:      "active",
				Help:      "Number of active cache instances",
			},
			[]string{"policy"},
		),

		RemovalsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cachekit",
				Subsystem: "entries",
				Name:      "removals_total",
				Help:      "Total number of entry removals by reason",
			},
			[]string{"cache", "reason"},
		),

		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "cachekit",
				Subsystem: "operations",
				Name:      "duration_seconds",
				Help:      "Cache operation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"cache", "operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "cachekit",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors",
			},
			[]string{"cache", "type"},
		),
	}
}

// RecordCacheOpened increments the active instance gauge for a policy
func (c *Metrics) RecordCacheOpened(policy string) {
	c.CachesActive.WithLabelValues(policy).Inc()
}

// RecordCacheClosed decrements the active instance gauge for a policy
func (c *Metrics) RecordCacheClosed(policy string) {
	c.CachesActive.WithLabelValues(policy).Dec()
}

// RecordRemoval increments the removal counter for a cache and reason
func (c *Metrics) RecordRemoval(cache, reason string) {
	c.RemovalsTotal.WithLabelValues(cache, reason).Inc()
}

// RecordOperationDuration records the latency of a cache operation
func (c *Metrics) RecordOperationDuration(cache, operation string, duration time.Duration) {
	c.OperationDuration.WithLabelValues(cache, operation).Observe(duration.Seconds())
}

// RecordError increments the error counter
func (c *Metrics) RecordError(cache, errorType string) {
	c.ErrorsTotal.WithLabelValues(cache, errorType).Inc()
}
