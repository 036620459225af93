package cache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/cachekit/errors"
	"github.com/c360/cachekit/metric"
)

// cacheMetrics holds Prometheus metrics for a single cache instance.
type cacheMetrics struct {
	name string
	core *metric.Metrics

	hits        prometheus.Counter
	misses      prometheus.Counter
	sets        prometheus.Counter
	deletes     prometheus.Counter
	evictions   prometheus.Counter
	expirations prometheus.Counter

	size prometheus.Gauge
}

// newCacheMetrics creates and registers cache metrics with the provided registry.
func newCacheMetrics(registry *metric.MetricsRegistry, prefix string) (*cacheMetrics, error) {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "cachekit",
			Subsystem:   "cache",
			Name:        name,
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        help,
		})
	}

	m := &cacheMetrics{
		name:        prefix,
		core:        registry.CoreMetrics(),
		hits:        counter("hits_total", "Total number of cache hits"),
		misses:      counter("misses_total", "Total number of cache misses"),
		sets:        counter("sets_total", "Total number of cache set operations"),
		deletes:     counter("deletes_total", "Total number of cache delete operations"),
		evictions:   counter("evictions_total", "Total number of capacity evictions"),
		expirations: counter("expirations_total", "Total number of TTL expirations"),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "cachekit",
			Subsystem:   "cache",
			Name:        "size",
			ConstLabels: prometheus.Labels{"component": prefix},
			Help:        "Current number of entries in cache",
		}),
	}

	registrations := []struct {
		name    string
		counter prometheus.Counter
	}{
		{"cache_hits", m.hits},
		{"cache_misses", m.misses},
		{"cache_sets", m.sets},
		{"cache_deletes", m.deletes},
		{"cache_evictions", m.evictions},
		{"cache_expirations", m.expirations},
	}

	for _, reg := range registrations {
		if err := registry.RegisterCounter(prefix, reg.name, reg.counter); err != nil {
			return nil, err
		}
	}
	if err := registry.RegisterGauge(prefix, "cache_size", m.size); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *cacheMetrics) recordHit() {
	m.hits.Inc()
}

func (m *cacheMetrics) recordMiss() {
	m.misses.Inc()
}

func (m *cacheMetrics) recordSet() {
	m.sets.Inc()
}

func (m *cacheMetrics) recordDelete() {
	m.deletes.Inc()
	m.core.RecordRemoval(m.name, metric.ReasonDeleted)
}

func (m *cacheMetrics) recordEviction() {
	m.evictions.Inc()
	m.core.RecordRemoval(m.name, metric.ReasonEvicted)
}

func (m *cacheMetrics) recordExpiration() {
	m.expirations.Inc()
	m.core.RecordRemoval(m.name, metric.ReasonExpired)
}

func (m *cacheMetrics) recordClear() {
	m.core.RecordRemoval(m.name, metric.ReasonCleared)
}

func (m *cacheMetrics) updateSize(size int) {
	m.size.Set(float64(size))
}

// observeOp feeds the library-wide latency histogram. Start is wall-clock
// time; an injected cache clock only governs TTL semantics, not latency.
func (m *cacheMetrics) observeOp(operation string, start time.Time) {
	m.core.RecordOperationDuration(m.name, operation, time.Since(start))
}

func (m *cacheMetrics) recordError(err error) {
	m.core.RecordError(m.name, errorClass(err))
}

// errorClass maps a classified error to its metric label.
func errorClass(err error) string {
	switch {
	case errors.IsInvalid(err):
		return "invalid"
	case errors.IsTransient(err):
		return "transient"
	case errors.IsFatal(err):
		return "fatal"
	default:
		return "unclassified"
	}
}

// opened and closed maintain the library-wide active instance gauge.
// closed must be called at most once per cache; constructors pair it
// with a sync.Once in Close.
func (m *cacheMetrics) opened(policy string) {
	m.core.RecordCacheOpened(policy)
}

func (m *cacheMetrics) closed(policy string) {
	m.core.RecordCacheClosed(policy)
}
