package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/c360/cachekit/errors"
)

// MetricsRegistrar defines the interface for registering cache-specific metrics
type MetricsRegistrar interface {
	RegisterCounter(cacheName, metricName string, counter prometheus.Counter) error
	RegisterGauge(cacheName, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(cacheName, metricName string, histogram prometheus.Histogram) error
	RegisterCounterVec(cacheName, metricName string, counterVec *prometheus.CounterVec) error
	RegisterGaugeVec(cacheName, metricName string, gaugeVec *prometheus.GaugeVec) error
	Unregister(cacheName, metricName string) bool
}

// MetricsRegistry manages the registration and lifecycle of metrics.
// Each registry owns a private Prometheus registry, so independent cache
// instances never collide on metric names as long as they use distinct
// component prefixes.
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a new metrics registry with core library metrics
func NewMetricsRegistry() *MetricsRegistry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &MetricsRegistry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	// Initialize and register core metrics
	registry.Metrics = NewMetrics()
	registry.registerMetrics()

	// Add Go runtime metrics
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core library metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// register adds a collector under "cacheName.metricName", rejecting
// duplicates both in this registry and in the underlying Prometheus one.
// Caller must hold r.mu.
func (r *MetricsRegistry) register(cacheName, metricName, operation string, collector prometheus.Collector) error {
	key := fmt.Sprintf("%s.%s", cacheName, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("metric %s already registered for cache %s", metricName, cacheName),
			"MetricsRegistry", operation, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(collector); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapInvalid(err, "MetricsRegistry", operation,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapFatal(err, "MetricsRegistry", operation,
			"failed to register collector with prometheus")
	}

	r.registeredMetrics[key] = collector
	return nil
}

// RegisterCounter registers a counter metric for a cache
func (r *MetricsRegistry) RegisterCounter(cacheName, metricName string, counter prometheus.Counter) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(cacheName, metricName, "RegisterCounter", counter)
}

// RegisterGauge registers a gauge metric for a cache
func (r *MetricsRegistry) RegisterGauge(cacheName, metricName string, gauge prometheus.Gauge) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(cacheName, metricName, "RegisterGauge", gauge)
}

// RegisterHistogram registers a histogram metric for a cache
func (r *MetricsRegistry) RegisterHistogram(cacheName, metricName string, histogram prometheus.Histogram) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(cacheName, metricName, "RegisterHistogram", histogram)
}

// RegisterCounterVec registers a counter vector metric for a cache
func (r *MetricsRegistry) RegisterCounterVec(cacheName, metricName string, counterVec *prometheus.CounterVec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(cacheName, metricName, "RegisterCounterVec", counterVec)
}

// RegisterGaugeVec registers a gauge vector metric for a cache
func (r *MetricsRegistry) RegisterGaugeVec(cacheName, metricName string, gaugeVec *prometheus.GaugeVec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.register(cacheName, metricName, "RegisterGaugeVec", gaugeVec)
}

// Unregister removes a metric from the registry
func (r *MetricsRegistry) Unregister(cacheName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", cacheName, metricName)

	collector, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	success := r.prometheusRegistry.Unregister(collector)
	if success {
		delete(r.registeredMetrics, key)
	}

	return success
}

// registerMetrics registers all core library metrics
func (r *MetricsRegistry) registerMetrics() {
	r.prometheusRegistry.MustRegister(
		r.Metrics.CachesActive,
		r.Metrics.RemovalsTotal,
		r.Metrics.OperationDuration,
		r.Metrics.ErrorsTotal,
	)
}
