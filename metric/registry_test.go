package metric

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistry(t *testing.T) {
	registry := NewMetricsRegistry()

	assert.NotNil(t, registry)
	assert.NotNil(t, registry.PrometheusRegistry())
	assert.NotNil(t, registry.CoreMetrics())
}

func gatherNames(t *testing.T, registry *MetricsRegistry) map[string]bool {
	t.Helper()

	metricFamilies, err := registry.PrometheusRegistry().Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(metricFamilies))
	for _, mf := range metricFamilies {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsRegistry_RegisterCounter(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_counter",
		Help: "A test counter",
	})

	err := registry.RegisterCounter("test-cache", "test_counter", counter)
	require.NoError(t, err)

	counter.Inc()

	names := gatherNames(t, registry)
	assert.True(t, names["test_counter"], "counter should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterGauge(t *testing.T) {
	registry := NewMetricsRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_gauge",
		Help: "A test gauge",
	})

	err := registry.RegisterGauge("test-cache", "test_gauge", gauge)
	require.NoError(t, err)

	gauge.Set(42)

	names := gatherNames(t, registry)
	assert.True(t, names["test_gauge"], "gauge should be registered in Prometheus registry")
}

func TestMetricsRegistry_RegisterHistogram(t *testing.T) {
	registry := NewMetricsRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "test_histogram",
		Help: "A test histogram",
	})

	err := registry.RegisterHistogram("test-cache", "test_histogram", histogram)
	require.NoError(t, err)

	histogram.Observe(0.5)

	names := gatherNames(t, registry)
	assert.True(t, names["test_histogram"], "histogram should be registered in Prometheus registry")
}

func TestMetricsRegistry_DuplicateRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dup_counter",
		Help: "A counter",
	})

	require.NoError(t, registry.RegisterCounter("cache-a", "dup_counter", counter))

	// Same cache/metric pair is rejected by the registry itself.
	err := registry.RegisterCounter("cache-a", "dup_counter", counter)
	assert.Error(t, err)

	// Same collector under a different key collides inside Prometheus.
	err = registry.RegisterCounter("cache-b", "dup_counter", counter)
	assert.Error(t, err)
}

func TestMetricsRegistry_Unregister(t *testing.T) {
	registry := NewMetricsRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "removable_counter",
		Help: "A counter",
	})

	require.NoError(t, registry.RegisterCounter("test-cache", "removable_counter", counter))

	assert.True(t, registry.Unregister("test-cache", "removable_counter"))
	assert.False(t, registry.Unregister("test-cache", "removable_counter"),
		"second unregister should report absence")

	// Re-registration after unregister must succeed.
	require.NoError(t, registry.RegisterCounter("test-cache", "removable_counter", counter))
}

func TestMetricsRegistry_ConcurrentRegistration(t *testing.T) {
	registry := NewMetricsRegistry()

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)

	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			counter := prometheus.NewCounter(prometheus.CounterOpts{
				Name: fmt.Sprintf("concurrent_counter_%d", id),
				Help: "A counter",
			})
			errs[id] = registry.RegisterCounter("test-cache", fmt.Sprintf("concurrent_counter_%d", id), counter)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "goroutine %d registration failed", i)
	}
}

func TestCoreMetrics(t *testing.T) {
	registry := NewMetricsRegistry()
	core := registry.CoreMetrics()

	core.RecordCacheOpened("lru")
	core.RecordRemoval("sessions", ReasonEvicted)
	core.RecordRemoval("sessions", ReasonExpired)
	core.RecordError("sessions", "invalid")
	core.RecordCacheClosed("lru")

	names := gatherNames(t, registry)
	assert.True(t, names["cachekit_instances_active"])
	assert.True(t, names["cachekit_entries_removals_total"])
	assert.True(t, names["cachekit_errors_total"])
}

func TestHandler(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().RecordCacheOpened("lru")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	registry.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "cachekit_instances_active")
}
