package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns an http.Handler that serves this registry's metrics in
// Prometheus exposition format. cachekit does not run an HTTP server of
// its own; callers mount the handler on whatever mux they already have:
//
//	mux.Handle("/metrics", registry.Handler())
func (r *MetricsRegistry) Handler() http.Handler {
	return promhttp.HandlerFor(
		r.prometheusRegistry,
		promhttp.HandlerOpts{
			EnableOpenMetrics: true,
		},
	)
}
