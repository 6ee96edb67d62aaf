// Package metrics exposes Prometheus collectors for the map server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "safetymap",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "route"})

	// Renders counts overlay render passes.
	Renders = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "overlay",
		Name:      "renders_total",
		Help:      "Total overlay render passes",
	})

	// SkippedOverlays counts entities skipped while rendering, per layer.
	SkippedOverlays = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "overlay",
		Name:      "skipped_total",
		Help:      "Entities skipped during rendering",
	}, []string{"layer"})

	// RejectedEntities counts dataset entities rejected at load time.
	RejectedEntities = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "dataset",
		Name:      "rejected_total",
		Help:      "Dataset entities rejected at load time",
	}, []string{"collection"})

	// MarkerActivations counts marker clicks, per layer.
	MarkerActivations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "map",
		Name:      "marker_activations_total",
		Help:      "Markers activated by users",
	}, []string{"layer"})

	// SearchSubmissions counts submitted search queries.
	SearchSubmissions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "map",
		Name:      "search_submissions_total",
		Help:      "Search queries submitted",
	})

	// TilesServed counts base tiles served, by cache outcome.
	TilesServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safetymap",
		Subsystem: "tiles",
		Name:      "served_total",
		Help:      "Base map tiles served",
	}, []string{"source"})
)

// Handler serves the Prometheus exposition endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one HTTP request.
func ObserveRequest(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
