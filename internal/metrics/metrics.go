// Package metrics holds the Prometheus collectors for the HTTP layer and
// the tour-graph pipeline. Collectors register with the default registry.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourcms_http_requests_total",
			Help: "Total HTTP requests by method, route pattern and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tourcms_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	PanicsRecovered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourcms_http_panics_total",
			Help: "Handler panics turned into 500 responses, by route pattern",
		},
		[]string{"route"},
	)

	// Tour graph
	GraphNodesProjected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tourcms_graph_nodes_projected_total",
			Help: "Total sphere nodes produced by the tour-graph projector",
		},
	)

	GraphPlaceholders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourcms_graph_placeholder_total",
			Help: "Nodes that fell back to the generated placeholder panorama",
		},
		[]string{"reason"}, // "missing", "probe_failed"
	)

	PanoramaProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourcms_panorama_probe_total",
			Help: "Panorama URL probes by result",
		},
		[]string{"result"}, // "ok", "failed", "cached_ok", "cached_failed"
	)

	// Embed
	EmbedPageViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tourcms_embed_page_views_total",
			Help: "Embed pages served",
		},
	)

	EmbedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tourcms_embed_messages_total",
			Help: "Messages posted to parent frames through the embed bus",
		},
		[]string{"type"},
	)
)

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// RecordProbe records a panorama probe result.
func RecordProbe(ok, cached bool) {
	result := "failed"
	if ok {
		result = "ok"
	}
	if cached {
		result = "cached_" + result
	}
	PanoramaProbes.WithLabelValues(result).Inc()
}
