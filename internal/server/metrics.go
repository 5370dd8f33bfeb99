package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traybill_http_requests_total",
		Help: "HTTP requests by method, endpoint, and status code.",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "traybill_http_request_duration_seconds",
		Help:    "HTTP request latency by endpoint.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	analyzeRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traybill_analyze_requests_total",
		Help: "Tray analysis requests by outcome (done, empty, failed, error).",
	}, []string{"outcome"})

	analyzeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traybill_analyze_duration_seconds",
		Help:    "End-to-end tray analysis latency.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	itemsDetected = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traybill_items_detected",
		Help:    "Dishes detected per analyzed image.",
		Buckets: []float64{0, 1, 2, 3, 4, 5, 7, 10, 15},
	})

	fallbackLinesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "traybill_fallback_line_items_total",
		Help: "Bill lines priced with the fallback entry because the label was not on the menu.",
	})

	uploadSizeBytes = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "traybill_upload_size_bytes",
		Help:    "Uploaded image payload sizes.",
		Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
	})

	rateLimitHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "traybill_rate_limit_hits_total",
		Help: "Requests rejected by rate limiting, by scope.",
	}, []string{"scope"})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "traybill_websocket_connections",
		Help: "Currently open analysis WebSocket connections.",
	})
)

// recordAnalyzeOutcome updates analysis metrics for one request.
func recordAnalyzeOutcome(outcome string, seconds float64, items int) {
	analyzeRequestsTotal.WithLabelValues(outcome).Inc()
	analyzeDuration.Observe(seconds)
	if items >= 0 {
		itemsDetected.Observe(float64(items))
	}
}
