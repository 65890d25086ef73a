package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)

	DiscoveryItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pub",
			Subsystem: "discovery",
			Name:      "items_total",
			Help:      "Candidate items kept after filtering, by platform",
		},
		[]string{"platform"},
	)

	DiscoverySourceFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pub",
			Subsystem: "discovery",
			Name:      "source_failures_total",
			Help:      "Discovery source calls that failed and contributed zero items",
		},
		[]string{"platform"},
	)

	PipelineVideos = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pub",
			Subsystem: "pipeline",
			Name:      "videos_total",
			Help:      "Videos handled by pipeline runs, by outcome",
		},
		[]string{"outcome"},
	)

	PublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pub",
			Subsystem: "pipeline",
			Name:      "publishes_total",
			Help:      "Publish attempts by platform and status",
		},
		[]string{"platform", "status"},
	)

	SmartLinkEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pub",
			Subsystem: "smartlinks",
			Name:      "events_total",
			Help:      "SmartLink events (click, email, contact_sync_failed)",
		},
		[]string{"event"},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, route string, status int, durationSec float64) {
	RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	RequestDuration.WithLabelValues(method, route).Observe(durationSec)
}

// RecordPublish records one publish attempt.
func RecordPublish(platform string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	PublishesTotal.WithLabelValues(platform, status).Inc()
}
