package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Library-API Metrics
var (
	// Request counters
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// Request duration histogram
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	// Session lifecycle counters
	SessionsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "sessions_created_total",
			Help:      "Total collaborative sessions created",
		},
	)

	SessionJoinsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "session_joins_total",
			Help:      "Total session join operations",
		},
	)

	FeedItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "feed_items_total",
			Help:      "Total feed items posted, by kind",
		},
		[]string{"kind"},
	)

	// Safety classifier counters
	SafetyChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "safety_checks_total",
			Help:      "Total safety screenings, by verdict",
		},
		[]string{"verdict"},
	)

	// Photo upload counters
	PhotoUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "photo_uploads_total",
			Help:      "Total photo uploads",
		},
		[]string{"content_type", "status"},
	)

	// Expiry sweeper counter
	CardsPurgedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "prompthub",
			Subsystem: "library_api",
			Name:      "cards_purged_total",
			Help:      "Total expired prompt cards removed by the sweeper",
		},
	)
)

// RecordRequest records an HTTP request
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint).Observe(durationSec)
}

// RecordSafetyCheck records a safety screening verdict
func RecordSafetyCheck(safe bool) {
	verdict := "safe"
	if !safe {
		verdict = "unsafe"
	}
	SafetyChecksTotal.WithLabelValues(verdict).Inc()
}

// RecordPhotoUpload records a photo upload attempt
func RecordPhotoUpload(contentType, status string) {
	PhotoUploadsTotal.WithLabelValues(contentType, status).Inc()
}
