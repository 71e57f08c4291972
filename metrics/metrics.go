// Package metrics exposes Prometheus collectors for the HTTP layer and the
// playlist engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listen80_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listen80_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "listen80_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Playlist engine metrics
var (
	// ListingEntriesDropped counts candidates removed from a listing because
	// they were hidden or had vanished.
	ListingEntriesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listen80_listing_entries_dropped_total",
			Help: "Playlist candidates dropped from listings",
		},
		[]string{"listing"},
	)

	ListingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "listen80_listing_duration_seconds",
			Help:    "Time spent composing a playlist listing",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"listing"},
	)

	PlaylistMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listen80_playlist_mutations_total",
			Help: "Playlist mutations by operation and outcome",
		},
		[]string{"operation", "status"},
	)
)

// Session metrics
var (
	SessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listen80_sessions_created_total",
			Help: "Sessions issued by signup and login",
		},
	)

	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "listen80_auth_failures_total",
			Help: "Rejected logins and session lookups",
		},
		[]string{"reason"},
	)
)

// ObserveMutation records the outcome of one playlist mutation.
func ObserveMutation(operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	PlaylistMutationsTotal.WithLabelValues(operation, status).Inc()
}
