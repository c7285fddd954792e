package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "venuebook_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuebook_bookings_created_total",
			Help: "Total bookings accepted by the ledger",
		},
	)

	BookingConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuebook_booking_conflicts_total",
			Help: "Total booking requests rejected for slot overlap",
		},
	)

	BookingsCompleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuebook_bookings_completed_total",
			Help: "Total bookings auto-completed by the sweeper",
		},
	)

	OutboxLag = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "venuebook_outbox_lag_seconds",
			Help: "Age of the oldest unpublished outbox record",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "venuebook_rate_limit_exceeded_total",
			Help: "Total requests rejected by the rate limiter",
		},
	)
)
