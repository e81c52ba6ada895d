package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSaved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_saved_total",
			Help: "Total number of notifications saved or updated",
		},
		[]string{"operation"},
	)

	NotificationsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_removed_total",
			Help: "Total number of notifications removed",
		},
	)

	DispatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_runs_total",
			Help: "Total number of fan-out runs executed",
		},
		[]string{"destination"},
	)

	DispatchRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_rejected_total",
			Help: "Total number of fan-out requests rejected by a full queue",
		},
	)

	PushDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_delivered_total",
			Help: "Total number of push messages delivered to sessions",
		},
		[]string{"channel"},
	)

	PushFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_failed_total",
			Help: "Total number of push deliveries that failed",
		},
		[]string{"channel"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dispatch_duration_seconds",
			Help: "Duration of fan-out runs in seconds",
		},
		[]string{"destination"},
	)
)
