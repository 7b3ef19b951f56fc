package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Booking metrics
	BookingsCreated     prometheus.Counter
	BookingConflicts    prometheus.Counter
	StatusTransitions   *prometheus.CounterVec
	ConflictCheckWindow prometheus.Histogram

	// Sync metrics
	SyncPushRecords  *prometheus.CounterVec
	SyncPushFailures *prometheus.CounterVec
	SyncPullLatency  prometheus.Histogram
	SyncPullRecords  prometheus.Counter

	// Database metrics
	DatabaseOperations *prometheus.CounterVec
	DatabaseLatency    *prometheus.HistogramVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		BookingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Total number of appointments created",
		}),
		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_conflicts_total",
			Help:      "Total number of booking requests rejected for interval overlap",
		}),
		StatusTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Total number of appointment status transitions",
		}, []string{"action", "status"}),
		ConflictCheckWindow: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "conflict_candidates",
			Help:      "Number of candidate appointments inspected per conflict check",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
		SyncPushRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_push_records_total",
			Help:      "Total number of records upserted through sync push",
		}, []string{"group"}),
		SyncPushFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_push_failures_total",
			Help:      "Total number of sync push group failures",
		}, []string{"group"}),
		SyncPullLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_pull_duration_seconds",
			Help:      "Time spent serving sync pull requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		SyncPullRecords: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_pull_records_total",
			Help:      "Total number of consultations returned through sync pull",
		}),
		DatabaseOperations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "database_operations_total",
			Help:      "Total number of database operations",
		}, []string{"operation", "status"}),
		DatabaseLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "database_operation_duration_seconds",
			Help:      "Duration of database operations",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"operation"}),
	}
}
