package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationDuration tracks the latency of core loyalty operations
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "punchcard_operation_duration_seconds",
			Help: "Duration of loyalty operations in seconds",
			Buckets: []float64{
				0.001, // 1ms
				0.005, // 5ms
				0.01,  // 10ms
				0.025, // 25ms
				0.05,  // 50ms
				0.1,   // 100ms
				0.25,  // 250ms
				0.5,   // 500ms
				1.0,   // 1s
				2.5,   // 2.5s
				5.0,   // 5s
			},
		},
		[]string{"operation", "result"}, // join/redeem/issue_stamp, success or error kind
	)

	// StampsConsumed counts stamps deleted by redemptions
	StampsConsumed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "punchcard_stamps_consumed_total",
			Help: "Number of stamps consumed by reward redemptions",
		},
	)

	// NotificationFailures counts notifications the sink failed to deliver
	NotificationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "punchcard_notification_failures_total",
			Help: "Number of notifications that could not be delivered",
		},
		[]string{"kind"},
	)
)

// RecordOperation records the duration of a loyalty operation
func RecordOperation(operation, result string, duration float64) {
	OperationDuration.WithLabelValues(operation, result).Observe(duration)
}

// RecordStampsConsumed adds n consumed stamps
func RecordStampsConsumed(n int) {
	StampsConsumed.Add(float64(n))
}

// RecordNotificationFailure counts one failed notification of the given kind
func RecordNotificationFailure(kind string) {
	NotificationFailures.WithLabelValues(kind).Inc()
}
