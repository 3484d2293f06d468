package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Escrow operations by outcome; result is "ok" or the error code.
	EscrowOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoperise_escrow_operations_total",
			Help: "Escrow operations by operation and result",
		},
		[]string{"op", "result"},
	)

	// Base units moved into (deposit) or out of (withdraw, refund) vaults.
	ValueMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoperise_value_moved_base_units_total",
			Help: "Token base units moved through campaign vaults",
		},
		[]string{"direction"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	EventsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hoperise_events_consumed_total",
			Help: "Escrow events consumed by the activity worker",
		},
		[]string{"type", "status"},
	)

	// Campaigns whose stored accounting disagrees with their contributions.
	ReconcileDrift = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hoperise_reconcile_drift_campaigns",
			Help: "Campaigns found inconsistent by the last reconcile run",
		},
	)
)

func RecordEscrowOperation(op, result string) {
	EscrowOperations.WithLabelValues(op, result).Inc()
}

func RecordValueMoved(direction string, amount uint64) {
	ValueMoved.WithLabelValues(direction).Add(float64(amount))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func IncrementEventConsumed(eventType, status string) {
	EventsConsumed.WithLabelValues(eventType, status).Inc()
}

func SetReconcileDrift(n int) {
	ReconcileDrift.Set(float64(n))
}
