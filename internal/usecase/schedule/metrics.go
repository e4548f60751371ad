package schedule

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	kindScheduled = "scheduled"
	kindRetry     = "retry"
)

// Prometheus metrics for the periodic scans.
var (
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_scans_total",
			Help: "Total number of scan executions",
		},
		[]string{"kind", "result"}, // kind: scheduled|retry, result: success|failure
	)

	scannedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_notifications_scanned_total",
			Help: "Total number of notifications picked up by scans",
		},
		[]string{"outcome"}, // outcome: processed|skipped|failed
	)

	scanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_scan_duration_seconds",
			Help:    "Scan duration in seconds, including batch processing",
			Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 30, 60},
		},
		[]string{"kind"},
	)
)

// RecordScan records one scan execution result.
func RecordScan(kind, result string) {
	scansTotal.WithLabelValues(kind, result).Inc()
}

// RecordScanned records one notification picked up by a scan.
func RecordScanned(outcome string) {
	scannedTotal.WithLabelValues(outcome).Inc()
}

// RecordScanDuration records a scan's wall-clock duration.
func RecordScanDuration(kind string, duration time.Duration) {
	scanDuration.WithLabelValues(kind).Observe(duration.Seconds())
}
