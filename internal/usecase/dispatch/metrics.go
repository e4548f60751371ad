package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the delivery engine.
var (
	// submissionsTotal tracks submit results.
	submissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_submissions_total",
			Help: "Total number of notification submissions",
		},
		[]string{"result"}, // result: accepted|scheduled|rejected
	)

	// dispatchedTotal tracks channel attempts started.
	dispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatched_total",
			Help: "Total number of channel sends dispatched",
		},
		[]string{"channel"},
	)

	// attemptsTotal tracks channel attempt outcomes.
	attemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_attempts_total",
			Help: "Total number of channel delivery attempts",
		},
		[]string{"channel", "outcome"}, // outcome: sent|failed
	)

	// attemptDuration tracks per-channel send duration.
	attemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_attempt_duration_seconds",
			Help:    "Channel send duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"channel"},
	)

	// claimsTotal tracks claim race outcomes.
	claimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_claims_total",
			Help: "Total number of claim attempts",
		},
		[]string{"result"}, // result: won|lost
	)

	// finalizedTotal tracks pass outcomes at notification granularity.
	finalizedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_finalized_total",
			Help: "Total number of delivery passes finalized",
		},
		[]string{"status"}, // status: sent|failed|failed_terminal
	)

	// processDuration tracks full-pass duration across all channels.
	processDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "notification_process_duration_seconds",
			Help:    "Duration of one full delivery pass in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

// RecordSubmission records a submit result (accepted, scheduled, rejected).
func RecordSubmission(result string) {
	submissionsTotal.WithLabelValues(result).Inc()
}

// RecordDispatch records a channel send about to start.
func RecordDispatch(channel string) {
	dispatchedTotal.WithLabelValues(channel).Inc()
}

// RecordAttempt records one channel attempt outcome and its duration.
func RecordAttempt(channel, outcome string, duration time.Duration) {
	attemptsTotal.WithLabelValues(channel, outcome).Inc()
	attemptDuration.WithLabelValues(channel).Observe(duration.Seconds())
}

// RecordClaim records a claim race outcome (won, lost).
func RecordClaim(result string) {
	claimsTotal.WithLabelValues(result).Inc()
}

// RecordFinalized records a finalized pass (sent, failed, failed_terminal).
func RecordFinalized(status string) {
	finalizedTotal.WithLabelValues(status).Inc()
}

// RecordProcessDuration records the duration of one full pass.
func RecordProcessDuration(duration time.Duration) {
	processDuration.Observe(duration.Seconds())
}
