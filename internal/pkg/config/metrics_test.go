package config

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

// Each test uses a distinct component name: promauto registers with the
// default registry and duplicate names panic.

func TestConfigMetrics_RecordValidationError(t *testing.T) {
	m := NewConfigMetrics("testcomp_a")

	m.RecordValidationError("scan_interval")
	m.RecordValidationError("scan_interval")

	assert.Equal(t, float64(2),
		testutil.ToFloat64(m.ValidationErrorsTotal.WithLabelValues("scan_interval")))
}

func TestConfigMetrics_RecordFallback(t *testing.T) {
	m := NewConfigMetrics("testcomp_b")

	m.RecordFallback("max_retries")

	assert.Equal(t, float64(1),
		testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("max_retries")))
}

func TestConfigMetrics_SetFallbackActive(t *testing.T) {
	m := NewConfigMetrics("testcomp_c")

	m.SetFallbackActive(true)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FallbackActive))

	m.SetFallbackActive(false)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.FallbackActive))
}

func TestConfigMetrics_RecordLoadTimestamp(t *testing.T) {
	m := NewConfigMetrics("testcomp_d")

	m.RecordLoadTimestamp()

	assert.Greater(t, testutil.ToFloat64(m.LoadTimestamp), float64(0))
}
