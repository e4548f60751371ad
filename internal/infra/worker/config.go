// Package worker holds the delivery worker's runtime configuration and its
// operational HTTP surface (health probes).
package worker

import (
	"fmt"
	"log/slog"
	"time"

	"notify-engine/internal/pkg/config"
)

// WorkerConfig holds the configuration for the delivery worker: scan
// cadence, batch sizing, retry policy and the operational ports.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have defaults and validation rules so the worker can operate
// safely even with invalid or missing configuration.
type WorkerConfig struct {
	// ScanInterval is the cadence of the due-scheduled scan.
	// Range: 1s-10m. Default: 30s.
	ScanInterval time.Duration

	// RetryScanInterval is the cadence of the retry scan.
	// Range: 1s-10m. Default: 1m.
	RetryScanInterval time.Duration

	// ScanBatchSize caps how many due notifications one scheduled scan picks
	// up. Range: 1-1000. Default: 100.
	ScanBatchSize int

	// RetryBatchSize caps how many failed notifications one retry scan picks
	// up. Range: 1-1000. Default: 50.
	RetryBatchSize int

	// MaxConcurrent bounds parallel notification processing within a scan.
	// Range: 1-50. Default: 10.
	MaxConcurrent int

	// MaxRetries is the number of fully-failed passes after which a
	// notification becomes terminally FAILED. Range: 0-10. Default: 3.
	MaxRetries int

	// RetryDelay is the fixed wait between a failed pass and the next
	// eligible attempt. Range: 1s-24h. Default: 5m.
	RetryDelay time.Duration

	// ProcessTimeout bounds one delivery pass across all channels.
	// Range: 1s-10m. Default: 30s.
	ProcessTimeout time.Duration

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535. Default: 9091.
	HealthPort int

	// MetricsPort is the port for the Prometheus metrics HTTP server.
	// Range: 1024-65535. Default: 9092.
	MetricsPort int
}

// DefaultConfig returns a WorkerConfig with production-ready defaults: scans
// frequent enough that scheduled delivery lands within a minute of its due
// time, and a retry delay long enough for transient provider trouble to
// clear.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		ScanInterval:      30 * time.Second,
		RetryScanInterval: time.Minute,
		ScanBatchSize:     100,
		RetryBatchSize:    50,
		MaxConcurrent:     10,
		MaxRetries:        3,
		RetryDelay:        5 * time.Minute,
		ProcessTimeout:    30 * time.Second,
		HealthPort:        9091,
		MetricsPort:       9092,
	}
}

// Validate checks the configuration values against their documented ranges.
// All violations are collected and returned together.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateDuration(c.ScanInterval, time.Second, 10*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("scan interval: %w", err))
	}
	if err := config.ValidateDuration(c.RetryScanInterval, time.Second, 10*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("retry scan interval: %w", err))
	}
	if err := config.ValidateIntRange(c.ScanBatchSize, 1, 1000); err != nil {
		errors = append(errors, fmt.Errorf("scan batch size: %w", err))
	}
	if err := config.ValidateIntRange(c.RetryBatchSize, 1, 1000); err != nil {
		errors = append(errors, fmt.Errorf("retry batch size: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxConcurrent, 1, 50); err != nil {
		errors = append(errors, fmt.Errorf("max concurrent: %w", err))
	}
	if err := config.ValidateIntRange(c.MaxRetries, 0, 10); err != nil {
		errors = append(errors, fmt.Errorf("max retries: %w", err))
	}
	if err := config.ValidateDuration(c.RetryDelay, time.Second, 24*time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("retry delay: %w", err))
	}
	if err := config.ValidateDuration(c.ProcessTimeout, time.Second, 10*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("process timeout: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("metrics port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to defaults on failure.
//
// This function implements the fail-open strategy: an invalid value logs a
// warning, increments the fallback metrics and falls back to the default.
// It never returns an error; the worker always starts with a valid
// configuration.
//
// Environment variables:
//   - SCAN_INTERVAL: Duration, e.g. "30s" (default: 30s)
//   - RETRY_SCAN_INTERVAL: Duration (default: 1m)
//   - SCAN_BATCH_SIZE: Integer 1-1000 (default: 100)
//   - RETRY_BATCH_SIZE: Integer 1-1000 (default: 50)
//   - MAX_CONCURRENT: Integer 1-50 (default: 10)
//   - MAX_RETRIES: Integer 0-10 (default: 3)
//   - RETRY_DELAY: Duration (default: 5m)
//   - PROCESS_TIMEOUT: Duration (default: 30s)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - WORKER_METRICS_PORT: Integer 1024-65535 (default: 9092)
func LoadConfigFromEnv(logger *slog.Logger, metrics *config.ConfigMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	loadDuration := func(envKey, field string, target *time.Duration, min, max time.Duration) {
		result := config.LoadEnvDuration(envKey, *target, func(d time.Duration) error {
			return config.ValidateDuration(d, min, max)
		})
		*target = result.Value.(time.Duration)
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field)
			for _, warning := range result.Warnings {
				logger.Warn("Configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", warning))
			}
		}
	}

	loadInt := func(envKey, field string, target *int, min, max int) {
		result := config.LoadEnvInt(envKey, *target, func(v int) error {
			return config.ValidateIntRange(v, min, max)
		})
		*target = result.Value.(int)
		if result.FallbackApplied {
			fallbackApplied = true
			metrics.RecordValidationError(field)
			metrics.RecordFallback(field)
			for _, warning := range result.Warnings {
				logger.Warn("Configuration fallback applied",
					slog.String("field", field),
					slog.String("warning", warning))
			}
		}
	}

	loadDuration("SCAN_INTERVAL", "scan_interval", &cfg.ScanInterval, time.Second, 10*time.Minute)
	loadDuration("RETRY_SCAN_INTERVAL", "retry_scan_interval", &cfg.RetryScanInterval, time.Second, 10*time.Minute)
	loadInt("SCAN_BATCH_SIZE", "scan_batch_size", &cfg.ScanBatchSize, 1, 1000)
	loadInt("RETRY_BATCH_SIZE", "retry_batch_size", &cfg.RetryBatchSize, 1, 1000)
	loadInt("MAX_CONCURRENT", "max_concurrent", &cfg.MaxConcurrent, 1, 50)
	loadInt("MAX_RETRIES", "max_retries", &cfg.MaxRetries, 0, 10)
	loadDuration("RETRY_DELAY", "retry_delay", &cfg.RetryDelay, time.Second, 24*time.Hour)
	loadDuration("PROCESS_TIMEOUT", "process_timeout", &cfg.ProcessTimeout, time.Second, 10*time.Minute)
	loadInt("WORKER_HEALTH_PORT", "health_port", &cfg.HealthPort, 1024, 65535)
	loadInt("WORKER_METRICS_PORT", "metrics_port", &cfg.MetricsPort, 1024, 65535)

	metrics.SetFallbackActive(fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return a valid config (fail-open strategy).
	return &cfg, nil
}
