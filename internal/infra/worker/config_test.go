package worker

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	pkgconfig "notify-engine/internal/pkg/config"
)

// Config metrics register with the global Prometheus registry, so the tests
// share a single instance.
var (
	testMetricsOnce sync.Once
	testMetrics     *pkgconfig.ConfigMetrics
)

func configTestMetrics() *pkgconfig.ConfigMetrics {
	testMetricsOnce.Do(func() {
		testMetrics = pkgconfig.NewConfigMetrics("worker_test")
	})
	return testMetrics
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.ScanInterval != 30*time.Second {
		t.Errorf("expected ScanInterval 30s, got %v", config.ScanInterval)
	}
	if config.RetryScanInterval != time.Minute {
		t.Errorf("expected RetryScanInterval 1m, got %v", config.RetryScanInterval)
	}
	if config.ScanBatchSize != 100 {
		t.Errorf("expected ScanBatchSize 100, got %d", config.ScanBatchSize)
	}
	if config.RetryBatchSize != 50 {
		t.Errorf("expected RetryBatchSize 50, got %d", config.RetryBatchSize)
	}
	if config.MaxConcurrent != 10 {
		t.Errorf("expected MaxConcurrent 10, got %d", config.MaxConcurrent)
	}
	if config.MaxRetries != 3 {
		t.Errorf("expected MaxRetries 3, got %d", config.MaxRetries)
	}
	if config.RetryDelay != 5*time.Minute {
		t.Errorf("expected RetryDelay 5m, got %v", config.RetryDelay)
	}
	if config.ProcessTimeout != 30*time.Second {
		t.Errorf("expected ProcessTimeout 30s, got %v", config.ProcessTimeout)
	}
	if config.HealthPort != 9091 {
		t.Errorf("expected HealthPort 9091, got %d", config.HealthPort)
	}
	if config.MetricsPort != 9092 {
		t.Errorf("expected MetricsPort 9092, got %d", config.MetricsPort)
	}
}

func TestDefaultConfig_IsValid(t *testing.T) {
	config := DefaultConfig()
	if err := config.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	config := DefaultConfig()
	config.ScanInterval = 0
	config.MaxConcurrent = 500
	config.HealthPort = 80

	err := config.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"scan interval", "max concurrent", "health port"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected error to mention %q, got %v", want, err)
		}
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	cfg, err := LoadConfigFromEnv(logger, configTestMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *cfg != DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigFromEnv_OverridesFromEnvironment(t *testing.T) {
	t.Setenv("SCAN_INTERVAL", "10s")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY", "2m")
	t.Setenv("WORKER_HEALTH_PORT", "19191")
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	cfg, err := LoadConfigFromEnv(logger, configTestMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ScanInterval != 10*time.Second {
		t.Errorf("expected ScanInterval 10s, got %v", cfg.ScanInterval)
	}
	if cfg.MaxRetries != 5 {
		t.Errorf("expected MaxRetries 5, got %d", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 2*time.Minute {
		t.Errorf("expected RetryDelay 2m, got %v", cfg.RetryDelay)
	}
	if cfg.HealthPort != 19191 {
		t.Errorf("expected HealthPort 19191, got %d", cfg.HealthPort)
	}
}

func TestLoadConfigFromEnv_InvalidValueFallsBackAndWarns(t *testing.T) {
	t.Setenv("SCAN_BATCH_SIZE", "garbage")
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	cfg, err := LoadConfigFromEnv(logger, configTestMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ScanBatchSize != 100 {
		t.Errorf("expected fallback ScanBatchSize 100, got %d", cfg.ScanBatchSize)
	}
	if !strings.Contains(buf.String(), "Configuration fallback applied") {
		t.Error("expected a fallback warning to be logged")
	}
}

func TestLoadConfigFromEnv_OutOfRangeFallsBack(t *testing.T) {
	t.Setenv("PROCESS_TIMEOUT", "2h")
	logger := slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))

	cfg, err := LoadConfigFromEnv(logger, configTestMetrics())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ProcessTimeout != 30*time.Second {
		t.Errorf("expected fallback ProcessTimeout 30s, got %v", cfg.ProcessTimeout)
	}
}
