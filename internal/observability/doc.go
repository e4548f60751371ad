// Package observability provides production-grade observability infrastructure
// including structured logging and OpenTelemetry tracing.
//
// This package centralizes observability concerns to enable:
//   - Tracing delivery passes across service boundaries
//   - Structured logging with context propagation
//   - Correlating log lines by notification ID
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - tracing: OpenTelemetry tracing integration
//
// Prometheus metrics are defined next to the code they measure (dispatch,
// schedule, config) rather than in a central registry.
//
// Example usage:
//
//	import "notify-engine/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started")
//	}
package observability
