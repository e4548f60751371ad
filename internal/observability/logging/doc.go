// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Notification ID propagation
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "notify-engine/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("worker started", slog.String("version", "1.0"))
//	}
//
//	func processNotification(logger *slog.Logger, id string) {
//	    logger = logging.WithNotification(logger, id)
//	    logger.Info("delivery pass started")
//	}
package logging
