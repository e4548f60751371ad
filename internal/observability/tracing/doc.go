// Package tracing provides OpenTelemetry tracing integration.
//
// The dispatcher creates a span per delivery pass, and the HTTP middleware
// traces the operational endpoints (health, metrics). Without a configured
// tracer provider the spans are no-ops, so tracing adds no overhead in
// deployments that do not export traces.
//
// Example usage:
//
//	func processNotification(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "dispatch.process")
//	    defer span.End()
//	    // ... run the delivery pass ...
//	}
package tracing
