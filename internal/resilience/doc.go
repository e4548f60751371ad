// Package resilience provides reliability patterns for the delivery pipeline.
//
// The retry subpackage holds the scheduled-pass retry policy: a failed
// notification is not retried in-process but re-offered by the periodic
// retry scan once its delay has elapsed, until the retry budget is spent.
//
// Circuit breaking for outbound channel calls uses sony/gobreaker directly
// at the sender level.
//
// Usage Example:
//
//	policy := retry.DefaultPolicy()
//	d := policy.Evaluate(n.RetryCount, *n.FailedAt)
//	if d.Eligible && !d.NotBefore.After(time.Now()) {
//	    // re-offer the notification to the dispatcher
//	}
package resilience
