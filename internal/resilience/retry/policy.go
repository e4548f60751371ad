// Package retry provides the retry policy for failed notification passes.
// The policy is a pure function of the notification's retry accounting and
// the configured delay; it performs no I/O and holds no state.
package retry

import "time"

// Policy decides whether a failed notification is eligible for another
// delivery pass. The delay is fixed: every retry waits the same configured
// interval from the most recent failure. Exhaustion is terminal; exhausted
// notifications must never be selected by a scan again.
type Policy struct {
	// MaxRetries is the number of failed passes after which a notification
	// becomes terminally FAILED.
	MaxRetries int

	// Delay is the fixed wait between a failure and the next eligible
	// attempt.
	Delay time.Duration
}

// Decision is the outcome of evaluating a failed notification.
type Decision struct {
	// Eligible is true when retries remain.
	Eligible bool

	// NotBefore is the earliest instant the next attempt may run. Zero when
	// not eligible. NotBefore strictly increases across passes because it is
	// anchored on the most recent failure time.
	NotBefore time.Time
}

// DefaultPolicy mirrors the engine's configuration defaults.
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, Delay: 5 * time.Minute}
}

// Evaluate maps (retryCount, failedAt) to a retry decision.
func (p Policy) Evaluate(retryCount int, failedAt time.Time) Decision {
	if p.Exhausted(retryCount) {
		return Decision{}
	}
	return Decision{
		Eligible:  true,
		NotBefore: failedAt.Add(p.Delay),
	}
}

// Exhausted reports whether the retry budget is spent.
func (p Policy) Exhausted(retryCount int) bool {
	return retryCount >= p.MaxRetries
}
