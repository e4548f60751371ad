package dispatch

import "errors"

// Sentinel errors for dispatch use case operations.
var (
	// ErrNotClaimed indicates that the conditional transition into SENDING
	// changed no row: another worker claimed the notification first. This is
	// the expected outcome of a claim race, not a fault; callers skip the
	// notification and a later scan re-evaluates it if still eligible.
	ErrNotClaimed = errors.New("notification already claimed")

	// ErrEmptyBatch indicates that SubmitBatch was called with no requests.
	ErrEmptyBatch = errors.New("batch contains no requests")
)

// reasonNoEnabledChannel is recorded as last_error when the preference
// intersection leaves nothing to send on. This is a configuration outcome
// and is terminal: the notification is never retried.
const reasonNoEnabledChannel = "no enabled channel"
