package entity

import (
	"time"

	"github.com/google/uuid"
)

// AttemptOutcome is the result of a single channel send attempt.
type AttemptOutcome string

const (
	OutcomeSent   AttemptOutcome = "sent"
	OutcomeFailed AttemptOutcome = "failed"
)

// DeliveryAttempt records one channel-send attempt for a notification.
// Attempts are append-only: they are never updated or deleted, so the full
// delivery history stays queryable for audit. Pass equals the notification's
// retry count at the time of the attempt.
type DeliveryAttempt struct {
	ID             int64
	NotificationID uuid.UUID
	Channel        ChannelKind
	Pass           int
	Outcome        AttemptOutcome
	ProviderRef    *string
	ErrorDetail    *string
	AttemptedAt    time.Time
}

// Succeeded reports whether the attempt delivered.
func (a *DeliveryAttempt) Succeeded() bool {
	return a.Outcome == OutcomeSent
}

// RenderedContent is the output of the Renderer collaborator: a subject and
// body ready for a channel sender.
type RenderedContent struct {
	Subject string
	Body    string
}

// SendResult is what a channel sender reports on success. ProviderRef is an
// opaque reference issued by the provider (message ID, request ID) kept for
// audit.
type SendResult struct {
	ProviderRef string
}
