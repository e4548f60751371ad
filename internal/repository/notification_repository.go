// Package repository defines the persistence ports of the notification
// engine. Implementations live under internal/infra/adapter/persistence.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"notify-engine/internal/domain/entity"
)

// NotificationFilter narrows recipient-scoped listings.
type NotificationFilter struct {
	Status *entity.Status           // Optional: filter by lifecycle status
	Type   *entity.NotificationType // Optional: filter by business event type
	Limit  int                      // 0 means the repository default
}

type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
	Get(ctx context.Context, id uuid.UUID) (*entity.Notification, error)

	// Claim atomically transitions the notification from the expected status
	// into SENDING. It must be implemented as a single conditional update
	// ("set status where id and status match") judged on the number of rows
	// changed; a read-then-write here is a duplicate-send race. Returns false
	// when the claim was lost to a concurrent worker, which is not an error.
	Claim(ctx context.Context, id uuid.UUID, from entity.Status) (bool, error)

	// MarkSent finalizes a delivery pass in which at least one channel
	// succeeded. The retry count is left untouched.
	MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error

	// MarkFailed finalizes a fully-failed pass, recording the new retry
	// count and the last error for later scans and operator inspection.
	MarkFailed(ctx context.Context, id uuid.UUID, failedAt time.Time, retryCount int, lastError string) error

	// Cancel transitions SCHEDULED into CANCELLED as a conditional update.
	// Returns false if the notification was no longer SCHEDULED.
	Cancel(ctx context.Context, id uuid.UUID) (bool, error)

	// ListDueScheduled returns at most limit SCHEDULED notifications whose
	// scheduled_for is at or before now, oldest first.
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.Notification, error)

	// ListDueRetries returns at most limit FAILED notifications that have
	// retries left and failed at or before the cutoff, oldest failure first.
	ListDueRetries(ctx context.Context, cutoff time.Time, maxRetries int, limit int) ([]*entity.Notification, error)

	// ListByRecipient returns a recipient's notifications, newest first.
	ListByRecipient(ctx context.Context, recipientID string, filter NotificationFilter) ([]*entity.Notification, error)
}
