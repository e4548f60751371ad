package repository

import (
	"context"

	"github.com/google/uuid"

	"notify-engine/internal/domain/entity"
)

// DeliveryCount is an aggregate row for the observability surface:
// how many attempts a (type, channel, outcome) combination has produced.
type DeliveryCount struct {
	Type    entity.NotificationType
	Channel entity.ChannelKind
	Outcome entity.AttemptOutcome
	Count   int64
}

// DeliveryAttemptRepository is the append-only delivery log. Attempts are
// never updated or deleted; the audit history of every pass is preserved.
type DeliveryAttemptRepository interface {
	Append(ctx context.Context, attempt *entity.DeliveryAttempt) error

	// ListByNotification returns every attempt for a notification,
	// most recent first.
	ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]*entity.DeliveryAttempt, error)

	// DeliveryCounts aggregates attempts per notification type, channel and
	// outcome for the operational counters surface.
	DeliveryCounts(ctx context.Context) ([]DeliveryCount, error)
}
