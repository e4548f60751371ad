package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/repository"
)

type AttemptRepo struct {
	db *sql.DB
}

func NewAttemptRepo(db *sql.DB) repository.DeliveryAttemptRepository {
	return &AttemptRepo{db: db}
}

// Append inserts one delivery attempt. The table is insert-only; there is no
// update path by design.
func (repo *AttemptRepo) Append(ctx context.Context, attempt *entity.DeliveryAttempt) error {
	const query = `
INSERT INTO delivery_attempts (notification_id, channel, pass, outcome, provider_ref, error_detail, attempted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`

	err := repo.db.QueryRowContext(ctx, query,
		attempt.NotificationID, attempt.Channel, attempt.Pass, attempt.Outcome,
		attempt.ProviderRef, attempt.ErrorDetail, attempt.AttemptedAt).Scan(&attempt.ID)
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (repo *AttemptRepo) ListByNotification(ctx context.Context, notificationID uuid.UUID) ([]*entity.DeliveryAttempt, error) {
	const query = `
SELECT id, notification_id, channel, pass, outcome, provider_ref, error_detail, attempted_at
FROM delivery_attempts
WHERE notification_id = $1
ORDER BY attempted_at DESC, id DESC`

	rows, err := repo.db.QueryContext(ctx, query, notificationID)
	if err != nil {
		return nil, fmt.Errorf("ListByNotification: %w", err)
	}
	defer func() { _ = rows.Close() }()

	attempts := make([]*entity.DeliveryAttempt, 0, 8)
	for rows.Next() {
		var a entity.DeliveryAttempt
		if err := rows.Scan(&a.ID, &a.NotificationID, &a.Channel, &a.Pass, &a.Outcome,
			&a.ProviderRef, &a.ErrorDetail, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("ListByNotification: Scan: %w", err)
		}
		attempts = append(attempts, &a)
	}
	return attempts, rows.Err()
}

func (repo *AttemptRepo) DeliveryCounts(ctx context.Context) ([]repository.DeliveryCount, error) {
	const query = `
SELECT n.type, a.channel, a.outcome, COUNT(*) AS attempts
FROM delivery_attempts a
INNER JOIN notifications n ON a.notification_id = n.id
GROUP BY n.type, a.channel, a.outcome
ORDER BY n.type, a.channel, a.outcome`

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("DeliveryCounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make([]repository.DeliveryCount, 0, 16)
	for rows.Next() {
		var c repository.DeliveryCount
		if err := rows.Scan(&c.Type, &c.Channel, &c.Outcome, &c.Count); err != nil {
			return nil, fmt.Errorf("DeliveryCounts: Scan: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
