// Package postgres implements the repository ports on PostgreSQL through
// database/sql with the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/repository"
)

const notificationColumns = `id, recipient_id, type, requested_channels, priority, template_ref,
data, status, scheduled_for, created_at, sent_at, failed_at, retry_count, last_error, metadata`

type NotificationRepo struct {
	db *sql.DB
}

func NewNotificationRepo(db *sql.DB) repository.NotificationRepository {
	return &NotificationRepo{db: db}
}

func (repo *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	const query = `
INSERT INTO notifications (id, recipient_id, type, requested_channels, priority, template_ref,
                           data, status, scheduled_for, created_at, retry_count, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	channels, err := json.Marshal(n.RequestedChannels)
	if err != nil {
		return fmt.Errorf("Create: marshal channels: %w", err)
	}
	data, err := json.Marshal(n.Data)
	if err != nil {
		return fmt.Errorf("Create: marshal data: %w", err)
	}
	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("Create: marshal metadata: %w", err)
	}

	_, err = repo.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, n.Type, channels, n.Priority, n.TemplateRef,
		data, n.Status, n.ScheduledFor, n.CreatedAt, n.RetryCount, metadata)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *NotificationRepo) Get(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`

	n, err := scanNotification(repo.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("Get: %w", entity.ErrNotFound)
		}
		return nil, fmt.Errorf("Get: %w", err)
	}
	return n, nil
}

// Claim is the duplicate-delivery guard: a single conditional UPDATE judged
// on RowsAffected. Under N concurrent claims on the same id exactly one
// observes a changed row.
func (repo *NotificationRepo) Claim(ctx context.Context, id uuid.UUID, from entity.Status) (bool, error) {
	const query = `UPDATE notifications SET status = $1 WHERE id = $2 AND status = $3`

	res, err := repo.db.ExecContext(ctx, query, entity.StatusSending, id, from)
	if err != nil {
		return false, fmt.Errorf("Claim: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Claim: RowsAffected: %w", err)
	}
	return affected == 1, nil
}

func (repo *NotificationRepo) MarkSent(ctx context.Context, id uuid.UUID, sentAt time.Time) error {
	const query = `UPDATE notifications SET status = $1, sent_at = $2 WHERE id = $3`

	if _, err := repo.db.ExecContext(ctx, query, entity.StatusSent, sentAt, id); err != nil {
		return fmt.Errorf("MarkSent: %w", err)
	}
	return nil
}

func (repo *NotificationRepo) MarkFailed(ctx context.Context, id uuid.UUID, failedAt time.Time, retryCount int, lastError string) error {
	const query = `
UPDATE notifications SET status = $1, failed_at = $2, retry_count = $3, last_error = $4
WHERE id = $5`

	if _, err := repo.db.ExecContext(ctx, query, entity.StatusFailed, failedAt, retryCount, lastError, id); err != nil {
		return fmt.Errorf("MarkFailed: %w", err)
	}
	return nil
}

func (repo *NotificationRepo) Cancel(ctx context.Context, id uuid.UUID) (bool, error) {
	const query = `UPDATE notifications SET status = $1 WHERE id = $2 AND status = $3`

	res, err := repo.db.ExecContext(ctx, query, entity.StatusCancelled, id, entity.StatusScheduled)
	if err != nil {
		return false, fmt.Errorf("Cancel: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Cancel: RowsAffected: %w", err)
	}
	return affected == 1, nil
}

func (repo *NotificationRepo) ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.Notification, error) {
	query := `
SELECT ` + notificationColumns + `
FROM notifications
WHERE status = $1 AND scheduled_for <= $2
ORDER BY scheduled_for ASC
LIMIT $3`

	rows, err := repo.db.QueryContext(ctx, query, entity.StatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("ListDueScheduled: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectNotifications(rows, limit)
}

func (repo *NotificationRepo) ListDueRetries(ctx context.Context, cutoff time.Time, maxRetries int, limit int) ([]*entity.Notification, error) {
	query := `
SELECT ` + notificationColumns + `
FROM notifications
WHERE status = $1 AND retry_count < $2 AND failed_at <= $3
ORDER BY failed_at ASC
LIMIT $4`

	rows, err := repo.db.QueryContext(ctx, query, entity.StatusFailed, maxRetries, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("ListDueRetries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectNotifications(rows, limit)
}

func (repo *NotificationRepo) ListByRecipient(ctx context.Context, recipientID string, filter repository.NotificationFilter) ([]*entity.Notification, error) {
	query := `
SELECT ` + notificationColumns + `
FROM notifications
WHERE recipient_id = $1`
	args := []any{recipientID}

	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListByRecipient: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectNotifications(rows, limit)
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var (
		n                        entity.Notification
		channels, data, metadata []byte
	)
	if err := row.Scan(&n.ID, &n.RecipientID, &n.Type, &channels, &n.Priority, &n.TemplateRef,
		&data, &n.Status, &n.ScheduledFor, &n.CreatedAt, &n.SentAt, &n.FailedAt,
		&n.RetryCount, &n.LastError, &metadata); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(channels, &n.RequestedChannels); err != nil {
		return nil, fmt.Errorf("unmarshal channels: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &n.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &n.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata: %w", err)
		}
	}
	return &n, nil
}

func collectNotifications(rows *sql.Rows, capacity int) ([]*entity.Notification, error) {
	notifications := make([]*entity.Notification, 0, capacity)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("Scan: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}
