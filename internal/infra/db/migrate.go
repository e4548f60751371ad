package db

import "database/sql"

// MigrateUp creates the notification engine schema. Statements are
// idempotent so the worker can run them on every start.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS notifications (
    id                 UUID PRIMARY KEY,
    recipient_id       TEXT,
    type               VARCHAR(40) NOT NULL,
    requested_channels JSONB NOT NULL,
    priority           VARCHAR(8) NOT NULL DEFAULT 'normal',
    template_ref       TEXT NOT NULL,
    data               JSONB,
    status             VARCHAR(10) NOT NULL,
    scheduled_for      TIMESTAMPTZ,
    created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
    sent_at            TIMESTAMPTZ,
    failed_at          TIMESTAMPTZ,
    retry_count        INTEGER NOT NULL DEFAULT 0,
    last_error         TEXT,
    metadata           JSONB
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS delivery_attempts (
    id              BIGSERIAL PRIMARY KEY,
    notification_id UUID NOT NULL REFERENCES notifications(id),
    channel         VARCHAR(16) NOT NULL,
    pass            INTEGER NOT NULL,
    outcome         VARCHAR(8) NOT NULL,
    provider_ref    TEXT,
    error_detail    TEXT,
    attempted_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS notification_preferences (
    user_id    TEXT NOT NULL,
    type       VARCHAR(40) NOT NULL,
    channel    VARCHAR(16) NOT NULL,
    enabled    BOOLEAN NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, type, channel)
)`); err != nil {
		return err
	}

	// Partial indexes keep the two scheduler scans cheap even with a large
	// terminal backlog.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_notifications_due_scheduled
		   ON notifications(scheduled_for) WHERE status = 'SCHEDULED'`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_due_retry
		   ON notifications(failed_at) WHERE status = 'FAILED'`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient
		   ON notifications(recipient_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_delivery_attempts_notification
		   ON delivery_attempts(notification_id, attempted_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}
