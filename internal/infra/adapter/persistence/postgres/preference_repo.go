package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/repository"
)

type PreferenceRepo struct {
	db *sql.DB
}

func NewPreferenceRepo(db *sql.DB) repository.PreferenceRepository {
	return &PreferenceRepo{db: db}
}

// Get returns only explicit toggles; channels without a row are absent from
// the map so the resolver can fall back to channel defaults.
func (repo *PreferenceRepo) Get(ctx context.Context, userID string, typ entity.NotificationType) (map[entity.ChannelKind]bool, error) {
	const query = `
SELECT channel, enabled
FROM notification_preferences
WHERE user_id = $1 AND type = $2`

	rows, err := repo.db.QueryContext(ctx, query, userID, typ)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	defer func() { _ = rows.Close() }()

	prefs := make(map[entity.ChannelKind]bool)
	for rows.Next() {
		var (
			channel entity.ChannelKind
			enabled bool
		)
		if err := rows.Scan(&channel, &enabled); err != nil {
			return nil, fmt.Errorf("Get: Scan: %w", err)
		}
		prefs[channel] = enabled
	}
	return prefs, rows.Err()
}

func (repo *PreferenceRepo) Set(ctx context.Context, pref *entity.Preference) error {
	const query = `
INSERT INTO notification_preferences (user_id, type, channel, enabled, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (user_id, type, channel)
DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`

	if _, err := repo.db.ExecContext(ctx, query,
		pref.UserID, pref.Type, pref.Channel, pref.Enabled, pref.UpdatedAt); err != nil {
		return fmt.Errorf("Set: %w", err)
	}
	return nil
}
