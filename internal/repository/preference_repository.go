package repository

import (
	"context"

	"notify-engine/internal/domain/entity"
)

// PreferenceRepository stores explicit per-user channel preferences.
// A missing row means "apply the channel default", so Get returns only the
// channels the user has explicitly toggled.
type PreferenceRepository interface {
	// Get returns the explicit channel toggles for a (user, type) pair.
	// Channels without an explicit preference are absent from the map.
	Get(ctx context.Context, userID string, typ entity.NotificationType) (map[entity.ChannelKind]bool, error)

	// Set upserts one explicit preference.
	Set(ctx context.Context, pref *entity.Preference) error
}
