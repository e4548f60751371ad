// Package preference resolves which channels a notification may use for a
// given user and event type, and owns the explicit-preference write path.
package preference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/repository"
)

// Service resolves channel enablement and records explicit user preferences.
type Service interface {
	// Resolve returns the subset of requested channels enabled for the
	// (recipient, type) pair. For each requested channel an explicit
	// preference wins; absent one, the channel default applies (opt-out
	// channels enabled, opt-in channels disabled). System notifications
	// (nil recipient) resolve purely from channel defaults. Pure read,
	// no side effects.
	Resolve(ctx context.Context, recipientID *string, typ entity.NotificationType, requested []entity.ChannelKind) ([]entity.ChannelKind, error)

	// Set upserts one explicit preference. This is the only write path;
	// the dispatcher never mutates preferences.
	Set(ctx context.Context, userID string, typ entity.NotificationType, channel entity.ChannelKind, enabled bool) error
}

type service struct {
	prefs  repository.PreferenceRepository
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a preference service backed by the given store.
func NewService(prefs repository.PreferenceRepository, logger *slog.Logger) Service {
	return &service{
		prefs:  prefs,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve implements Service.Resolve.
func (s *service) Resolve(ctx context.Context, recipientID *string, typ entity.NotificationType, requested []entity.ChannelKind) ([]entity.ChannelKind, error) {
	var explicit map[entity.ChannelKind]bool
	if recipientID != nil && *recipientID != "" {
		var err error
		explicit, err = s.prefs.Get(ctx, *recipientID, typ)
		if err != nil {
			return nil, fmt.Errorf("resolve preferences: %w", err)
		}
	}

	enabled := make([]entity.ChannelKind, 0, len(requested))
	for _, ch := range requested {
		on, ok := explicit[ch]
		if !ok {
			on = ch.DefaultEnabled()
		}
		if on {
			enabled = append(enabled, ch)
		}
	}

	s.logger.Debug("channel preferences resolved",
		slog.String("type", string(typ)),
		slog.Int("requested", len(requested)),
		slog.Int("enabled", len(enabled)))

	return enabled, nil
}

// Set implements Service.Set.
func (s *service) Set(ctx context.Context, userID string, typ entity.NotificationType, channel entity.ChannelKind, enabled bool) error {
	pref := &entity.Preference{
		UserID:    userID,
		Type:      typ,
		Channel:   channel,
		Enabled:   enabled,
		UpdatedAt: s.now(),
	}
	if err := pref.Validate(); err != nil {
		return err
	}
	if err := s.prefs.Set(ctx, pref); err != nil {
		return fmt.Errorf("set preference: %w", err)
	}

	s.logger.Info("preference updated",
		slog.String("user_id", userID),
		slog.String("type", string(typ)),
		slog.String("channel", string(channel)),
		slog.Bool("enabled", enabled))
	return nil
}
