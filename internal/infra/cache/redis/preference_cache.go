// Package redis provides a read-through cache over the preference store.
// Preferences are read on every delivery pass but change rarely, so a short
// TTL takes most reads off the database. Cache trouble is never fatal: every
// redis error falls through to the underlying store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/repository"
)

// PreferenceCache decorates a PreferenceRepository with a redis cache.
type PreferenceCache struct {
	inner  repository.PreferenceRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewPreferenceCache wraps the given repository. The TTL bounds staleness
// after out-of-band preference edits; Set invalidates its own key directly.
func NewPreferenceCache(inner repository.PreferenceRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *PreferenceCache {
	return &PreferenceCache{inner: inner, client: client, ttl: ttl, logger: logger}
}

func cacheKey(userID string, typ entity.NotificationType) string {
	return fmt.Sprintf("notify:pref:%s:%s", userID, typ)
}

// Get returns the explicit preference map for a user and event type,
// consulting the cache first.
func (c *PreferenceCache) Get(ctx context.Context, userID string, typ entity.NotificationType) (map[entity.ChannelKind]bool, error) {
	key := cacheKey(userID, typ)

	val, err := c.client.Get(ctx, key).Result()
	if err == nil {
		var cached map[entity.ChannelKind]bool
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.logger.Warn("preference cache read failed",
			slog.String("key", key),
			slog.Any("error", err))
	}

	prefs, err := c.inner.Get(ctx, userID, typ)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(prefs); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			c.logger.Warn("preference cache write failed",
				slog.String("key", key),
				slog.Any("error", err))
		}
	}
	return prefs, nil
}

// Set writes through to the store and invalidates the cached entry.
func (c *PreferenceCache) Set(ctx context.Context, pref *entity.Preference) error {
	if err := c.inner.Set(ctx, pref); err != nil {
		return err
	}

	key := cacheKey(pref.UserID, pref.Type)
	if err := c.client.Del(ctx, key).Err(); err != nil {
		// Stale reads end at the TTL; the write itself already succeeded.
		c.logger.Warn("preference cache invalidation failed",
			slog.String("key", key),
			slog.Any("error", err))
	}
	return nil
}
