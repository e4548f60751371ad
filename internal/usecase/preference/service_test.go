package preference

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notify-engine/internal/domain/entity"
)

type mockPreferenceRepo struct {
	explicit map[entity.ChannelKind]bool
	getErr   error
	setCalls []*entity.Preference
	setErr   error
}

func (m *mockPreferenceRepo) Get(_ context.Context, _ string, _ entity.NotificationType) (map[entity.ChannelKind]bool, error) {
	return m.explicit, m.getErr
}

func (m *mockPreferenceRepo) Set(_ context.Context, pref *entity.Preference) error {
	m.setCalls = append(m.setCalls, pref)
	return m.setErr
}

func testLogger() *slog.Logger {
	return slog.Default()
}

func TestResolve_DefaultsWithoutExplicitPreference(t *testing.T) {
	// Arrange: no explicit rows at all.
	svc := NewService(&mockPreferenceRepo{explicit: map[entity.ChannelKind]bool{}}, testLogger())
	recipient := "user-42"

	// Act
	enabled, err := svc.Resolve(context.Background(), &recipient, entity.TypeCampaignPublished,
		[]entity.ChannelKind{entity.ChannelEmail, entity.ChannelSMS, entity.ChannelPush, entity.ChannelWebhook})

	// Assert: opt-out channels pass, opt-in channels are filtered.
	require.NoError(t, err)
	assert.Equal(t, []entity.ChannelKind{entity.ChannelEmail, entity.ChannelPush}, enabled)
}

func TestResolve_ExplicitPreferenceWinsOverDefault(t *testing.T) {
	svc := NewService(&mockPreferenceRepo{explicit: map[entity.ChannelKind]bool{
		entity.ChannelEmail: false, // user opted out of an opt-out channel
		entity.ChannelSMS:   true,  // user opted into an opt-in channel
	}}, testLogger())
	recipient := "user-42"

	enabled, err := svc.Resolve(context.Background(), &recipient, entity.TypePayoutCompleted,
		[]entity.ChannelKind{entity.ChannelEmail, entity.ChannelSMS})

	require.NoError(t, err)
	assert.Equal(t, []entity.ChannelKind{entity.ChannelSMS}, enabled)
}

func TestResolve_EmailAndSMSScenario(t *testing.T) {
	// Requested [EMAIL, SMS], SMS disabled by default, no explicit email
	// preference: only EMAIL survives.
	svc := NewService(&mockPreferenceRepo{explicit: map[entity.ChannelKind]bool{}}, testLogger())
	recipient := "user-42"

	enabled, err := svc.Resolve(context.Background(), &recipient, entity.TypeCreatorInvited,
		[]entity.ChannelKind{entity.ChannelEmail, entity.ChannelSMS})

	require.NoError(t, err)
	assert.Equal(t, []entity.ChannelKind{entity.ChannelEmail}, enabled)
}

func TestResolve_SystemNotificationUsesDefaultsOnly(t *testing.T) {
	repo := &mockPreferenceRepo{getErr: errors.New("store must not be consulted")}
	svc := NewService(repo, testLogger())

	enabled, err := svc.Resolve(context.Background(), nil, entity.TypeSystemAlert,
		[]entity.ChannelKind{entity.ChannelEmail, entity.ChannelWebhook})

	require.NoError(t, err)
	assert.Equal(t, []entity.ChannelKind{entity.ChannelEmail}, enabled)
}

func TestResolve_StoreError(t *testing.T) {
	svc := NewService(&mockPreferenceRepo{getErr: errors.New("connection reset")}, testLogger())
	recipient := "user-42"

	_, err := svc.Resolve(context.Background(), &recipient, entity.TypeSystemAlert,
		[]entity.ChannelKind{entity.ChannelEmail})

	assert.Error(t, err)
}

func TestSet_ValidatesAndPersists(t *testing.T) {
	repo := &mockPreferenceRepo{}
	svc := NewService(repo, testLogger())

	err := svc.Set(context.Background(), "user-42", entity.TypeRightsExpiring, entity.ChannelChat, true)

	require.NoError(t, err)
	require.Len(t, repo.setCalls, 1)
	assert.True(t, repo.setCalls[0].Enabled)
	assert.False(t, repo.setCalls[0].UpdatedAt.IsZero())
}

func TestSet_RejectsUnknownChannel(t *testing.T) {
	repo := &mockPreferenceRepo{}
	svc := NewService(repo, testLogger())

	err := svc.Set(context.Background(), "user-42", entity.TypeRightsExpiring, "pigeon", true)

	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Empty(t, repo.setCalls)
}
