package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/infra/adapter/persistence/postgres"
)

func TestPreferenceRepo_Get_ExplicitOnly(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM notification_preferences`).
		WithArgs("user-42", entity.TypeCampaignPublished).
		WillReturnRows(sqlmock.NewRows([]string{"channel", "enabled"}).
			AddRow("email", false).
			AddRow("sms", true))

	repo := postgres.NewPreferenceRepo(db)
	got, err := repo.Get(context.Background(), "user-42", entity.TypeCampaignPublished)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if len(got) != 2 || got[entity.ChannelEmail] || !got[entity.ChannelSMS] {
		t.Fatalf("unexpected preferences: %v", got)
	}
	// No row for push: resolver must fall back to the channel default.
	if _, ok := got[entity.ChannelPush]; ok {
		t.Fatal("push should be absent without an explicit preference")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestPreferenceRepo_Set_Upsert(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	pref := &entity.Preference{
		UserID:    "user-42",
		Type:      entity.TypeRightsExpiring,
		Channel:   entity.ChannelSMS,
		Enabled:   true,
		UpdatedAt: time.Now(),
	}
	mock.ExpectExec(regexp.QuoteMeta(`ON CONFLICT (user_id, type, channel)`)).
		WithArgs(pref.UserID, pref.Type, pref.Channel, pref.Enabled, pref.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := postgres.NewPreferenceRepo(db)
	if err := repo.Set(context.Background(), pref); err != nil {
		t.Fatalf("Set err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
