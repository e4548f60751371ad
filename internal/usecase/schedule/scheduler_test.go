package schedule

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/resilience/retry"
	"notify-engine/internal/usecase/dispatch"
)

type fakeStore struct {
	scheduled []*entity.Notification
	retries   []*entity.Notification
	listErr   error

	gotNow        time.Time
	gotCutoff     time.Time
	gotMaxRetries int
	gotLimit      int
}

func (f *fakeStore) ListDueScheduled(_ context.Context, now time.Time, limit int) ([]*entity.Notification, error) {
	f.gotNow = now
	f.gotLimit = limit
	return f.scheduled, f.listErr
}

func (f *fakeStore) ListDueRetries(_ context.Context, cutoff time.Time, maxRetries int, limit int) ([]*entity.Notification, error) {
	f.gotCutoff = cutoff
	f.gotMaxRetries = maxRetries
	f.gotLimit = limit
	return f.retries, f.listErr
}

type fakeProcessor struct {
	mu        sync.Mutex
	processed []uuid.UUID
	errByID   map[uuid.UUID]error
}

func (f *fakeProcessor) Process(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, id)
	return f.errByID[id]
}

func (f *fakeProcessor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.processed)
}

func testScheduler(store Store, processor Processor) *Scheduler {
	return NewScheduler(store, processor, retry.DefaultPolicy(), Config{
		ScanInterval:      30 * time.Second,
		RetryScanInterval: time.Minute,
		ScanBatchSize:     100,
		RetryBatchSize:    50,
		MaxConcurrent:     4,
	}, slog.Default())
}

func failedNotification(retryCount int, failedAt time.Time) *entity.Notification {
	return &entity.Notification{
		ID:         uuid.New(),
		Status:     entity.StatusFailed,
		RetryCount: retryCount,
		FailedAt:   &failedAt,
	}
}

func TestScheduledScan_ProcessesAllDue(t *testing.T) {
	due := []*entity.Notification{
		{ID: uuid.New(), Status: entity.StatusScheduled},
		{ID: uuid.New(), Status: entity.StatusScheduled},
		{ID: uuid.New(), Status: entity.StatusScheduled},
	}
	store := &fakeStore{scheduled: due}
	proc := &fakeProcessor{}
	s := testScheduler(store, proc)

	s.runScheduledScan(context.Background())

	assert.Equal(t, 3, proc.count())
	assert.Equal(t, 100, store.gotLimit)
}

func TestScheduledScan_StoreErrorDoesNotProcess(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	proc := &fakeProcessor{}
	s := testScheduler(store, proc)

	s.runScheduledScan(context.Background())

	assert.Zero(t, proc.count())
}

func TestScheduledScan_LostClaimIsSkipped(t *testing.T) {
	winner := uuid.New()
	loser := uuid.New()
	store := &fakeStore{scheduled: []*entity.Notification{
		{ID: winner, Status: entity.StatusScheduled},
		{ID: loser, Status: entity.StatusScheduled},
	}}
	proc := &fakeProcessor{errByID: map[uuid.UUID]error{loser: dispatch.ErrNotClaimed}}
	s := testScheduler(store, proc)

	processed, skipped, failed := s.processBatch(context.Background(), store.scheduled)

	assert.Equal(t, 1, processed)
	assert.Equal(t, 1, skipped)
	assert.Zero(t, failed)
}

func TestRetryScan_CutoffReflectsPolicyDelay(t *testing.T) {
	store := &fakeStore{}
	s := testScheduler(store, &fakeProcessor{})
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	s.runRetryScan(context.Background())

	assert.Equal(t, frozen.Add(-5*time.Minute), store.gotCutoff)
	assert.Equal(t, 3, store.gotMaxRetries)
	assert.Equal(t, 50, store.gotLimit)
}

func TestRetryScan_FiltersIneligible(t *testing.T) {
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	eligible := failedNotification(1, frozen.Add(-10*time.Minute))
	tooRecent := failedNotification(1, frozen.Add(-time.Minute))
	exhausted := failedNotification(3, frozen.Add(-time.Hour))

	store := &fakeStore{retries: []*entity.Notification{eligible, tooRecent, exhausted}}
	proc := &fakeProcessor{}
	s := testScheduler(store, proc)
	s.now = func() time.Time { return frozen }

	s.runRetryScan(context.Background())

	require.Equal(t, 1, proc.count())
	assert.Equal(t, eligible.ID, proc.processed[0])
}

func TestScheduler_StartStop(t *testing.T) {
	s := testScheduler(&fakeStore{}, &fakeProcessor{})

	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
