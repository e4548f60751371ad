// Package schedule runs the periodic scans that feed the dispatcher: one
// scan promotes due SCHEDULED notifications, the other re-offers FAILED
// notifications whose retry delay has elapsed. Scans only select candidates;
// exclusive ownership is established by the dispatcher's claim, so
// overlapping scans or multiple workers never cause duplicate delivery.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/observability/tracing"
	"notify-engine/internal/resilience/retry"
	"notify-engine/internal/usecase/dispatch"
)

// Store is the slice of the notification repository the scheduler needs.
type Store interface {
	ListDueScheduled(ctx context.Context, now time.Time, limit int) ([]*entity.Notification, error)
	ListDueRetries(ctx context.Context, cutoff time.Time, maxRetries int, limit int) ([]*entity.Notification, error)
}

// Processor runs one delivery pass for a notification. Implemented by the
// dispatch service.
type Processor interface {
	Process(ctx context.Context, id uuid.UUID) error
}

// Config holds the scan cadence and sizing knobs.
type Config struct {
	// ScanInterval is the cadence of the due-scheduled scan.
	ScanInterval time.Duration

	// RetryScanInterval is the cadence of the retry scan.
	RetryScanInterval time.Duration

	// ScanBatchSize caps how many due notifications one scheduled scan picks
	// up. The next scan catches the remainder.
	ScanBatchSize int

	// RetryBatchSize caps how many failed notifications one retry scan picks
	// up.
	RetryBatchSize int

	// MaxConcurrent bounds how many notifications a scan processes in
	// parallel.
	MaxConcurrent int
}

// Scheduler owns the two cron entries and drives batch processing.
type Scheduler struct {
	cron      *cron.Cron
	store     Store
	processor Processor
	policy    retry.Policy
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewScheduler wires a scheduler. Start must be called to begin scanning.
func NewScheduler(store Store, processor Processor, policy retry.Policy, cfg Config, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		store:     store,
		processor: processor,
		policy:    policy,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// Start registers both scan entries and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.ScanInterval), func() {
		s.runScheduledScan(context.Background())
	}); err != nil {
		return fmt.Errorf("add scheduled scan: %w", err)
	}
	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.cfg.RetryScanInterval), func() {
		s.runRetryScan(context.Background())
	}); err != nil {
		return fmt.Errorf("add retry scan: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		slog.Duration("scan_interval", s.cfg.ScanInterval),
		slog.Duration("retry_scan_interval", s.cfg.RetryScanInterval),
		slog.Int("scan_batch_size", s.cfg.ScanBatchSize),
		slog.Int("retry_batch_size", s.cfg.RetryBatchSize),
		slog.Int("max_concurrent", s.cfg.MaxConcurrent))
	return nil
}

// Stop halts scheduling and waits for in-flight scans to finish, up to the
// caller's deadline.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// runScheduledScan promotes due SCHEDULED notifications into processing.
func (s *Scheduler) runScheduledScan(ctx context.Context) {
	ctx, span := tracing.GetTracer().Start(ctx, "schedule.scan_scheduled")
	defer span.End()

	start := time.Now()
	due, err := s.store.ListDueScheduled(ctx, s.now(), s.cfg.ScanBatchSize)
	if err != nil {
		RecordScan(kindScheduled, "failure")
		s.logger.Error("scheduled scan failed", slog.Any("error", err))
		return
	}

	processed, skipped, failed := s.processBatch(ctx, due)
	RecordScan(kindScheduled, "success")
	RecordScanDuration(kindScheduled, time.Since(start))
	if len(due) > 0 {
		s.logger.Info("scheduled scan completed",
			slog.Int("due", len(due)),
			slog.Int("processed", processed),
			slog.Int("skipped", skipped),
			slog.Int("failed", failed),
			slog.Duration("duration", time.Since(start)))
	}
}

// runRetryScan re-offers FAILED notifications whose fixed delay has elapsed
// and whose retry budget is not exhausted.
func (s *Scheduler) runRetryScan(ctx context.Context) {
	ctx, span := tracing.GetTracer().Start(ctx, "schedule.scan_retry")
	defer span.End()

	start := time.Now()
	cutoff := s.now().Add(-s.policy.Delay)
	due, err := s.store.ListDueRetries(ctx, cutoff, s.policy.MaxRetries, s.cfg.RetryBatchSize)
	if err != nil {
		RecordScan(kindRetry, "failure")
		s.logger.Error("retry scan failed", slog.Any("error", err))
		return
	}

	// The store predicate and the policy agree by construction; the explicit
	// re-check keeps a policy change from silently widening the scan.
	eligible := due[:0]
	for _, n := range due {
		if n.FailedAt == nil {
			continue
		}
		if d := s.policy.Evaluate(n.RetryCount, *n.FailedAt); d.Eligible && !d.NotBefore.After(s.now()) {
			eligible = append(eligible, n)
		}
	}

	processed, skipped, failed := s.processBatch(ctx, eligible)
	RecordScan(kindRetry, "success")
	RecordScanDuration(kindRetry, time.Since(start))
	if len(eligible) > 0 {
		s.logger.Info("retry scan completed",
			slog.Int("due", len(eligible)),
			slog.Int("processed", processed),
			slog.Int("skipped", skipped),
			slog.Int("failed", failed),
			slog.Duration("duration", time.Since(start)))
	}
}

// processBatch runs the processor over a batch with bounded parallelism.
// A lost claim is a skip, not a failure: another worker owns that one.
func (s *Scheduler) processBatch(ctx context.Context, batch []*entity.Notification) (processed, skipped, failed int) {
	if len(batch) == 0 {
		return 0, 0, 0
	}

	results := make([]error, len(batch))
	var g errgroup.Group
	g.SetLimit(s.cfg.MaxConcurrent)
	for i, n := range batch {
		i, n := i, n
		g.Go(func() error {
			results[i] = s.processor.Process(ctx, n.ID)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		switch {
		case err == nil:
			processed++
			RecordScanned("processed")
		case errors.Is(err, dispatch.ErrNotClaimed):
			skipped++
			RecordScanned("skipped")
		default:
			failed++
			RecordScanned("failed")
			s.logger.Error("batch processing failed",
				slog.String("id", batch[i].ID.String()),
				slog.Any("error", err))
		}
	}
	return processed, skipped, failed
}
