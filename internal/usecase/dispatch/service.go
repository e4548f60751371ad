package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"notify-engine/internal/domain/entity"
	"notify-engine/internal/observability/tracing"
	"notify-engine/internal/repository"
)

// attemptLogTimeout bounds the delivery-log insert so an attempt whose send
// overran the pass deadline is still recorded.
const attemptLogTimeout = 5 * time.Second

// Config holds the dispatcher's delivery policy knobs.
type Config struct {
	// MaxRetries is the number of fully-failed passes after which a
	// notification is terminally FAILED.
	MaxRetries int

	// ProcessTimeout bounds one full pass across all channels. Channels
	// still in flight at the deadline are recorded as failed attempts.
	ProcessTimeout time.Duration
}

// SubmitRequest is the caller-facing shape of a notification submission.
type SubmitRequest struct {
	RecipientID  *string
	Type         entity.NotificationType
	Channels     []entity.ChannelKind
	Priority     entity.Priority
	TemplateRef  string
	Data         map[string]any
	ScheduledFor *time.Time
	Metadata     map[string]string
}

// SubmitReceipt is returned to the caller: the assigned ID and the status
// after intake (and, for immediate submissions, after the inline pass).
type SubmitReceipt struct {
	ID     uuid.UUID
	Status entity.Status
}

// BatchResult is the per-entry outcome of a batch submission. Entries are
// independent: one entry's failure never rolls back another's.
type BatchResult struct {
	ID     uuid.UUID
	Status entity.Status
	Err    error
}

// Service is the delivery orchestrator. It owns the notification lifecycle
// from intake through terminal status.
type Service interface {
	// Submit validates and persists one notification. Immediate requests are
	// processed inline before returning; scheduled requests are left for the
	// scheduler. Only validation and persistence errors are returned;
	// delivery failures surface through the notification status.
	Submit(ctx context.Context, req SubmitRequest) (*SubmitReceipt, error)

	// SubmitBatch creates all entries first, then processes the immediate
	// ones. There is no ordering guarantee between entries and no
	// cross-entry atomicity.
	SubmitBatch(ctx context.Context, reqs []SubmitRequest) ([]BatchResult, error)

	// Cancel transitions a SCHEDULED notification to CANCELLED. Any other
	// status, including an already-cancelled one, yields an
	// *entity.InvalidStateError.
	Cancel(ctx context.Context, id uuid.UUID) error

	// Process runs one delivery pass for the notification: claim, resolve
	// enabled channels, fan out sends, log attempts, aggregate. A lost claim
	// race returns ErrNotClaimed; the caller skips the notification.
	Process(ctx context.Context, id uuid.UUID) error

	// Status returns the notification by ID for callers polling outcomes.
	Status(ctx context.Context, id uuid.UUID) (*entity.Notification, error)

	// Attempts returns the delivery log for a notification, newest first.
	Attempts(ctx context.Context, id uuid.UUID) ([]*entity.DeliveryAttempt, error)

	// ListByRecipient returns a recipient's notifications with optional
	// status/type filters.
	ListByRecipient(ctx context.Context, recipientID string, filter repository.NotificationFilter) ([]*entity.Notification, error)

	// DeliveryCounts returns per-type/per-channel attempt aggregates for
	// operational tooling.
	DeliveryCounts(ctx context.Context) ([]repository.DeliveryCount, error)
}

type service struct {
	notifications repository.NotificationRepository
	attempts      repository.DeliveryAttemptRepository
	resolver      PreferenceResolver
	renderer      Renderer
	senders       *SenderRegistry
	cfg           Config
	logger        *slog.Logger
	now           func() time.Time
}

// NewService wires the dispatcher from its collaborators. All dependencies
// are explicit; the service holds no ambient global state.
func NewService(
	notifications repository.NotificationRepository,
	attempts repository.DeliveryAttemptRepository,
	resolver PreferenceResolver,
	renderer Renderer,
	senders *SenderRegistry,
	cfg Config,
	logger *slog.Logger,
) Service {
	return &service{
		notifications: notifications,
		attempts:      attempts,
		resolver:      resolver,
		renderer:      renderer,
		senders:       senders,
		cfg:           cfg,
		logger:        logger,
		now:           time.Now,
	}
}

// Submit implements Service.Submit.
func (s *service) Submit(ctx context.Context, req SubmitRequest) (*SubmitReceipt, error) {
	n := s.buildNotification(req)
	if err := n.Validate(); err != nil {
		RecordSubmission("rejected")
		return nil, err
	}

	if err := s.notifications.Create(ctx, n); err != nil {
		RecordSubmission("rejected")
		return nil, fmt.Errorf("create notification: %w", err)
	}

	if n.Status == entity.StatusScheduled {
		RecordSubmission("scheduled")
		s.logger.Info("notification scheduled",
			slog.String("id", n.ID.String()),
			slog.String("type", string(n.Type)),
			slog.Time("scheduled_for", *n.ScheduledFor))
		return &SubmitReceipt{ID: n.ID, Status: n.Status}, nil
	}

	RecordSubmission("accepted")
	if err := s.Process(ctx, n.ID); err != nil && !errors.Is(err, ErrNotClaimed) {
		// Delivery outcome reaches the caller through the status query, not
		// through the submit error.
		s.logger.Error("inline processing failed",
			slog.String("id", n.ID.String()),
			slog.Any("error", err))
	}

	if updated, err := s.notifications.Get(ctx, n.ID); err == nil {
		return &SubmitReceipt{ID: n.ID, Status: updated.Status}, nil
	}
	return &SubmitReceipt{ID: n.ID, Status: n.Status}, nil
}

// SubmitBatch implements Service.SubmitBatch.
func (s *service) SubmitBatch(ctx context.Context, reqs []SubmitRequest) ([]BatchResult, error) {
	if len(reqs) == 0 {
		return nil, ErrEmptyBatch
	}

	results := make([]BatchResult, len(reqs))
	created := make([]*entity.Notification, len(reqs))

	// Create every row first so creation failures stay independent.
	for i, req := range reqs {
		n := s.buildNotification(req)
		if err := n.Validate(); err != nil {
			RecordSubmission("rejected")
			results[i] = BatchResult{Err: err}
			continue
		}
		if err := s.notifications.Create(ctx, n); err != nil {
			RecordSubmission("rejected")
			results[i] = BatchResult{Err: fmt.Errorf("create notification: %w", err)}
			continue
		}
		created[i] = n
		results[i] = BatchResult{ID: n.ID, Status: n.Status}
		if n.Status == entity.StatusScheduled {
			RecordSubmission("scheduled")
		} else {
			RecordSubmission("accepted")
		}
	}

	// Then process the immediate entries.
	for i, n := range created {
		if n == nil || n.Status != entity.StatusPending {
			continue
		}
		if err := s.Process(ctx, n.ID); err != nil && !errors.Is(err, ErrNotClaimed) {
			s.logger.Error("batch entry processing failed",
				slog.String("id", n.ID.String()),
				slog.Any("error", err))
		}
		if updated, err := s.notifications.Get(ctx, n.ID); err == nil {
			results[i].Status = updated.Status
		}
	}

	return results, nil
}

// Cancel implements Service.Cancel.
func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return err
	}
	if n.Status != entity.StatusScheduled {
		return &entity.InvalidStateError{ID: id, From: n.Status, To: entity.StatusCancelled}
	}

	ok, err := s.notifications.Cancel(ctx, id)
	if err != nil {
		return fmt.Errorf("cancel notification: %w", err)
	}
	if !ok {
		// Lost the race against a claim or a concurrent cancel.
		from := entity.StatusSending
		if latest, lerr := s.notifications.Get(ctx, id); lerr == nil {
			from = latest.Status
		}
		return &entity.InvalidStateError{ID: id, From: from, To: entity.StatusCancelled}
	}

	s.logger.Info("notification cancelled", slog.String("id", id.String()))
	return nil
}

// Process implements Service.Process.
func (s *service) Process(ctx context.Context, id uuid.UUID) error {
	ctx, span := tracing.GetTracer().Start(ctx, "dispatch.process")
	defer span.End()

	start := time.Now()
	defer func() { RecordProcessDuration(time.Since(start)) }()

	n, err := s.notifications.Get(ctx, id)
	if err != nil {
		return err
	}
	if !n.Status.Claimable() {
		return &entity.InvalidStateError{ID: id, From: n.Status, To: entity.StatusSending}
	}

	claimed, err := s.notifications.Claim(ctx, id, n.Status)
	if err != nil {
		return fmt.Errorf("claim: %w", err)
	}
	if !claimed {
		RecordClaim("lost")
		return ErrNotClaimed
	}
	RecordClaim("won")

	pass := n.RetryCount
	enabled, err := s.resolver.Resolve(ctx, n.RecipientID, n.Type, n.RequestedChannels)
	if err != nil {
		// Preference store trouble is transient: fail the pass and let the
		// retry scan re-offer the notification.
		return s.finalizeFailed(ctx, n, pass, "resolve preferences: "+err.Error())
	}
	if len(enabled) == 0 {
		// Configuration outcome, not a transient fault: terminal, never
		// retried. Exhausting the retry budget keeps it out of every scan.
		if err := s.notifications.MarkFailed(ctx, id, s.now(), s.cfg.MaxRetries, reasonNoEnabledChannel); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		RecordFinalized("failed_terminal")
		s.logger.Warn("no enabled channel for notification",
			slog.String("id", id.String()),
			slog.String("type", string(n.Type)))
		return nil
	}

	s.logger.Info("delivery pass started",
		slog.String("id", id.String()),
		slog.String("type", string(n.Type)),
		slog.Int("pass", pass),
		slog.Int("channels", len(enabled)))

	results := s.fanOut(ctx, n, enabled, pass)

	anySuccess := false
	failures := make([]string, 0, len(results))
	for _, r := range results {
		if r.ok {
			anySuccess = true
		} else {
			failures = append(failures, string(r.channel)+": "+r.errMsg)
		}
	}

	// Aggregation rule: one successful channel makes the pass SENT. Failed
	// siblings within a successful pass are not retried individually, since
	// a re-pass would duplicate delivery on the channels that succeeded.
	if anySuccess {
		if err := s.notifications.MarkSent(ctx, id, s.now()); err != nil {
			return fmt.Errorf("mark sent: %w", err)
		}
		RecordFinalized("sent")
		s.logger.Info("notification sent",
			slog.String("id", id.String()),
			slog.Int("pass", pass),
			slog.Int("failed_channels", len(failures)))
		return nil
	}

	return s.finalizeFailed(ctx, n, pass, strings.Join(failures, "; "))
}

// Status implements Service.Status.
func (s *service) Status(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	return s.notifications.Get(ctx, id)
}

// Attempts implements Service.Attempts.
func (s *service) Attempts(ctx context.Context, id uuid.UUID) ([]*entity.DeliveryAttempt, error) {
	return s.attempts.ListByNotification(ctx, id)
}

// ListByRecipient implements Service.ListByRecipient.
func (s *service) ListByRecipient(ctx context.Context, recipientID string, filter repository.NotificationFilter) ([]*entity.Notification, error) {
	return s.notifications.ListByRecipient(ctx, recipientID, filter)
}

// DeliveryCounts implements Service.DeliveryCounts.
func (s *service) DeliveryCounts(ctx context.Context) ([]repository.DeliveryCount, error) {
	return s.attempts.DeliveryCounts(ctx)
}

func (s *service) buildNotification(req SubmitRequest) *entity.Notification {
	priority := req.Priority
	if priority == "" {
		priority = entity.PriorityNormal
	}
	status := entity.StatusPending
	if req.ScheduledFor != nil {
		status = entity.StatusScheduled
	}
	return &entity.Notification{
		ID:                uuid.New(),
		RecipientID:       req.RecipientID,
		Type:              req.Type,
		RequestedChannels: req.Channels,
		Priority:          priority,
		TemplateRef:       req.TemplateRef,
		Data:              req.Data,
		Status:            status,
		ScheduledFor:      req.ScheduledFor,
		CreatedAt:         s.now(),
		Metadata:          req.Metadata,
	}
}

type attemptResult struct {
	channel entity.ChannelKind
	ok      bool
	errMsg  string
}

// fanOut runs one attempt per enabled channel concurrently and joins them
// before aggregation. Channels share no mutable state; a slow or failing
// channel never blocks its siblings, and the pass deadline bounds the whole
// fan-out.
func (s *service) fanOut(ctx context.Context, n *entity.Notification, enabled []entity.ChannelKind, pass int) []attemptResult {
	passCtx, cancel := context.WithTimeout(ctx, s.cfg.ProcessTimeout)
	defer cancel()

	results := make([]attemptResult, len(enabled))
	var g errgroup.Group
	for i, ch := range enabled {
		i, ch := i, ch
		g.Go(func() error {
			results[i] = s.attemptChannel(passCtx, n, ch, pass)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// attemptChannel performs one channel send and appends its delivery-log
// entry. All failures are absorbed into the result; nothing propagates.
func (s *service) attemptChannel(ctx context.Context, n *entity.Notification, ch entity.ChannelKind, pass int) attemptResult {
	RecordDispatch(string(ch))
	start := time.Now()

	res := attemptResult{channel: ch}
	outcome := entity.OutcomeFailed
	var providerRef, errDetail *string

	content, err := s.renderer.Render(n.TemplateRef, n.Data)
	if err != nil {
		msg := err.Error()
		errDetail, res.errMsg = &msg, msg
	} else if sender, ok := s.senders.Lookup(ch); !ok {
		msg := "no sender registered for channel"
		errDetail, res.errMsg = &msg, msg
	} else if sendRes, err := sender.Send(ctx, n.TargetFor(ch), content); err != nil {
		msg := err.Error()
		errDetail, res.errMsg = &msg, msg
	} else {
		outcome = entity.OutcomeSent
		res.ok = true
		if sendRes.ProviderRef != "" {
			providerRef = &sendRes.ProviderRef
		}
	}

	duration := time.Since(start)
	RecordAttempt(string(ch), string(outcome), duration)

	attempt := &entity.DeliveryAttempt{
		NotificationID: n.ID,
		Channel:        ch,
		Pass:           pass,
		Outcome:        outcome,
		ProviderRef:    providerRef,
		ErrorDetail:    errDetail,
		AttemptedAt:    s.now(),
	}
	// The log write gets its own deadline: a send that blew the pass budget
	// must still leave an audit trail.
	logCtx, cancelLog := context.WithTimeout(context.WithoutCancel(ctx), attemptLogTimeout)
	defer cancelLog()
	if err := s.attempts.Append(logCtx, attempt); err != nil {
		s.logger.Error("failed to append delivery attempt",
			slog.String("id", n.ID.String()),
			slog.String("channel", string(ch)),
			slog.Any("error", err))
	}

	if res.ok {
		s.logger.Info("channel delivery succeeded",
			slog.String("id", n.ID.String()),
			slog.String("channel", string(ch)),
			slog.Duration("send_duration", duration))
	} else {
		s.logger.Warn("channel delivery failed",
			slog.String("id", n.ID.String()),
			slog.String("channel", string(ch)),
			slog.Duration("send_duration", duration),
			slog.String("error", res.errMsg))
	}
	return res
}

// finalizeFailed records a fully-failed pass: retryCount increments here and
// only here. Reaching the retry budget makes the failure terminal.
func (s *service) finalizeFailed(ctx context.Context, n *entity.Notification, pass int, reason string) error {
	retryCount := pass + 1
	if err := s.notifications.MarkFailed(ctx, n.ID, s.now(), retryCount, reason); err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}

	status := "failed"
	if retryCount >= s.cfg.MaxRetries {
		status = "failed_terminal"
	}
	RecordFinalized(status)

	s.logger.Warn("delivery pass failed",
		slog.String("id", n.ID.String()),
		slog.Int("retry_count", retryCount),
		slog.Int("max_retries", s.cfg.MaxRetries),
		slog.Bool("terminal", retryCount >= s.cfg.MaxRetries),
		slog.String("error", reason))
	return nil
}
