// Package executor runs claimed schedules through their platform
// adapter and records the outcome.
package executor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"postplane/internal/platform"
	"postplane/internal/store"
)

// Store is the subset of the database layer the executor needs.
type Store interface {
	GetScheduleByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error)
	GetPostByID(ctx context.Context, id uuid.UUID) (*store.Post, error)
	GetCredential(ctx context.Context, userID uuid.UUID, platform store.Platform) (*store.Credential, error)
	ClaimSchedule(ctx context.Context, scheduleID uuid.UUID) (bool, error)
	CompleteSchedule(ctx context.Context, scheduleID uuid.UUID, platformPostID string, executedAt time.Time) error
	FailSchedule(ctx context.Context, scheduleID uuid.UUID, reason string, executedAt time.Time) error
	ReleaseSchedule(ctx context.Context, scheduleID uuid.UUID, visibleAfter time.Time) error
}

// Config controls retry and timeout behavior.
type Config struct {
	// MaxAttempts is the total attempt budget per schedule, the first
	// execution included.
	MaxAttempts int

	// PublishTimeout bounds one adapter publish call.
	PublishTimeout time.Duration

	// RetryBackoffBase is the backoff unit for transient failures.
	RetryBackoffBase time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      5,
		PublishTimeout:   30 * time.Second,
		RetryBackoffBase: time.Minute,
	}
}

const maxBackoff = 30 * time.Minute

// Executor publishes one claimed schedule at a time. It is safe for
// concurrent use; the claim step in the store serializes conflicting
// callers.
type Executor struct {
	store    Store
	adapters *platform.Registry
	cfg      Config
	log      *slog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// New creates an executor.
func New(s Store, adapters *platform.Registry, cfg Config, log *slog.Logger) *Executor {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	if cfg.PublishTimeout <= 0 {
		cfg.PublishTimeout = DefaultConfig().PublishTimeout
	}
	if cfg.RetryBackoffBase <= 0 {
		cfg.RetryBackoffBase = DefaultConfig().RetryBackoffBase
	}
	return &Executor{
		store:    s,
		adapters: adapters,
		cfg:      cfg,
		log:      log,
		tracer:   otel.Tracer("postplane/executor"),
		now:      time.Now,
	}
}

// Execute runs one schedule to an outcome, winning the claim first.
// The claim accepts pending due schedules and claimed ones whose claim
// expired; a claim held live by another worker makes this call a no-op,
// so a manual execution can never race a poller-owned publish of the
// same schedule. The returned bool reports whether a publish attempt
// actually ran.
func (e *Executor) Execute(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	ctx, span := e.tracer.Start(ctx, "executor.Execute",
		trace.WithAttributes(attribute.String("schedule.id", scheduleID.String())),
	)
	defer span.End()

	sched, err := e.store.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("load schedule: %w", err)
	}

	if sched.Status.Terminal() {
		e.log.Debug("schedule already terminal", "schedule_id", scheduleID, "status", sched.Status)
		return false, nil
	}

	claimed, err := e.store.ClaimSchedule(ctx, scheduleID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return false, fmt.Errorf("claim schedule: %w", err)
	}
	if !claimed {
		e.log.Debug("schedule not claimable", "schedule_id", scheduleID, "status", sched.Status)
		return false, nil
	}
	// The claim update incremented the attempt counter.
	sched.Attempt++

	span.SetAttributes(
		attribute.String("schedule.platform", string(sched.Platform)),
		attribute.Int("schedule.attempt", sched.Attempt),
	)

	outcomeErr := e.publish(ctx, sched)
	if outcomeErr != nil {
		span.SetStatus(codes.Error, outcomeErr.Error())
	}
	return true, outcomeErr
}

// ExecuteClaimed runs a schedule the caller already claimed through
// ClaimDueSchedules, which also incremented its attempt counter. It
// must only be called with ids returned by that batch claim; any other
// caller goes through Execute and the claim it performs.
func (e *Executor) ExecuteClaimed(ctx context.Context, scheduleID uuid.UUID) error {
	ctx, span := e.tracer.Start(ctx, "executor.ExecuteClaimed",
		trace.WithAttributes(attribute.String("schedule.id", scheduleID.String())),
	)
	defer span.End()

	sched, err := e.store.GetScheduleByID(ctx, scheduleID)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("load schedule: %w", err)
	}

	if sched.Status != store.ScheduleStatusClaimed {
		e.log.Debug("claim no longer held", "schedule_id", scheduleID, "status", sched.Status)
		return nil
	}

	span.SetAttributes(
		attribute.String("schedule.platform", string(sched.Platform)),
		attribute.Int("schedule.attempt", sched.Attempt),
	)

	outcomeErr := e.publish(ctx, sched)
	if outcomeErr != nil {
		span.SetStatus(codes.Error, outcomeErr.Error())
	}
	return outcomeErr
}

func (e *Executor) publish(ctx context.Context, sched *store.Schedule) error {
	log := e.log.With(
		"schedule_id", sched.ID,
		"post_id", sched.PostID,
		"platform", sched.Platform,
		"attempt", sched.Attempt,
	)

	post, err := e.store.GetPostByID(ctx, sched.PostID)
	if err != nil {
		return fmt.Errorf("load post: %w", err)
	}

	adapter, err := e.adapters.Get(sched.Platform)
	if err != nil {
		return e.fail(ctx, sched, log, err)
	}

	cred, err := e.store.GetCredential(ctx, sched.UserID, sched.Platform)
	if err != nil {
		if err == store.ErrNotFound {
			return e.fail(ctx, sched, log, fmt.Errorf("no %s account connected", sched.Platform))
		}
		return fmt.Errorf("load credential: %w", err)
	}

	if err := adapter.ValidateCredential(ctx, cred); err != nil {
		if platform.KindOf(err).Transient() {
			return e.release(ctx, sched, log, err)
		}
		return e.fail(ctx, sched, log, err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, e.cfg.PublishTimeout)
	defer cancel()

	platformPostID, err := adapter.Publish(pubCtx, cred, post.Content, post.MediaAssets)
	if err != nil {
		if platform.KindOf(err).Transient() {
			return e.release(ctx, sched, log, err)
		}
		return e.fail(ctx, sched, log, err)
	}

	if err := e.store.CompleteSchedule(ctx, sched.ID, platformPostID, e.now().UTC()); err != nil {
		return fmt.Errorf("record completion: %w", err)
	}

	log.Info("schedule published", "platform_post_id", platformPostID)
	return nil
}

// release returns a transiently failed schedule to pending with
// backoff, unless the attempt budget is spent, in which case the
// failure becomes terminal.
func (e *Executor) release(ctx context.Context, sched *store.Schedule, log *slog.Logger, cause error) error {
	if sched.Attempt >= e.cfg.MaxAttempts {
		log.Warn("attempt budget exhausted", "error", cause)
		return e.fail(ctx, sched, log, fmt.Errorf("after %d attempts: %w", sched.Attempt, cause))
	}

	visibleAfter := e.now().UTC().Add(e.backoff(sched.Attempt))
	if err := e.store.ReleaseSchedule(ctx, sched.ID, visibleAfter); err != nil {
		return fmt.Errorf("release schedule: %w", err)
	}

	log.Warn("schedule released for retry",
		"error", cause,
		"error_kind", platform.KindOf(cause),
		"visible_after", visibleAfter,
	)
	return nil
}

func (e *Executor) fail(ctx context.Context, sched *store.Schedule, log *slog.Logger, cause error) error {
	if err := e.store.FailSchedule(ctx, sched.ID, cause.Error(), e.now().UTC()); err != nil {
		return fmt.Errorf("record failure: %w", err)
	}

	log.Error("schedule failed",
		"error", cause,
		"error_kind", platform.KindOf(cause),
	)
	return nil
}

// backoff doubles per attempt starting at the base, capped at 30
// minutes.
func (e *Executor) backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := e.cfg.RetryBackoffBase << (attempt - 1)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}
