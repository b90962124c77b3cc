// Package store contains the database layer for postplane.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Queue defines the claim and outcome operations driven by the scheduler
// poller and the execution coordinator.
// Implementations must use SELECT ... FOR UPDATE SKIP LOCKED semantics
// for the claim step so that overlapping ticks can never dispatch the
// same schedule twice.
type Queue interface {
	// ClaimDueSchedules atomically claims up to 'limit' due pending
	// schedules (and claimed ones whose claim expired) and returns their
	// IDs. Returns a nil slice if nothing is due.
	ClaimDueSchedules(ctx context.Context, limit int) ([]uuid.UUID, error)

	// ClaimSchedule claims a single schedule if it is due and eligible.
	// Returns false when the schedule is not due, already claimed, or
	// terminal.
	ClaimSchedule(ctx context.Context, scheduleID uuid.UUID) (bool, error)

	// CompleteSchedule records a successful publish: schedule completed,
	// post posted, both in one transaction with the schedule authoritative.
	CompleteSchedule(ctx context.Context, scheduleID uuid.UUID, platformPostID string, executedAt time.Time) error

	// FailSchedule records a terminal failure for both schedule and post.
	FailSchedule(ctx context.Context, scheduleID uuid.UUID, reason string, executedAt time.Time) error

	// ReleaseSchedule returns a claimed schedule to pending, eligible
	// again once visibleAfter has passed. The post is left untouched.
	ReleaseSchedule(ctx context.Context, scheduleID uuid.UUID, visibleAfter time.Time) error

	// CountPending returns the number of schedules awaiting execution.
	CountPending(ctx context.Context) (int64, error)
}
