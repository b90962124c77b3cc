package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postplane/internal/store"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ClaimTimeout bounds how long a claimed schedule stays invisible to
// other pollers. A worker that crashes mid-execution loses its claim
// after this window and the schedule becomes eligible again.
const ClaimTimeout = 10 * time.Minute

func (s *Store) CreateSchedule(ctx context.Context, tx store.DBTransaction, schedule *store.Schedule) error {
	executor := s.getExecutor(tx)

	query := `
		INSERT INTO schedules (id, user_id, post_id, platform, scheduled_time, status, visible_after, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $5, $7)
	`

	_, err := executor.ExecContext(ctx, query,
		schedule.ID,
		schedule.UserID,
		schedule.PostID,
		schedule.Platform,
		schedule.ScheduledTime,
		schedule.Status,
		schedule.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule %s: %w", schedule.ID, err)
	}
	return nil
}

func (s *Store) GetScheduleByID(ctx context.Context, id uuid.UUID) (*store.Schedule, error) {
	query := `
		SELECT id, user_id, post_id, platform, scheduled_time, status, attempt, executed_at, error_message, created_at
		FROM schedules
		WHERE id = $1
	`

	var sc store.Schedule
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sc.ID,
		&sc.UserID,
		&sc.PostID,
		&sc.Platform,
		&sc.ScheduledTime,
		&sc.Status,
		&sc.Attempt,
		&sc.ExecutedAt,
		&sc.ErrorMessage,
		&sc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &sc, nil
}

// ClaimDueSchedules claims up to 'limit' due schedules atomically using
// SELECT ... FOR UPDATE SKIP LOCKED, so overlapping poller ticks never
// dispatch the same schedule twice. Claimed rows whose claim has expired
// are picked up again (worker crash recovery).
func (s *Store) ClaimDueSchedules(ctx context.Context, limit int) ([]uuid.UUID, error) {
	if limit <= 0 {
		limit = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	selectQuery := `
		SELECT id
		FROM schedules
		WHERE (status = 'pending' AND scheduled_time <= NOW() AND visible_after <= NOW())
		   OR (status = 'claimed' AND claim_expires_at <= NOW())
		ORDER BY scheduled_time ASC
		FOR UPDATE SKIP LOCKED
		LIMIT $1
	`

	rows, err := tx.QueryContext(ctx, selectQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("claim query failed: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("claim scan failed: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("claim rows error: %w", err)
	}

	// Nothing due
	if len(ids) == 0 {
		return nil, nil
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE schedules
		SET status = 'claimed', attempt = attempt + 1, claim_expires_at = NOW() + ($1 * INTERVAL '1 second')
		WHERE id = ANY($2)
	`, ClaimTimeout.Seconds(), pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("claim update failed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return ids, nil
}

// ClaimSchedule claims one schedule via a single conditional update.
// Used by the manual execution entry point; the poller claims in batches.
func (s *Store) ClaimSchedule(ctx context.Context, scheduleID uuid.UUID) (bool, error) {
	query := `
		UPDATE schedules
		SET status = 'claimed', attempt = attempt + 1, claim_expires_at = NOW() + ($1 * INTERVAL '1 second')
		WHERE id = $2
		  AND ((status = 'pending' AND scheduled_time <= NOW() AND visible_after <= NOW())
		    OR (status = 'claimed' AND claim_expires_at <= NOW()))
		RETURNING id
	`

	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, query, ClaimTimeout.Seconds(), scheduleID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to claim schedule %s: %w", scheduleID, err)
	}

	return true, nil
}

// CompleteSchedule records a successful publish. Schedule and post are
// updated in one transaction; the schedule row is authoritative.
func (s *Store) CompleteSchedule(ctx context.Context, scheduleID uuid.UUID, platformPostID string, executedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE schedules
		SET status = 'completed', executed_at = $1, claim_expires_at = NULL, error_message = NULL
		WHERE id = $2
	`, executedAt, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to complete schedule %s: %w", scheduleID, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE posts
		SET status = 'posted', posted_at = $1, platform_post_id = $2
		WHERE id = (SELECT post_id FROM schedules WHERE id = $3)
	`, executedAt, platformPostID, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to mark post posted for schedule %s: %w", scheduleID, err)
	}

	return tx.Commit()
}

// FailSchedule records a terminal failure for the schedule and its post.
func (s *Store) FailSchedule(ctx context.Context, scheduleID uuid.UUID, reason string, executedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		UPDATE schedules
		SET status = 'failed', executed_at = $1, claim_expires_at = NULL, error_message = $2
		WHERE id = $3
	`, executedAt, reason, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to fail schedule %s: %w", scheduleID, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE posts
		SET status = 'failed'
		WHERE id = (SELECT post_id FROM schedules WHERE id = $1)
	`, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to mark post failed for schedule %s: %w", scheduleID, err)
	}

	return tx.Commit()
}

// ReleaseSchedule returns a claimed schedule to pending after a
// transient failure. The visibility gate delays the next attempt.
func (s *Store) ReleaseSchedule(ctx context.Context, scheduleID uuid.UUID, visibleAfter time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE schedules
		SET status = 'pending', visible_after = $1, claim_expires_at = NULL
		WHERE id = $2 AND status = 'claimed'
	`, visibleAfter, scheduleID)
	if err != nil {
		return fmt.Errorf("failed to release schedule %s: %w", scheduleID, err)
	}
	return nil
}

// CountPending tracks the backlog of schedules awaiting execution.
func (s *Store) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schedules WHERE status = 'pending'").Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
