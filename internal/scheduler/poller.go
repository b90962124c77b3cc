// Package scheduler contains the poll loop that feeds due schedules to
// the executor.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Queue is the claim surface the poller pulls from.
type Queue interface {
	ClaimDueSchedules(ctx context.Context, limit int) ([]uuid.UUID, error)
}

// Executor runs one schedule the poller already claimed to an outcome.
type Executor interface {
	ExecuteClaimed(ctx context.Context, scheduleID uuid.UUID) error
}

// Config holds configuration for the poller.
type Config struct {
	PollInterval time.Duration // base tick between claim queries (default: 1m)
	Concurrency  int           // max schedules in flight at once (default: 4)
	MaxBackoff   time.Duration // cap on the empty-queue backoff (default: 5m)
}

// Poller runs the pull-loop: claim a batch of due schedules sized to
// the free worker slots, dispatch each to the executor, back off when
// the queue is empty.
type Poller struct {
	queue    Queue
	executor Executor
	config   Config
	log      *slog.Logger
	done     chan struct{}
}

// New creates a poller.
func New(q Queue, e Executor, config Config, log *slog.Logger) *Poller {
	if config.Concurrency <= 0 {
		config.Concurrency = 4
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = 5 * time.Minute
	}

	return &Poller{
		queue:    q,
		executor: e,
		config:   config,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Run starts the pull-loop. It blocks until the context is cancelled.
// On cancellation it stops claiming new schedules and waits for
// in-flight publishes to finish before returning.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("poller starting",
		"concurrency", p.config.Concurrency,
		"poll_interval", p.config.PollInterval,
	)

	sem := make(chan struct{}, p.config.Concurrency)
	var wg sync.WaitGroup

	// Channel to signal when a slot becomes available (adaptive polling)
	pollNow := make(chan struct{}, 1)

	currentBackoff := p.config.PollInterval

	triggerPoll := func() {
		select {
		case pollNow <- struct{}{}:
		default:
			// Already a poll pending
		}
	}

	// Initial poll
	triggerPoll()

	for {
		select {
		case <-ctx.Done():
			p.log.Info("poller stopping, waiting for in-flight publishes")
			wg.Wait()
			close(p.done)
			return ctx.Err()

		case <-time.After(currentBackoff):
			triggerPoll()

		case <-pollNow:
			availableSlots := p.config.Concurrency - len(sem)
			if availableSlots <= 0 {
				continue
			}

			ids, err := p.queue.ClaimDueSchedules(ctx, availableSlots)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				p.log.Error("claim due schedules", "error", err)
				continue
			}

			if len(ids) == 0 {
				// Empty queue - increase backoff, capped at MaxBackoff
				currentBackoff = currentBackoff * 2
				if currentBackoff > p.config.MaxBackoff {
					currentBackoff = p.config.MaxBackoff
				}
				continue
			}

			// Found work - reset backoff to minimum
			currentBackoff = p.config.PollInterval

			p.log.Info("claimed due schedules", "count", len(ids))

			for _, id := range ids {
				sem <- struct{}{}

				wg.Add(1)
				go func(scheduleID uuid.UUID) {
					defer wg.Done()
					defer func() {
						<-sem
						triggerPoll()
					}()

					// Detached from the poll context so a shutdown
					// signal lets the publish run to its outcome.
					execCtx := context.WithoutCancel(ctx)
					if err := p.executor.ExecuteClaimed(execCtx, scheduleID); err != nil {
						p.log.Error("execute schedule", "schedule_id", scheduleID, "error", err)
					}
				}(id)
			}

			// A full batch suggests more is due; poll again right away.
			if len(ids) == availableSlots {
				triggerPoll()
			}
		}
	}
}

// Done returns a channel that is closed when the poller has fully
// stopped, in-flight publishes included.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}
