package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
)

// SweepStore is the slice of storage the sweeper needs.
type SweepStore interface {
	ListDueRepeating(ctx context.Context, now time.Time) ([]core.Transaction, error)
	MaterializeFuture(ctx context.Context, orig core.Transaction) (core.Transaction, error)
}

// RecurringSweeper materializes due repeating transactions. Each original is
// processed in its own storage transaction, so a crash mid-sweep loses at
// most in-flight rows and the next sweep picks up the remainder.
type RecurringSweeper struct {
	store     SweepStore
	publisher Publisher
	interval  time.Duration
	onChange  func()
}

func NewRecurringSweeper(store SweepStore, publisher Publisher, interval time.Duration, onChange func()) *RecurringSweeper {
	return &RecurringSweeper{
		store:     store,
		publisher: publisher,
		interval:  interval,
		onChange:  onChange,
	}
}

// Run sweeps immediately, then on every tick until ctx is done.
func (s *RecurringSweeper) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "Recurring sweeper started", "interval", s.interval)

	if _, err := s.SweepOnce(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Initial sweep failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Recurring sweeper stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.SweepOnce(ctx, time.Now()); err != nil {
				slog.ErrorContext(ctx, "Sweep failed", "error", err)
			}
		}
	}
}

// SweepOnce materializes every repeating transaction due at now and returns
// how many follow-up rows were created. A row already claimed by a
// concurrent sweep is skipped, not an error.
func (s *RecurringSweeper) SweepOnce(ctx context.Context, now time.Time) (int, error) {
	due, err := s.store.ListDueRepeating(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due repeating: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Materializing due repeating transactions", "count", len(due))

	created := 0
	for _, orig := range due {
		next, err := s.store.MaterializeFuture(ctx, orig)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				continue
			}
			slog.ErrorContext(ctx, "Failed to materialize transaction",
				"id", orig.ID, "error", err)
			continue
		}
		created++

		if s.publisher != nil {
			if err := s.publisher.PublishTransactionSync(ctx, next.ID); err != nil {
				slog.ErrorContext(ctx, "Failed to publish sync for materialized transaction",
					"id", next.ID, "error", err)
			}
		}
	}

	if created > 0 && s.onChange != nil {
		s.onChange()
	}

	slog.InfoContext(ctx, "Sweep completed", "due", len(due), "created", created)
	return created, nil
}
