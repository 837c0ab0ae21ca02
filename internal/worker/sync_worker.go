package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets"
	"tally/internal/storage"
)

// Store is the storage surface the export worker needs.
type Store interface {
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	GetPendingSync(ctx context.Context, limit int) ([]storage.PendingSyncTransaction, error)
	MarkSynced(ctx context.Context, id int64) error
	MarkSyncError(ctx context.Context, id int64) error
}

// SyncWorker exports transactions from SQLite to the spreadsheet ledger.
// Events arrive over AMQP; a periodic pending-status scan backstops lost
// messages.
type SyncWorker struct {
	store     Store
	appender  sheets.LedgerAppender
	remover   sheets.LedgerRemover
	batchSize int
}

func NewSyncWorker(store Store, appender sheets.LedgerAppender, remover sheets.LedgerRemover, batchSize int) *SyncWorker {
	return &SyncWorker{
		store:     store,
		appender:  appender,
		remover:   remover,
		batchSize: batchSize,
	}
}

// HandleEvent processes a single transaction event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.TransactionEvent) error {
	switch msg.Kind {
	case amqp.KindSync:
		return w.handleSync(ctx, msg.ID)
	case amqp.KindDelete:
		return w.handleDelete(ctx, msg.ID)
	default:
		slog.WarnContext(ctx, "Unknown event kind, dropping", "kind", msg.Kind, "id", msg.ID)
		return nil
	}
}

func (w *SyncWorker) handleSync(ctx context.Context, id int64) error {
	slog.InfoContext(ctx, "Processing sync event", "id", id)

	tx, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted between event and processing; nothing to export.
			slog.WarnContext(ctx, "Transaction gone before export", "id", id)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	return w.exportTransaction(ctx, tx)
}

func (w *SyncWorker) handleDelete(ctx context.Context, id int64) error {
	slog.InfoContext(ctx, "Processing delete event", "id", id)

	if w.remover == nil {
		slog.WarnContext(ctx, "No ledger remover configured, skipping", "id", id)
		return nil
	}

	if err := w.remover.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove from ledger: %w", err)
	}

	slog.InfoContext(ctx, "Removed transaction from ledger", "id", id)
	return nil
}

// ProcessPending exports transactions still marked pending. This is the
// backstop for lost AMQP messages.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize)
}

// StartupSyncCheck drains a larger pending backlog once at worker startup,
// recovering from missed events during downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPendingBatch(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPendingBatch(ctx context.Context, limit int) error {
	pending, err := w.store.GetPendingSync(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	exported := 0
	for _, p := range pending {
		tx, err := w.store.GetTransaction(ctx, p.ID)
		if err != nil {
			slog.ErrorContext(ctx, "Failed to load pending transaction", "id", p.ID, "error", err)
			if markErr := w.store.MarkSyncError(ctx, p.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark sync error", "id", p.ID, "error", markErr)
			}
			continue
		}
		if err := w.exportTransaction(ctx, tx); err != nil {
			slog.ErrorContext(ctx, "Failed to export pending transaction", "id", p.ID, "error", err)
			continue
		}
		exported++
	}

	slog.InfoContext(ctx, "Pending batch processed", "total", len(pending), "exported", exported)
	return nil
}

// Run consumes the pending backstop on a timer until ctx is done. AMQP
// consumption runs separately through HandleEvent.
func (w *SyncWorker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Sync worker stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Pending scan failed", "error", err)
			}
		}
	}
}

func (w *SyncWorker) exportTransaction(ctx context.Context, tx core.Transaction) error {
	ref, err := w.appender.Append(ctx, tx)
	if err != nil {
		if markErr := w.store.MarkSyncError(ctx, tx.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", tx.ID, "error", markErr)
		}
		return fmt.Errorf("append to ledger: %w", err)
	}

	if err := w.store.MarkSynced(ctx, tx.ID); err != nil {
		// The export itself worked; the pending scan will retry the mark.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", tx.ID, "error", err)
	}

	slog.InfoContext(ctx, "Exported transaction",
		"id", tx.ID,
		"ledger_ref", ref,
		"title", tx.Title,
		"total", tx.Total.String())
	return nil
}
