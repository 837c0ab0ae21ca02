package worker

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/amqp"
	"tally/internal/core"
	"tally/internal/sheets/memory"
	"tally/internal/storage"
)

func newWorkerFixture(t *testing.T) (*SyncWorker, *storage.SQLiteRepository, *memory.Ledger) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	ledger := memory.New()
	return NewSyncWorker(repo, ledger, ledger, 10), repo, ledger
}

func createTx(t *testing.T, repo *storage.SQLiteRepository, title string) int64 {
	t.Helper()
	total, _ := decimal.NewFromString("25.00")
	id, err := repo.CreateTransaction(context.Background(), core.Transaction{
		Title:    title,
		Date:     time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		Total:    total,
		Account:  "Cash",
		Type:     core.Expense,
		Category: "Food",
	})
	if err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return id
}

func TestHandleEvent_Sync(t *testing.T) {
	w, repo, ledger := newWorkerFixture(t)
	id := createTx(t, repo, "Lunch")

	if err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(id)); err != nil {
		t.Fatalf("handle sync: %v", err)
	}

	rows := ledger.Rows()
	if _, ok := rows[id]; !ok {
		t.Errorf("transaction %d not exported: %v", id, rows)
	}

	pending, err := repo.GetPendingSync(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("exported transaction still pending: %+v", pending)
	}
}

func TestHandleEvent_SyncForDeletedTransaction(t *testing.T) {
	w, repo, ledger := newWorkerFixture(t)
	id := createTx(t, repo, "Lunch")
	if err := repo.SoftDeleteTransaction(context.Background(), id); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	// Stale sync event for a row deleted in the meantime is dropped, not
	// requeued forever.
	if err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(id)); err != nil {
		t.Fatalf("handle sync: %v", err)
	}
	if len(ledger.Rows()) != 0 {
		t.Error("deleted transaction should not be exported")
	}
}

func TestHandleEvent_Delete(t *testing.T) {
	w, repo, ledger := newWorkerFixture(t)
	id := createTx(t, repo, "Lunch")

	if err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(id)); err != nil {
		t.Fatalf("handle sync: %v", err)
	}
	if err := w.HandleEvent(context.Background(), amqp.NewDeleteEvent(id)); err != nil {
		t.Fatalf("handle delete: %v", err)
	}

	if len(ledger.Rows()) != 0 {
		t.Errorf("ledger row not removed: %v", ledger.Rows())
	}
}

func TestHandleEvent_UnknownKind(t *testing.T) {
	w, _, _ := newWorkerFixture(t)

	err := w.HandleEvent(context.Background(), &amqp.TransactionEvent{ID: 1, Kind: "mystery"})
	if err != nil {
		t.Errorf("unknown kinds should be dropped silently, got %v", err)
	}
}

func TestProcessPending(t *testing.T) {
	w, repo, ledger := newWorkerFixture(t)
	a := createTx(t, repo, "One")
	b := createTx(t, repo, "Two")

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("process pending: %v", err)
	}

	rows := ledger.Rows()
	for _, id := range []int64{a, b} {
		if _, ok := rows[id]; !ok {
			t.Errorf("transaction %d not exported by pending scan", id)
		}
	}

	pending, err := repo.GetPendingSync(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("still pending after scan: %+v", pending)
	}
}

type failingAppender struct{}

func (failingAppender) Append(ctx context.Context, tx core.Transaction) (string, error) {
	return "", errors.New("ledger unavailable")
}

func TestExportFailureMarksSyncError(t *testing.T) {
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "tally.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	w := NewSyncWorker(repo, failingAppender{}, nil, 10)
	id := createTx(t, repo, "Lunch")

	if err := w.HandleEvent(context.Background(), amqp.NewSyncEvent(id)); err == nil {
		t.Fatal("expected error from failing ledger")
	}

	// Marked as error, so the periodic scan does not spin on it.
	pending, err := repo.GetPendingSync(context.Background(), 10)
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if len(pending) != 0 {
		t.Errorf("failed transaction should leave pending state: %+v", pending)
	}
}
