// Package memory is an in-process ledger used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tally/internal/core"
	ports "tally/internal/sheets"
)

type Ledger struct {
	mu   sync.Mutex
	rows map[int64]core.Transaction
}

var (
	_ ports.LedgerAppender = (*Ledger)(nil)
	_ ports.LedgerRemover  = (*Ledger)(nil)
)

func New() *Ledger {
	return &Ledger{rows: make(map[int64]core.Transaction)}
}

func (l *Ledger) Append(ctx context.Context, tx core.Transaction) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rows[tx.ID] = tx
	return fmt.Sprintf("memory!%d", tx.ID), nil
}

func (l *Ledger) Remove(ctx context.Context, id int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rows, id)
	return nil
}

// Rows returns a copy of the exported rows.
func (l *Ledger) Rows() map[int64]core.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[int64]core.Transaction, len(l.rows))
	for id, tx := range l.rows {
		out[id] = tx
	}
	return out
}
