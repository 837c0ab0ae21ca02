package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tally/internal/core"
	"tally/internal/watch"
)

// Store is the persistence surface the service needs.
type Store interface {
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	ListCategories(ctx context.Context, txType core.TxType) ([]core.Category, error)
	GetCategory(ctx context.Context, name string, txType core.TxType) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	SaveTransaction(ctx context.Context, tx core.Transaction) error
	GetTransaction(ctx context.Context, id int64) (core.Transaction, error)
	SoftDeleteTransaction(ctx context.Context, id int64) error
	ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error)
	CategoryTotals(ctx context.Context, f core.Filter) ([]core.CategoryTotal, error)
}

// Publisher announces transaction changes on the sync queue.
type Publisher interface {
	PublishTransactionSync(ctx context.Context, id int64) error
	PublishTransactionDelete(ctx context.Context, id int64) error
}

// TransactionService orchestrates ledger operations across SQLite, AMQP and
// the watch hub.
type TransactionService struct {
	store     Store
	publisher Publisher
	changes   *watch.Hub[time.Time]
}

func NewTransactionService(store Store, publisher Publisher) *TransactionService {
	return &TransactionService{
		store:     store,
		publisher: publisher,
		changes:   watch.NewHub[time.Time](),
	}
}

// CreateTransaction validates the referenced names, saves the transaction
// and publishes a sync event. A failed publish never fails the request; the
// pending sync status lets the worker catch up later.
func (s *TransactionService) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.checkReferences(ctx, tx); err != nil {
		return core.Transaction{}, err
	}

	tx.Date = core.Day(tx.Date)
	if tx.Repeating && tx.FutureDate.IsZero() {
		tx.FutureDate = core.NextOccurrence(tx.Date, tx.Period, tx.Frequency)
	}

	id, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	tx.ID = id

	if err := s.publishSync(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", id, "error", err)
	}

	s.notifyChanged()
	return tx, nil
}

// UpdateTransaction rewrites an existing transaction under its id.
func (s *TransactionService) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	if err := s.checkReferences(ctx, tx); err != nil {
		return err
	}

	tx.Date = core.Day(tx.Date)
	if tx.Repeating && tx.FutureDate.IsZero() {
		tx.FutureDate = core.NextOccurrence(tx.Date, tx.Period, tx.Frequency)
	}

	if err := s.store.SaveTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	if err := s.publishSync(ctx, tx.ID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message", "id", tx.ID, "error", err)
	}

	s.notifyChanged()
	return nil
}

// DeleteTransaction soft deletes locally and publishes a delete event.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	if err := s.store.SoftDeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	if err := s.publishDelete(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish delete message", "id", id, "error", err)
	}

	s.notifyChanged()
	return nil
}

func (s *TransactionService) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

func (s *TransactionService) ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	return s.store.ListTransactions(ctx, f)
}

func (s *TransactionService) CategoryTotals(ctx context.Context, f core.Filter) ([]core.CategoryTotal, error) {
	return s.store.CategoryTotals(ctx, f)
}

// --- accounts and categories ---

func (s *TransactionService) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return core.Account{}, err
	}
	s.notifyChanged()
	return created, nil
}

func (s *TransactionService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	return s.store.ListAccounts(ctx)
}

func (s *TransactionService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.store.DeleteAccount(ctx, id); err != nil {
		return err
	}
	s.notifyChanged()
	return nil
}

func (s *TransactionService) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	created, err := s.store.CreateCategory(ctx, c)
	if err != nil {
		return core.Category{}, err
	}
	s.notifyChanged()
	return created, nil
}

func (s *TransactionService) ListCategories(ctx context.Context, txType core.TxType) ([]core.Category, error) {
	return s.store.ListCategories(ctx, txType)
}

func (s *TransactionService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.store.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.notifyChanged()
	return nil
}

// --- watch ---

// WatchTransactions delivers the current filtered snapshot immediately, then
// a fresh snapshot after every data change, until ctx is done. Snapshots are
// always complete result sets.
func (s *TransactionService) WatchTransactions(ctx context.Context, f core.Filter) (<-chan []core.Transaction, error) {
	initial, err := s.store.ListTransactions(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	out := make(chan []core.Transaction, 1)
	out <- initial

	signals := s.changes.Subscribe(ctx)
	go func() {
		defer close(out)
		for range signals {
			snapshot, err := s.store.ListTransactions(ctx, f)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to refresh watch snapshot", "error", err)
				continue
			}
			sendLatest(out, snapshot)
		}
	}()

	return out, nil
}

// WatchTotals is WatchTransactions for per-category totals.
func (s *TransactionService) WatchTotals(ctx context.Context, f core.Filter) (<-chan []core.CategoryTotal, error) {
	initial, err := s.store.CategoryTotals(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("initial snapshot: %w", err)
	}

	out := make(chan []core.CategoryTotal, 1)
	out <- initial

	signals := s.changes.Subscribe(ctx)
	go func() {
		defer close(out)
		for range signals {
			snapshot, err := s.store.CategoryTotals(ctx, f)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to refresh totals snapshot", "error", err)
				continue
			}
			sendLatest(out, snapshot)
		}
	}()

	return out, nil
}

// NotifyChanged triggers a snapshot refresh for all watchers. The sweeper
// calls this after materializing follow-up rows.
func (s *TransactionService) NotifyChanged() {
	s.notifyChanged()
}

func (s *TransactionService) notifyChanged() {
	s.changes.Publish(time.Now())
}

// sendLatest replaces an unconsumed snapshot instead of blocking on a slow
// reader.
func sendLatest[T any](ch chan []T, snapshot []T) {
	select {
	case ch <- snapshot:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- snapshot
	}
}

// checkReferences enforces that the transaction points at a registered
// category of the same type. Account names are checked against the account
// list the same way.
func (s *TransactionService) checkReferences(ctx context.Context, tx core.Transaction) error {
	if _, err := s.store.GetCategory(ctx, tx.Category, tx.Type); err != nil {
		return fmt.Errorf("category %q (%s): %w", tx.Category, tx.Type, err)
	}

	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.Name == tx.Account {
			return nil
		}
	}
	return fmt.Errorf("account %q: %w", tx.Account, core.ErrNotFound)
}

func (s *TransactionService) publishSync(ctx context.Context, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}
	return s.publisher.PublishTransactionSync(ctx, id)
}

func (s *TransactionService) publishDelete(ctx context.Context, id int64) error {
	if s.publisher == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping delete message")
		return nil
	}
	return s.publisher.PublishTransactionDelete(ctx, id)
}
