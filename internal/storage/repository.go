package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"

	_ "modernc.org/sqlite"
)

// Sync lifecycle values for the transactions.sync_status column.
const (
	SyncPending = "pending"
	SyncDone    = "synced"
	SyncError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- accounts ---

// CreateAccount inserts a new account. A name that already exists yields a
// core.ConflictError; the existing row is never merged or overwritten.
func (r *SQLiteRepository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	if err := a.Validate(); err != nil {
		return core.Account{}, err
	}

	// Check locally before issuing the write so the conflict carries the
	// offending name; the UNIQUE constraint still backstops races.
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM accounts WHERE name = ?`, a.Name).Scan(&exists)
	if err == nil {
		return core.Account{}, &core.ConflictError{Kind: "account", Name: a.Name}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("check account name: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `INSERT INTO accounts (name) VALUES (?)`, a.Name)
	if err != nil {
		if isUniqueViolation(err) {
			return core.Account{}, &core.ConflictError{Kind: "account", Name: a.Name}
		}
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}

	slog.InfoContext(ctx, "Account created", "id", a.ID, "name", a.Name)
	return a, nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// --- categories ---

// CreateCategory inserts a new category. Names are unique per type: "Food"
// may exist once as an expense category and once as an income category.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	var exists int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM categories WHERE name = ? AND type = ?`, c.Name, string(c.Type)).Scan(&exists)
	if err == nil {
		return core.Category{}, &core.ConflictError{Kind: "category", Name: c.Name, Type: c.Type}
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("check category name: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, type) VALUES (?, ?)`, c.Name, string(c.Type))
	if err != nil {
		if isUniqueViolation(err) {
			return core.Category{}, &core.ConflictError{Kind: "category", Name: c.Name, Type: c.Type}
		}
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}

	slog.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

// ListCategories returns categories of one type, or of both when txType is
// empty.
func (r *SQLiteRepository) ListCategories(ctx context.Context, txType core.TxType) ([]core.Category, error) {
	query := `SELECT id, name, type FROM categories`
	var args []any
	if txType != "" {
		query += ` WHERE type = ?`
		args = append(args, string(txType))
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var typ string
		if err := rows.Scan(&c.ID, &c.Name, &typ); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Type = core.TxType(typ)
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetCategory looks up one (name, type) pair.
func (r *SQLiteRepository) GetCategory(ctx context.Context, name string, txType core.TxType) (core.Category, error) {
	var c core.Category
	var typ string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type FROM categories WHERE name = ? AND type = ?`,
		name, string(txType)).Scan(&c.ID, &c.Name, &typ)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Type = core.TxType(typ)
	return c, nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// --- transactions ---

const transactionColumns = `id, title, date, total, account, type, category, memo,
	repeating, frequency, period, future_date, future_created`

// CreateTransaction inserts a transaction and returns its generated id.
// A zero FutureDate is stored as the far-future sentinel.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}
	future := tx.FutureDate
	if future.IsZero() {
		future = tx.ProjectFutureDate()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(title, date, total, account, type, category, memo,
			 repeating, frequency, period, future_date, future_created, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.Title, core.Day(tx.Date).Unix(), tx.Total.String(), tx.Account, string(tx.Type),
		tx.Category, tx.Memo, tx.Repeating, tx.Frequency, string(tx.Period),
		future.Unix(), tx.FutureCreated, SyncPending)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"title", tx.Title,
		"total", tx.Total.String(),
		"account", tx.Account,
		"type", tx.Type,
		"category", tx.Category)
	return id, nil
}

// SaveTransaction writes a transaction under its existing id: it tries the
// insert first and falls back to an update when the id conflicts. The
// sequencing is deliberate; an existence check before the write would race
// with concurrent writers.
func (r *SQLiteRepository) SaveTransaction(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}
	future := tx.FutureDate
	if future.IsZero() {
		future = tx.ProjectFutureDate()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, title, date, total, account, type, category, memo,
			 repeating, frequency, period, future_date, future_created, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.Title, core.Day(tx.Date).Unix(), tx.Total.String(), tx.Account,
		string(tx.Type), tx.Category, tx.Memo, tx.Repeating, tx.Frequency,
		string(tx.Period), future.Unix(), tx.FutureCreated, SyncPending)
	if err == nil {
		return nil
	}
	if !isUniqueViolation(err) {
		return fmt.Errorf("insert transaction: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE transactions SET
			title = ?, date = ?, total = ?, account = ?, type = ?, category = ?,
			memo = ?, repeating = ?, frequency = ?, period = ?,
			future_date = ?, future_created = ?, sync_status = ?
		WHERE id = ? AND deleted = 0`,
		tx.Title, core.Day(tx.Date).Unix(), tx.Total.String(), tx.Account, string(tx.Type),
		tx.Category, tx.Memo, tx.Repeating, tx.Frequency, string(tx.Period),
		future.Unix(), tx.FutureCreated, SyncPending, tx.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ? AND deleted = 0`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// SoftDeleteTransaction hides a transaction from all reads while keeping the
// row for the export worker's delete message.
func (r *SQLiteRepository) SoftDeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET deleted = 1 WHERE id = ? AND deleted = 0`, id)
	if err != nil {
		return fmt.Errorf("soft delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	slog.InfoContext(ctx, "Transaction soft deleted", "id", id)
	return nil
}

// ListTransactions returns the rows selected by the filter in insertion
// order. The WHERE clause is composed by buildTransactionWhere; failures
// from the engine propagate to the caller without retry.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, f core.Filter) ([]core.Transaction, error) {
	where, args := buildTransactionWhere(f)
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CategoryTotals sums totals per (category, type) for the filter. The
// category selection is dropped so every category of the active type shows
// its total; sums use exact decimal addition in one pass over the rows.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, f core.Filter) ([]core.CategoryTotal, error) {
	rows, err := r.ListTransactions(ctx, f.WithoutCategory())
	if err != nil {
		return nil, err
	}
	return core.SumByCategory(rows), nil
}

// --- repeating transactions ---

// ListDueRepeating returns repeating transactions whose projected occurrence
// has arrived and whose follow-up has not been materialized yet.
func (r *SQLiteRepository) ListDueRepeating(ctx context.Context, now time.Time) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+transactionColumns+` FROM transactions
		WHERE deleted = 0 AND repeating = 1 AND future_created = 0 AND future_date <= ?
		ORDER BY future_date`, now.UTC().Unix())
	if err != nil {
		return nil, fmt.Errorf("list due repeating: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan due transaction: %w", err)
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// MaterializeFuture creates the follow-up row for one due repeating
// transaction and flips the original's future_created flag as a single
// atomic unit. The guarded UPDATE makes the operation idempotent: a sweep
// re-run after a crash sees future_created already set and inserts nothing.
func (r *SQLiteRepository) MaterializeFuture(ctx context.Context, orig core.Transaction) (core.Transaction, error) {
	next := orig
	next.ID = 0
	next.Date = orig.FutureDate
	next.FutureCreated = false
	next.FutureDate = core.NextOccurrence(orig.FutureDate, orig.Period, orig.Frequency)

	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("begin materialize: %w", err)
	}
	defer dbtx.Rollback()

	res, err := dbtx.ExecContext(ctx, `
		UPDATE transactions SET future_created = 1
		WHERE id = ? AND repeating = 1 AND future_created = 0 AND deleted = 0`, orig.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("mark future created: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Already materialized by an earlier sweep.
		return core.Transaction{}, core.ErrNotFound
	}

	ins, err := dbtx.ExecContext(ctx, `
		INSERT INTO transactions
			(title, date, total, account, type, category, memo,
			 repeating, frequency, period, future_date, future_created, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		next.Title, core.Day(next.Date).Unix(), next.Total.String(), next.Account,
		string(next.Type), next.Category, next.Memo, next.Repeating, next.Frequency,
		string(next.Period), next.FutureDate.Unix(), SyncPending)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert follow-up transaction: %w", err)
	}
	next.ID, err = ins.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("follow-up insert id: %w", err)
	}

	if err := dbtx.Commit(); err != nil {
		return core.Transaction{}, fmt.Errorf("commit materialize: %w", err)
	}

	slog.InfoContext(ctx, "Materialized repeating transaction",
		"original_id", orig.ID,
		"follow_up_id", next.ID,
		"date", next.Date.Format("2006-01-02"),
		"next_occurrence", next.FutureDate.Format("2006-01-02"))
	return next, nil
}

// --- export sync bookkeeping ---

// PendingSyncTransaction is the minimal projection the export worker needs
// to re-drive missed sync messages.
type PendingSyncTransaction struct {
	ID        int64
	CreatedAt time.Time
}

func (r *SQLiteRepository) GetPendingSync(ctx context.Context, limit int) ([]PendingSyncTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at FROM transactions
		WHERE deleted = 0 AND sync_status = ?
		ORDER BY id LIMIT ?`, SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("get pending sync transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingSyncTransaction
	for rows.Next() {
		var p PendingSyncTransaction
		if err := rows.Scan(&p.ID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan pending sync: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) MarkSynced(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncDone, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ? WHERE id = ?`, SyncError, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}

// --- scanning ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		tx            core.Transaction
		dateUnix      int64
		totalStr      string
		typ, per      string
		futureUnix    int64
		repeating     bool
		futureCreated bool
	)
	if err := row.Scan(&tx.ID, &tx.Title, &dateUnix, &totalStr, &tx.Account, &typ,
		&tx.Category, &tx.Memo, &repeating, &tx.Frequency, &per,
		&futureUnix, &futureCreated); err != nil {
		return core.Transaction{}, err
	}

	total, err := decimal.NewFromString(totalStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored total %q: %w", totalStr, err)
	}

	tx.Date = time.Unix(dateUnix, 0).UTC()
	tx.Total = total
	tx.Type = core.TxType(typ)
	tx.Period = core.Period(per)
	tx.Repeating = repeating
	tx.FutureDate = time.Unix(futureUnix, 0).UTC()
	tx.FutureCreated = futureCreated
	return tx, nil
}
