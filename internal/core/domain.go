package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Expense TxType = "expense"
	Income  TxType = "income"
)

const (
	Daily   Period = "day"
	Weekly  Period = "week"
	Monthly Period = "month"
	Yearly  Period = "year"
)

type (
	// TxType partitions transactions and categories into two namespaces.
	TxType string

	// Period is the unit of a repeating transaction's interval.
	Period string

	Transaction struct {
		ID            int64
		Title         string
		Date          time.Time // day granularity, midnight UTC
		Total         decimal.Decimal
		Account       string // account name reference
		Type          TxType
		Category      string // category name reference, unique per type
		Memo          string
		Repeating     bool
		Frequency     int // every N periods, >= 1
		Period        Period
		FutureDate    time.Time // next occurrence; FarFuture when not repeating
		FutureCreated bool      // the follow-up row has been materialized
	}

	Account struct {
		ID   int64
		Name string
	}

	Category struct {
		ID   int64
		Name string
		Type TxType
	}
)

// FarFuture is the sentinel FutureDate for non-repeating transactions.
var FarFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)

var (
	ErrEmptyTitle       = errors.New("empty title")
	ErrEmptyAccount     = errors.New("empty account")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidFrequency = errors.New("invalid frequency")
	ErrZeroDate         = errors.New("date cannot be zero")

	// ErrNotFound is returned for lookups of rows that no longer exist.
	ErrNotFound = errors.New("not found")
)

// ConflictError reports an insert that would duplicate a unique name.
// Accounts share one namespace; categories are unique per (name, type).
type ConflictError struct {
	Kind string // "account" or "category"
	Name string
	Type TxType // set for categories only
}

func (e *ConflictError) Error() string {
	if e.Kind == "category" {
		return fmt.Sprintf("category %q already exists for type %s", e.Name, e.Type)
	}
	return fmt.Sprintf("%s %q already exists", e.Kind, e.Name)
}

// IsConflict reports whether err is a name-conflict signal.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

func (t TxType) Valid() bool {
	return t == Expense || t == Income
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly:
		return true
	}
	return false
}

// Day truncates a timestamp to midnight UTC. Transaction dates are stored
// at this granularity.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns the last instant of t's calendar day. Date-range upper
// bounds are normalized through this so a same-day [start, end] selection
// covers the whole day.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC)
}

func (t Transaction) Validate() error {
	if len(strings.TrimSpace(t.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(t.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Total.IsPositive() {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Account) == "" {
		return ErrEmptyAccount
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Repeating {
		if !t.Period.Valid() {
			return ErrInvalidPeriod
		}
		if t.Frequency < 1 {
			return ErrInvalidFrequency
		}
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyAccount
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyCategory
	}
	if !c.Type.Valid() {
		return ErrInvalidType
	}
	return nil
}
