package storage

import (
	"reflect"
	"testing"
	"time"

	"tally/internal/core"
)

func TestBuildTransactionWhere(t *testing.T) {
	start := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		filter    core.Filter
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no toggles",
			filter:    core.Filter{},
			wantWhere: "WHERE deleted = 0",
			wantArgs:  nil,
		},
		{
			name:      "type only",
			filter:    core.Filter{Type: core.Expense},
			wantWhere: "WHERE deleted = 0 AND type = ?",
			wantArgs:  []any{"expense"},
		},
		{
			name:      "account only",
			filter:    core.Filter{ByAccount: true, Account: "Cash"},
			wantWhere: "WHERE deleted = 0 AND account = ?",
			wantArgs:  []any{"Cash"},
		},
		{
			name:      "category only",
			filter:    core.Filter{ByCategory: true, Category: "Food"},
			wantWhere: "WHERE deleted = 0 AND category = ?",
			wantArgs:  []any{"Food"},
		},
		{
			name:      "date only",
			filter:    core.Filter{ByDate: true, Start: start, End: end},
			wantWhere: "WHERE deleted = 0 AND date >= ? AND date <= ?",
			wantArgs: []any{
				start.Unix(),
				core.EndOfDay(end).Unix(),
			},
		},
		{
			name: "account and category",
			filter: core.Filter{
				ByAccount: true, Account: "Cash",
				ByCategory: true, Category: "Food",
			},
			wantWhere: "WHERE deleted = 0 AND account = ? AND category = ?",
			wantArgs:  []any{"Cash", "Food"},
		},
		{
			name: "account and date",
			filter: core.Filter{
				ByAccount: true, Account: "Cash",
				ByDate: true, Start: start, End: end,
			},
			wantWhere: "WHERE deleted = 0 AND account = ? AND date >= ? AND date <= ?",
			wantArgs:  []any{"Cash", start.Unix(), core.EndOfDay(end).Unix()},
		},
		{
			name: "category and date",
			filter: core.Filter{
				ByCategory: true, Category: "Food",
				ByDate: true, Start: start, End: end,
			},
			wantWhere: "WHERE deleted = 0 AND category = ? AND date >= ? AND date <= ?",
			wantArgs:  []any{"Food", start.Unix(), core.EndOfDay(end).Unix()},
		},
		{
			name: "all toggles with type",
			filter: core.Filter{
				Type:      core.Expense,
				ByAccount: true, Account: "Cash",
				ByCategory: true, Category: "Food",
				ByDate: true, Start: start, End: end,
			},
			wantWhere: "WHERE deleted = 0 AND type = ? AND account = ? AND category = ? AND date >= ? AND date <= ?",
			wantArgs:  []any{"expense", "Cash", "Food", start.Unix(), core.EndOfDay(end).Unix()},
		},
		{
			name: "all marker degrades to type restriction",
			filter: core.Filter{
				Type:      core.Expense,
				ByAccount: true, Account: core.All,
				ByCategory: true, Category: core.All,
			},
			wantWhere: "WHERE deleted = 0 AND type = ?",
			wantArgs:  []any{"expense"},
		},
		{
			name: "inactive toggles ignore stale values",
			filter: core.Filter{
				Account:  "Cash",
				Category: "Food",
				Start:    start,
				End:      end,
			},
			wantWhere: "WHERE deleted = 0",
			wantArgs:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := buildTransactionWhere(tt.filter)
			if where != tt.wantWhere {
				t.Errorf("where = %q, want %q", where, tt.wantWhere)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, want %v", args, tt.wantArgs)
			}
		})
	}
}

func TestBuildTransactionWhere_EndOfDayCoversWholeDay(t *testing.T) {
	day := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	_, args := buildTransactionWhere(core.Filter{ByDate: true, Start: day, End: day})

	lower := args[0].(int64)
	upper := args[1].(int64)
	if upper-lower != 86399 {
		t.Errorf("same-day range spans %d seconds, want 86399", upper-lower)
	}
}
