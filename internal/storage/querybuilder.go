package storage

import (
	"strings"

	"tally/internal/core"
)

// buildTransactionWhere maps a core.Filter to a parametrized WHERE clause.
// One composer covers all eight toggle combinations instead of enumerating a
// named query per combination: each active toggle contributes exactly one
// AND condition, inactive toggles contribute nothing regardless of their
// value fields, and selecting core.All degrades the condition to the type
// restriction alone.
//
// The composer is pure; execution and failure handling stay with the caller.
func buildTransactionWhere(f core.Filter) (string, []any) {
	conds := []string{"deleted = 0"}
	var args []any

	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}
	if f.ByAccount && f.Account != core.All {
		conds = append(conds, "account = ?")
		args = append(args, f.Account)
	}
	if f.ByCategory && f.Category != core.All {
		conds = append(conds, "category = ?")
		args = append(args, f.Category)
	}
	if f.ByDate {
		// End is normalized to the last instant of its calendar day so a
		// same-day [start, end] selection covers the whole day.
		conds = append(conds, "date >= ?", "date <= ?")
		args = append(args, core.Day(f.Start).Unix(), core.EndOfDay(f.End).Unix())
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}
