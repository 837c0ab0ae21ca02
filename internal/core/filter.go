package core

import "time"

// All marks an account or category selection that matches every value.
const All = "All"

// Filter carries the filter toggles and their values for one query.
// A toggle is authoritative over its value fields: when ByAccount is false
// the Account field has zero effect on results even if populated, and the
// same holds for ByCategory/Category and ByDate/Start/End. Callers never
// need to clear a value when disabling its toggle.
type Filter struct {
	ByAccount  bool
	ByCategory bool
	ByDate     bool

	Type     TxType // empty means both expense and income
	Account  string
	Category string
	Start    time.Time
	End      time.Time // inclusive; extended to end-of-day before comparison
}

// Matches reports whether tx satisfies the logical AND of the active
// toggles' conditions. Selecting All for an active account or category
// toggle degrades that condition to "no restriction".
func (f Filter) Matches(tx Transaction) bool {
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.ByAccount && f.Account != All && tx.Account != f.Account {
		return false
	}
	if f.ByCategory && f.Category != All && tx.Category != f.Category {
		return false
	}
	if f.ByDate {
		if tx.Date.Before(Day(f.Start)) || tx.Date.After(EndOfDay(f.End)) {
			return false
		}
	}
	return true
}

// WithoutCategory clears the category toggle. Category-total queries group
// over every category of the active type, so the category selection is
// dropped before the row set is fetched; highlighting the selected category
// is a presentation concern.
func (f Filter) WithoutCategory() Filter {
	f.ByCategory = false
	f.Category = ""
	return f
}
