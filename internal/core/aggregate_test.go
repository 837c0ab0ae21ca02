package core

import (
	"math/rand"
	"testing"
)

func totalsByName(totals []CategoryTotal) map[string]CategoryTotal {
	out := make(map[string]CategoryTotal, len(totals))
	for _, ct := range totals {
		out[ct.Category] = ct
	}
	return out
}

func TestSumByCategory_UnfilteredScenario(t *testing.T) {
	totals := SumByCategory(sampleLedger())

	if len(totals) != 3 {
		t.Fatalf("got %d category totals, want 3", len(totals))
	}

	byName := totalsByName(totals)

	tests := []struct {
		category string
		txType   TxType
		want     string
	}{
		{"Food", Expense, "1100.10"},
		{"Entertainment", Expense, "55.45"},
		{"Salary", Income, "2000.32"},
	}
	for _, tt := range tests {
		ct, ok := byName[tt.category]
		if !ok {
			t.Errorf("category %s missing from totals", tt.category)
			continue
		}
		if ct.Type != tt.txType {
			t.Errorf("category %s type = %s, want %s", tt.category, ct.Type, tt.txType)
		}
		if !ct.Total.Equal(amount(tt.want)) {
			t.Errorf("category %s total = %s, want %s", tt.category, ct.Total, tt.want)
		}
	}
}

func TestSumByCategory_AccountFiltered(t *testing.T) {
	f := Filter{ByAccount: true, Account: "Cash"}
	var rows []Transaction
	for _, tx := range sampleLedger() {
		if f.Matches(tx) {
			rows = append(rows, tx)
		}
	}

	totals := SumByCategory(rows)
	if len(totals) != 1 {
		t.Fatalf("got %d totals, want 1", len(totals))
	}
	if totals[0].Category != "Food" || totals[0].Type != Expense || !totals[0].Total.Equal(amount("1100.10")) {
		t.Errorf("got %s/%s = %s, want Food/expense = 1100.10", totals[0].Category, totals[0].Type, totals[0].Total)
	}
}

func TestSumByCategory_DateFiltered(t *testing.T) {
	f := Filter{ByDate: true, Start: day(2), End: day(5)}
	var rows []Transaction
	for _, tx := range sampleLedger() {
		if f.Matches(tx) {
			rows = append(rows, tx)
		}
	}

	byName := totalsByName(SumByCategory(rows))
	tests := []struct {
		category string
		want     string
	}{
		{"Food", "100.00"}, // Party on day 1 excluded
		{"Entertainment", "55.45"},
		{"Salary", "2000.32"},
	}
	for _, tt := range tests {
		ct, ok := byName[tt.category]
		if !ok {
			t.Errorf("category %s missing from totals", tt.category)
			continue
		}
		if !ct.Total.Equal(amount(tt.want)) {
			t.Errorf("category %s total = %s, want %s", tt.category, ct.Total, tt.want)
		}
	}
}

func TestSumByCategory_OrderIndependent(t *testing.T) {
	rows := sampleLedger()
	want := totalsByName(SumByCategory(rows))

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := make([]Transaction, len(rows))
		copy(shuffled, rows)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got := totalsByName(SumByCategory(shuffled))
		if len(got) != len(want) {
			t.Fatalf("shuffle %d: got %d totals, want %d", i, len(got), len(want))
		}
		for name, w := range want {
			g, ok := got[name]
			if !ok || !g.Total.Equal(w.Total) {
				t.Errorf("shuffle %d: category %s = %v, want %s", i, name, g.Total, w.Total)
			}
		}
	}
}

func TestSumByCategory_OmitsEmptyCategories(t *testing.T) {
	if got := SumByCategory(nil); len(got) != 0 {
		t.Errorf("SumByCategory(nil) = %v, want empty", got)
	}

	// Only categories present in the input appear; |output| is bounded by
	// the number of distinct (category, type) pairs.
	rows := sampleLedger()
	totals := SumByCategory(rows)
	distinct := map[categoryKey]struct{}{}
	for _, tx := range rows {
		distinct[categoryKey{tx.Category, tx.Type}] = struct{}{}
	}
	if len(totals) != len(distinct) {
		t.Errorf("got %d totals, want %d distinct categories", len(totals), len(distinct))
	}
}

func TestSumByCategory_SameNameAcrossTypes(t *testing.T) {
	// "Other" exists once per type namespace; the sums must not merge.
	rows := []Transaction{
		{Title: "a", Total: amount("10.00"), Type: Expense, Category: "Other", Account: "Cash"},
		{Title: "b", Total: amount("25.00"), Type: Income, Category: "Other", Account: "Cash"},
	}
	totals := SumByCategory(rows)
	if len(totals) != 2 {
		t.Fatalf("got %d totals, want 2 (one per type)", len(totals))
	}
	for _, ct := range totals {
		switch ct.Type {
		case Expense:
			if !ct.Total.Equal(amount("10.00")) {
				t.Errorf("expense Other = %s, want 10.00", ct.Total)
			}
		case Income:
			if !ct.Total.Equal(amount("25.00")) {
				t.Errorf("income Other = %s, want 25.00", ct.Total)
			}
		}
	}
}

func TestGrandTotal(t *testing.T) {
	got := GrandTotal(sampleLedger())
	if want := amount("3155.87"); !got.Equal(want) {
		t.Errorf("GrandTotal() = %s, want %s", got, want)
	}
	if !GrandTotal(nil).Equal(amount("0")) {
		t.Error("GrandTotal(nil) should be zero")
	}
}
