package core

import "github.com/shopspring/decimal"

// CategoryTotal is the derived sum of transaction totals for one
// (category, type) pair. Computed fresh per query, never persisted.
type CategoryTotal struct {
	Category string
	Type     TxType
	Total    decimal.Decimal
}

type categoryKey struct {
	category string
	txType   TxType
}

// SumByCategory groups rows by (category, type) and sums their totals with
// exact decimal addition. Categories without a matching row are omitted, not
// zero-filled. Result order follows the first appearance of each category in
// the input; the sums themselves are order-independent.
func SumByCategory(rows []Transaction) []CategoryTotal {
	sums := make(map[categoryKey]decimal.Decimal, len(rows))
	order := make([]categoryKey, 0, len(rows))

	for _, tx := range rows {
		key := categoryKey{category: tx.Category, txType: tx.Type}
		sum, seen := sums[key]
		if !seen {
			order = append(order, key)
		}
		sums[key] = sum.Add(tx.Total)
	}

	out := make([]CategoryTotal, 0, len(order))
	for _, key := range order {
		out = append(out, CategoryTotal{
			Category: key.category,
			Type:     key.txType,
			Total:    sums[key],
		})
	}
	return out
}

// GrandTotal sums every row with exact decimal addition.
func GrandTotal(rows []Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range rows {
		total = total.Add(tx.Total)
	}
	return total
}
