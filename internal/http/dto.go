package http

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tally/internal/core"
	"tally/internal/format"
)

type transactionDTO struct {
	ID            int64  `json:"id,omitempty"`
	Title         string `json:"title"`
	Date          string `json:"date"`
	Total         string `json:"total"`
	Account       string `json:"account"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	Memo          string `json:"memo,omitempty"`
	Repeating     bool   `json:"repeating,omitempty"`
	Frequency     int    `json:"frequency,omitempty"`
	Period        string `json:"period,omitempty"`
	FutureDate    string `json:"future_date,omitempty"`
	FutureCreated bool   `json:"future_created,omitempty"`
}

func (d transactionDTO) toCore() (core.Transaction, error) {
	date, err := time.Parse(dateLayout, d.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("invalid date %q", d.Date)
	}

	total, err := core.ParseAmount(d.Total)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("total: %w", err)
	}

	tx := core.Transaction{
		ID:        d.ID,
		Title:     d.Title,
		Date:      date,
		Total:     total,
		Account:   d.Account,
		Type:      core.TxType(d.Type),
		Category:  d.Category,
		Memo:      d.Memo,
		Repeating: d.Repeating,
		Frequency: d.Frequency,
		Period:    core.Period(d.Period),
	}

	if d.FutureDate != "" {
		future, err := time.Parse(dateLayout, d.FutureDate)
		if err != nil {
			return core.Transaction{}, fmt.Errorf("invalid future date %q", d.FutureDate)
		}
		tx.FutureDate = future
	}

	return tx, nil
}

func transactionToDTO(tx core.Transaction) transactionDTO {
	d := transactionDTO{
		ID:            tx.ID,
		Title:         tx.Title,
		Date:          tx.Date.Format(dateLayout),
		Total:         tx.Total.StringFixed(2),
		Account:       tx.Account,
		Type:          string(tx.Type),
		Category:      tx.Category,
		Memo:          tx.Memo,
		Repeating:     tx.Repeating,
		FutureCreated: tx.FutureCreated,
	}
	if tx.Repeating {
		d.Frequency = tx.Frequency
		d.Period = string(tx.Period)
		if !tx.FutureDate.IsZero() && !tx.FutureDate.Equal(core.FarFuture) {
			d.FutureDate = tx.FutureDate.Format(dateLayout)
		}
	}
	return d
}

func transactionsToDTO(txs []core.Transaction) []transactionDTO {
	out := make([]transactionDTO, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionToDTO(tx))
	}
	return out
}

type totalDTO struct {
	Category  string `json:"category"`
	Type      string `json:"type"`
	Total     string `json:"total"`
	Formatted string `json:"formatted"`
}

func totalsToDTO(totals []core.CategoryTotal) []totalDTO {
	opts := format.DefaultOptions()
	out := make([]totalDTO, 0, len(totals))
	for _, t := range totals {
		out = append(out, totalDTO{
			Category:  t.Category,
			Type:      string(t.Type),
			Total:     t.Total.StringFixed(2),
			Formatted: opts.Format(t.Total),
		})
	}
	return out
}

type summaryDTO struct {
	Net        string     `json:"net"`
	Formatted  string     `json:"formatted"`
	Categories []totalDTO `json:"categories"`
}

// summaryFromTotals nets income against expenses across the breakdown.
func summaryFromTotals(totals []core.CategoryTotal) summaryDTO {
	net := decimal.Zero
	for _, t := range totals {
		if t.Type == core.Income {
			net = net.Add(t.Total)
		} else {
			net = net.Sub(t.Total)
		}
	}
	return summaryDTO{
		Net:        net.StringFixed(2),
		Formatted:  format.DefaultOptions().Format(net),
		Categories: totalsToDTO(totals),
	}
}

type accountDTO struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

type categoryDTO struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	Type string `json:"type"`
}
