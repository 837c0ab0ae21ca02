package core

import (
	"testing"
	"time"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"dot separator", "12.34", "12.34", false},
		{"comma separator", "12,34", "12.34", false},
		{"integer", "100", "100", false},
		{"third decimal rounds down", "12.344", "12.34", false},
		{"third decimal rounds up", "12.346", "12.35", false},
		{"half rounds up", "12.345", "12.35", false},
		{"leading dot", ".50", "0.5", false},
		{"surrounding whitespace", "  7,00  ", "7", false},
		{"empty", "", "", true},
		{"zero", "0", "", true},
		{"rounds to zero", "0.004", "", true},
		{"negative", "-5.00", "", true},
		{"explicit plus", "+5.00", "", true},
		{"two separators", "1.2.3", "", true},
		{"letters", "12a.00", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseAmount(%q) = %s, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) error = %v", tt.input, err)
			}
			if !got.Equal(amount(tt.want)) {
				t.Errorf("ParseAmount(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		Title:    "Groceries",
		Date:     day(1),
		Total:    amount("42.50"),
		Account:  "Cash",
		Type:     Expense,
		Category: "Food",
	}

	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid", func(tx *Transaction) {}, nil},
		{"empty title", func(tx *Transaction) { tx.Title = "  " }, ErrEmptyTitle},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrZeroDate},
		{"zero amount", func(tx *Transaction) { tx.Total = amount("0") }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Total = amount("-1") }, ErrInvalidAmount},
		{"empty account", func(tx *Transaction) { tx.Account = "" }, ErrEmptyAccount},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"repeating without period", func(tx *Transaction) { tx.Repeating = true; tx.Frequency = 1 }, ErrInvalidPeriod},
		{"repeating with zero frequency", func(tx *Transaction) { tx.Repeating = true; tx.Period = Monthly; tx.Frequency = 0 }, ErrInvalidFrequency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := valid
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err != tt.wantErr {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCategory_Validate(t *testing.T) {
	if err := (Category{Name: "Food", Type: Expense}).Validate(); err != nil {
		t.Errorf("valid category: %v", err)
	}
	if err := (Category{Name: "", Type: Expense}).Validate(); err != ErrEmptyCategory {
		t.Errorf("empty name: got %v, want ErrEmptyCategory", err)
	}
	if err := (Category{Name: "Food", Type: "budget"}).Validate(); err != ErrInvalidType {
		t.Errorf("bad type: got %v, want ErrInvalidType", err)
	}
}
