package format

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestOptions_Format(t *testing.T) {
	comma := Options{DecimalSep: ',', GroupingSep: '.', Places: 2}
	dot := Options{DecimalSep: '.', GroupingSep: ',', Places: 2}
	whole := Options{DecimalSep: ',', GroupingSep: '.', Places: 0}
	noGroup := Options{DecimalSep: '.', Places: 2}

	tests := []struct {
		name  string
		opts  Options
		input string
		want  string
	}{
		{"simple comma", comma, "12.34", "12,34"},
		{"grouping thousands", comma, "1234.56", "1.234,56"},
		{"grouping millions", comma, "1234567.89", "1.234.567,89"},
		{"dot locale", dot, "1234.56", "1,234.56"},
		{"pads cents", comma, "5", "5,00"},
		{"zero places rounds half-up", whole, "1234.50", "1.235"},
		{"zero places rounds down", whole, "1234.49", "1.234"},
		{"two places rounds half-up", comma, "9.995", "10,00"},
		{"negative", comma, "-1234.56", "-1.234,56"},
		{"no grouping separator", noGroup, "1234567.80", "1234567.80"},
		{"zero", comma, "0", "0,00"},
		{"exactly three digits", comma, "999.99", "999,99"},
		{"four digits", comma, "1000", "1.000,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.opts.Format(dec(tt.input))
			if got != tt.want {
				t.Errorf("Format(%s) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
