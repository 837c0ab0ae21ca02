// Package format renders decimal amounts for display. Formatting is a
// presentation concern only: stored totals stay exact, and rounding happens
// here, half-up, at the configured number of places.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Options configures currency rendering. DecimalSep and GroupingSep are
// explicit so the output is independent of the process locale.
type Options struct {
	DecimalSep  rune
	GroupingSep rune
	Places      int // 0 or 2
}

// DefaultOptions renders "1.234,56" style amounts.
func DefaultOptions() Options {
	return Options{DecimalSep: ',', GroupingSep: '.', Places: 2}
}

// Format renders d with half-up rounding at o.Places and thousands grouping.
func (o Options) Format(d decimal.Decimal) string {
	places := o.Places
	if places != 0 {
		places = 2
	}

	// decimal.Round is half away from zero, which is half-up for the
	// magnitude; the sign is re-applied after grouping.
	d = d.Round(int32(places))
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}

	fixed := d.StringFixed(int32(places))
	intPart := fixed
	fracPart := ""
	if i := strings.IndexByte(fixed, '.'); i >= 0 {
		intPart, fracPart = fixed[:i], fixed[i+1:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(groupDigits(intPart, o.GroupingSep))
	if places > 0 {
		b.WriteRune(o.DecimalSep)
		b.WriteString(fracPart)
	}
	return b.String()
}

func groupDigits(digits string, sep rune) string {
	if sep == 0 || len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteRune(sep)
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}
