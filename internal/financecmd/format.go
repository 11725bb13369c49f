package financecmd

import (
	"strings"

	"github.com/shopspring/decimal"
)

var billion = decimal.NewFromInt(1_000_000_000)

// FormatShort abbreviates a VND amount: 1.2B, 7.0Tr, 25K or the plain number
func FormatShort(amount decimal.Decimal) string {
	switch {
	case amount.GreaterThanOrEqual(billion):
		return amount.Div(billion).StringFixed(1) + "B"
	case amount.GreaterThanOrEqual(million):
		return amount.Div(million).StringFixed(1) + "Tr"
	case amount.GreaterThanOrEqual(thousand):
		return amount.Div(thousand).StringFixed(0) + "K"
	default:
		return amount.String()
	}
}

// FormatCurrency renders a whole VND amount with dot grouping: 1.234.567 ₫
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	digits := rounded.Abs().String()

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	b.WriteString(" ₫")
	return b.String()
}
