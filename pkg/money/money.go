// Package money formats decimal amounts in the protocol's reference currency (USD).
package money

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Symbol of the reference currency every amount is denominated in.
const Symbol = "$"

var hundred = decimal.NewFromInt(100)

// FormatCurrency renders an amount as "$150,000.00". Negative amounts get a
// leading minus: "-$12.50".
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + Symbol + humanize.FormatFloat("#,###.##", rounded.InexactFloat64())
}

// FormatPercent renders a percentage with one decimal place: "70.0%".
func FormatPercent(pct decimal.Decimal) string {
	return pct.StringFixed(1) + "%"
}

// FromFloat converts a float from a JSON body into a decimal amount.
func FromFloat(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

// Parse accepts amounts as the ledger encodes them ("150000.0", "1,000").
func Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
}

// Percent returns num/den × 100, or zero when den is zero.
func Percent(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den)
}
