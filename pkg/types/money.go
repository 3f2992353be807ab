package types

import "github.com/shopspring/decimal"

// FormatCents renders an amount in cents as a dollar string, e.g. "$12.50".
func FormatCents(cents int64) string {
	amount := decimal.New(cents, -2)
	if amount.IsNegative() {
		return "-$" + amount.Abs().StringFixed(2)
	}
	return "$" + amount.StringFixed(2)
}
