package domain

import "github.com/shopspring/decimal"

// ─── Money ──────────────────────────────────────────────────────────────────

// CurrencyPlaces is the number of minor-unit digits kept on every amount.
const CurrencyPlaces = 2

var (
	zero    = decimal.Zero
	hundred = decimal.NewFromInt(100)
)

// RoundCurrency rounds half-up to currency precision. Amounts in this domain
// are never negative, so decimal's half-away-from-zero rounding is half-up.
func RoundCurrency(d decimal.Decimal) decimal.Decimal {
	return d.Round(CurrencyPlaces)
}

// PercentOf returns pct% of amount, rounded to currency precision.
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundCurrency(amount.Mul(pct).Shift(-2))
}

// ValidPercentage reports whether pct lies in [0, 100].
func ValidPercentage(pct decimal.Decimal) bool {
	return !pct.IsNegative() && pct.LessThanOrEqual(hundred)
}

// NonNegative clamps d at zero.
func NonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return zero
	}
	return d
}
