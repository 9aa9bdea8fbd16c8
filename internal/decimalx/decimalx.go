// Package decimalx collects the rounding and float-boundary conversion
// helpers shared by every money/price/quantity path (spec §3, §9: "Decimal
// vs float"). Indicator-space code works in float64; everything that
// crosses into an order, a proposal, or the portfolio goes through here.
package decimalx

import "github.com/shopspring/decimal"

// QuantityPlaces is the rounding precision applied to order quantities
// (spec §4.7: "Quantity rounds to four decimal places").
const QuantityPlaces = 4

// MoneyPlaces is the rounding precision applied to money/price values at
// order emission (spec §9).
const MoneyPlaces = 4

// RoundQuantity rounds d to QuantityPlaces using half-up, the convention
// the teacher's money-handling code uses throughout.
func RoundQuantity(d decimal.Decimal) decimal.Decimal {
	return d.Round(QuantityPlaces)
}

// RoundMoney rounds d to MoneyPlaces.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// FromFloat converts an indicator-space float64 into a decimal at a
// domain boundary (e.g. ATR, RSI values flowing into a proposal).
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// ToFloat converts a decimal into float64 for indicator-space math
// (e.g. feeding a price into a statistics routine).
func ToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// ClampFloat clamps f into [lo, hi].
func ClampFloat(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// ClampInt clamps n into [lo, hi].
func ClampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
