package evaluation

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/decimalx"
)

// SizingInput bundles everything quantity sizing needs (spec §4.7
// "Quantity sizing").
type SizingInput struct {
	Equity             decimal.Decimal
	Cash               decimal.Decimal
	Price              decimal.Decimal
	RiskPerTradePct    float64
	MaxPositions       int
	MaxPositionSizePct float64
	TargetVolatility   float64 // 0 disables volatility targeting
	RealizedVolatility float64
}

// SizingEngine computes a Buy quantity as the minimum of four caps,
// optionally scaled by a volatility-targeting ratio (spec §4.7: "the
// minimum of: equity*risk_per_trade_percent/price, equity/max_positions/price,
// equity*max_position_size_pct/price, cash/price").
type SizingEngine struct{}

func NewSizingEngine() *SizingEngine { return &SizingEngine{} }

// BuyQuantity returns the sized quantity, rounded to four decimal
// places (spec §9 decimalx.QuantityPlaces). Zero means the caller must
// reject the proposal.
func (s *SizingEngine) BuyQuantity(in SizingInput) decimal.Decimal {
	if in.Price.IsZero() || in.Price.IsNegative() {
		return decimal.Zero
	}

	byRisk := in.Equity.Mul(decimal.NewFromFloat(in.RiskPerTradePct)).Div(in.Price)

	byBucket := decimal.Zero
	if in.MaxPositions > 0 {
		byBucket = in.Equity.Div(decimal.NewFromInt(int64(in.MaxPositions))).Div(in.Price)
	}

	byPositionCap := in.Equity.Mul(decimal.NewFromFloat(in.MaxPositionSizePct)).Div(in.Price)
	byCash := in.Cash.Div(in.Price)

	qty := minDecimal(byRisk, byBucket, byPositionCap, byCash)

	if in.TargetVolatility > 0 && in.RealizedVolatility > 0 {
		scale := decimalx.ClampFloat(in.TargetVolatility/in.RealizedVolatility, 0, 1)
		qty = qty.Mul(decimal.NewFromFloat(scale))
	}

	if qty.IsNegative() {
		return decimal.Zero
	}
	return decimalx.RoundQuantity(qty)
}

func minDecimal(vals ...decimal.Decimal) decimal.Decimal {
	m := vals[0]
	for _, v := range vals[1:] {
		if v.LessThan(m) {
			m = v
		}
	}
	return m
}
