package evaluation

import (
	"github.com/shopspring/decimal"
)

// CostEvaluator implements the cost-aware profitability filter
// supplemented from original_source/'s fee+spread cost model (spec
// §4.7 step 5: "estimated gross profit ... must exceed total cost
// (fees + modelled spread) and profit/cost >= min_profit_ratio").
type CostEvaluator struct {
	FeeRate       float64 // fraction of notional, round-trip
	ModeledSpread decimal.Decimal
}

// NewCostEvaluator builds an evaluator at the given fee rate and
// modeled per-share spread.
func NewCostEvaluator(feeRate float64, modeledSpread decimal.Decimal) *CostEvaluator {
	return &CostEvaluator{FeeRate: feeRate, ModeledSpread: modeledSpread}
}

// IsProfitable reports whether expectedGrossProfit clears total
// transaction cost by at least minProfitRatio, for a trade of the given
// notional and quantity.
func (c *CostEvaluator) IsProfitable(expectedGrossProfit, notional decimal.Decimal, quantity decimal.Decimal, minProfitRatio float64) bool {
	return c.isProfitableAt(c.ModeledSpread, expectedGrossProfit, notional, quantity, minProfitRatio)
}

// IsProfitableWithSpread is IsProfitable using observedSpread in place
// of the configured ModeledSpread, for callers that track a live
// per-symbol spread (internal/market.SpreadCache) instead of the
// global default.
func (c *CostEvaluator) IsProfitableWithSpread(observedSpread, expectedGrossProfit, notional, quantity decimal.Decimal, minProfitRatio float64) bool {
	return c.isProfitableAt(observedSpread, expectedGrossProfit, notional, quantity, minProfitRatio)
}

func (c *CostEvaluator) isProfitableAt(spread, expectedGrossProfit, notional, quantity decimal.Decimal, minProfitRatio float64) bool {
	fees := notional.Mul(decimal.NewFromFloat(c.FeeRate))
	spreadCost := spread.Mul(quantity)
	totalCost := fees.Add(spreadCost)

	if totalCost.IsZero() {
		return expectedGrossProfit.IsPositive()
	}
	if !expectedGrossProfit.IsPositive() {
		return false
	}
	ratio, _ := expectedGrossProfit.Div(totalCost).Float64()
	return ratio >= minProfitRatio
}
