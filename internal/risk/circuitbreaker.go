// Package risk implements the RiskManager's circuit breaker, cash/
// exposure reservations, and risk-state persistence (spec §4.4).
package risk

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// BreakerResult reports the circuit breaker's verdict for one
// evaluation (spec §4.4 step 5).
type BreakerResult struct {
	Halt   bool
	Reason string
}

// CircuitBreaker evaluates the three halt conditions every proposal and
// valuation tick runs against (spec §4.4 step 5): daily loss, drawdown
// from high-water-mark, and consecutive losses.
type CircuitBreaker struct {
	cfg config.RiskConfig
}

func NewCircuitBreaker(cfg config.RiskConfig) *CircuitBreaker {
	return &CircuitBreaker{cfg: cfg}
}

// Evaluate checks state against equity, mutating nothing. Step 6's
// "skip when prices are missing for every held position" is the
// caller's responsibility (it controls whether Evaluate is even
// called) — see ShouldSkipEvaluation.
func (b *CircuitBreaker) Evaluate(state domain.RiskState, equity decimal.Decimal) BreakerResult {
	if state.DailyStartEquity.IsPositive() {
		dailyChange, _ := equity.Sub(state.DailyStartEquity).Div(state.DailyStartEquity).Float64()
		if dailyChange < -b.cfg.MaxDailyLossPct {
			return BreakerResult{Halt: true, Reason: "daily_loss_limit"}
		}
	}
	if state.EquityHighWaterMark.IsPositive() {
		drawdown, _ := equity.Sub(state.EquityHighWaterMark).Div(state.EquityHighWaterMark).Float64()
		if drawdown < -b.cfg.MaxDrawdownPct {
			return BreakerResult{Halt: true, Reason: "max_drawdown"}
		}
	}
	if state.ConsecutiveLosses >= b.cfg.ConsecutiveLossLimit {
		return BreakerResult{Halt: true, Reason: "consecutive_loss_limit"}
	}
	return BreakerResult{}
}

// ShouldSkipEvaluation implements spec §4.4 step 6: the breaker must
// not fire when the current-price map has no price for any held
// position, since that would be evaluating against stale/zero equity
// rather than a real loss.
func ShouldSkipEvaluation(positions map[string]*domain.Position, prices map[string]decimal.Decimal) bool {
	if len(positions) == 0 {
		return false
	}
	for symbol := range positions {
		if _, ok := prices[symbol]; ok {
			return false
		}
	}
	return true
}

// LiquidationPrice computes the Limit price for a breaker-triggered
// liquidation Sell: price * (1 - slippage_tolerance), never a Market
// order, to bound slippage (spec §4.4 step 5).
func LiquidationPrice(price decimal.Decimal, slippageTolerance float64) decimal.Decimal {
	return price.Mul(decimal.NewFromFloat(1 - slippageTolerance))
}
