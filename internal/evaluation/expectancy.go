// Package evaluation implements the TradeEvaluator's pre-checks and
// sizing: expectancy modeling, empirical win rate, cost-aware
// profitability, and quantity sizing (spec §4.7).
package evaluation

import (
	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
)

// WinRateProvider supplies a symbol's empirical win probability from
// recorded trade outcomes (realized P&L against the average entry price;
// trades are not FIFO-matched), falling back to a static default
// below min_trades (spec §4.7 "Expectancy model").
type WinRateProvider struct {
	MinTrades   int
	DefaultRate float64

	wins   map[string]int
	losses map[string]int
}

// NewWinRateProvider builds a provider with the configured warm-up
// threshold and default win rate.
func NewWinRateProvider(minTrades int, defaultRate float64) *WinRateProvider {
	return &WinRateProvider{
		MinTrades:   minTrades,
		DefaultRate: defaultRate,
		wins:        make(map[string]int),
		losses:      make(map[string]int),
	}
}

// RecordOutcome registers one Sell fill's realized P&L as a win (> 0) or
// a loss.
func (p *WinRateProvider) RecordOutcome(symbol string, realizedPnL float64) {
	if realizedPnL > 0 {
		p.wins[symbol]++
	} else {
		p.losses[symbol]++
	}
}

// WinRate returns the symbol's empirical win probability, or the
// provider's default below MinTrades observed trades.
func (p *WinRateProvider) WinRate(symbol string) float64 {
	total := p.wins[symbol] + p.losses[symbol]
	if total < p.MinTrades {
		return p.DefaultRate
	}
	return float64(p.wins[symbol]) / float64(total)
}

// ExpectancyEvaluator computes the reward/risk/win-probability model
// that gates every proposal (spec §4.7 "Expectancy model").
type ExpectancyEvaluator struct {
	WinRates *WinRateProvider
}

// NewExpectancyEvaluator builds an evaluator over the given win-rate source.
func NewExpectancyEvaluator(winRates *WinRateProvider) *ExpectancyEvaluator {
	return &ExpectancyEvaluator{WinRates: winRates}
}

// Evaluate computes domain.Expectancy for a proposed entry at price,
// adjusting the base win probability by regime confidence (spec §4.7:
// "+0.05*conf in Trending, 0 in Ranging, -0.05 in Volatile, -0.10 in
// Unknown; clamped to [0.1, 0.9]"). Reward = conf*price*0.03, risk =
// price*0.015, matching the spec's fixed reward/risk proxy.
func (e *ExpectancyEvaluator) Evaluate(symbol string, price float64, regime domain.MarketRegime) domain.Expectancy {
	p := e.WinRates.WinRate(symbol)

	switch regime.Type {
	case domain.RegimeTrendingUp, domain.RegimeTrendingDown:
		p += 0.05 * regime.Confidence
	case domain.RegimeVolatile:
		p -= 0.05
	case domain.RegimeUnknown:
		p -= 0.10
	}
	p = decimalx.ClampFloat(p, 0.1, 0.9)

	reward := regime.Confidence * price * 0.03
	risk := price * 0.015

	ev := p*reward - (1-p)*risk
	rr := 0.0
	if risk != 0 {
		rr = reward / risk
	}

	return domain.Expectancy{RewardRiskRatio: rr, WinProb: p, ExpectedValue: ev}
}
