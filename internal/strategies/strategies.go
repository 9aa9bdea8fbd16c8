// Package strategies implements the engine's pluggable signal generators
// behind a single capability set (spec §9: "Strategies as variants
// behind a capability set {analyze, warmup, name}. No open-ended plugin
// reflection; adding a strategy means adding a variant and a factory
// branch"). Every variant is a pure function of its AnalysisContext; any
// accumulated state (e.g. ML) is confined to what Warmup populates.
package strategies

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/features"
)

// Signal is a strategy's recommendation, consumed by the TradeEvaluator.
type Signal struct {
	Side                domain.Side
	Reason              string
	Confidence          float64
	SuggestedStopLoss   *decimal.Decimal
	SuggestedTakeProfit *decimal.Decimal
}

// AnalysisContext is everything a strategy may read: current price,
// every computed indicator, position state, rolling histories, and the
// detected regime (spec §4.3).
type AnalysisContext struct {
	Symbol        string
	Price         decimal.Decimal
	Features      features.FeatureSet
	HasPosition   bool
	CandleHistory []domain.Candle // bounded 100, oldest first (spec §3)
	RSIHistory    []float64
	OFIHistory    []float64
	Regime        domain.MarketRegime
	Timestamp     int64
}

// Strategy is the capability set every variant implements.
type Strategy interface {
	Analyze(ctx AnalysisContext) *Signal
	Warmup(ctx AnalysisContext)
	Name() string
}

// New constructs the strategy variant named by mode, parameterized by
// params (spec §6 "strategy_mode" enum; §9 "adding a strategy means
// adding a variant and a factory branch"). ml points at an optional
// on-disk predictor resolved by internal/strategies/ml.go's file-
// existence rule (spec §9 Open Questions).
func New(mode config.StrategyMode, params config.StrategyParams, modelPath string) Strategy {
	switch mode {
	case config.StrategyAdvanced:
		return NewAdvancedTripleFilter(params)
	case config.StrategyDynamic:
		return NewDynamicRegime(params)
	case config.StrategyTrendRiding:
		return NewTrendRiding(params)
	case config.StrategyMeanReversion:
		return NewMeanReversion(params)
	case config.StrategySMC:
		return NewSMC()
	case config.StrategyVWAP:
		return NewVWAP()
	case config.StrategyBreakout:
		return NewBreakout(params)
	case config.StrategyMomentum:
		return NewMomentumDivergence(params)
	case config.StrategyZScoreMR:
		return NewZScoreMeanReversion(params)
	case config.StrategyStatMomentum:
		return NewStatisticalMomentum(params)
	case config.StrategyOrderFlow:
		return NewOrderFlow(params)
	case config.StrategyEnsemble:
		return NewEnsemble(params)
	case config.StrategyML:
		return NewML(modelPath)
	case config.StrategyRegimeAdaptive:
		return NewDynamicRegime(params)
	default:
		return NewDualSMA(params)
	}
}

// closes extracts closing prices, oldest first.
func closes(history []domain.Candle) []decimal.Decimal {
	out := make([]decimal.Decimal, len(history))
	for i, c := range history {
		out[i] = c.Close
	}
	return out
}

// smaAt computes the simple moving average of the `period` closes ending
// at index `end` (inclusive), or false if there isn't enough history.
func smaAt(vals []decimal.Decimal, end, period int) (decimal.Decimal, bool) {
	if end+1 < period {
		return decimal.Zero, false
	}
	sum := decimal.Zero
	for i := end - period + 1; i <= end; i++ {
		sum = sum.Add(vals[i])
	}
	return sum.Div(decimal.NewFromInt(int64(period))), true
}

// coldStart reports the universal cold-start-safety precondition (spec
// §8): every strategy must decline on an empty feature set and empty
// candle history.
func coldStart(ctx AnalysisContext) bool {
	return len(ctx.CandleHistory) == 0
}

// decimalMinus returns price - offset as a *decimal.Decimal, for
// strategies that suggest an ATR-based stop loss in float indicator
// space but must hand the evaluator a decimal price.
func decimalMinus(price decimal.Decimal, offset float64) *decimal.Decimal {
	d := price.Sub(decimalx.FromFloat(offset))
	return &d
}
