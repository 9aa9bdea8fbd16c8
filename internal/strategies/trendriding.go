package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// TrendRiding enters on ADX-confirmed trend strength and holds through
// pullbacks, exiting only on trend exhaustion rather than every minor
// reversal (spec §4.3 "trend_riding" mode).
type TrendRiding struct {
	params config.StrategyParams
}

func NewTrendRiding(params config.StrategyParams) *TrendRiding {
	return &TrendRiding{params: params}
}

func (s *TrendRiding) Name() string { return "trend_riding" }

func (s *TrendRiding) Warmup(ctx AnalysisContext) {}

func (s *TrendRiding) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || !ctx.Features.Ready {
		return nil
	}
	fs := ctx.Features

	strongTrend := fs.ADX > 25
	aligned := fs.Price > fs.SMATrend

	if strongTrend && aligned && !ctx.HasPosition {
		sl := decimalMinus(ctx.Price, fs.ATR*float64(s.params.TrailingStopATRMultiplier))
		return &Signal{Side: domain.Buy, Reason: "trend_ride_entry", Confidence: 0.7, SuggestedStopLoss: sl}
	}

	if ctx.HasPosition && fs.ADX < 15 {
		return &Signal{Side: domain.Sell, Reason: "trend_exhausted", Confidence: 0.55}
	}
	return nil
}
