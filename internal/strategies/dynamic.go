package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// DynamicRegime delegates to the regime-appropriate sub-behavior rather
// than a fixed indicator set: trend-follow in TrendingUp/Down, fade
// extremes in Ranging, sit out in Volatile (spec §4.2 RegimeAdaptive).
type DynamicRegime struct {
	params config.StrategyParams
}

func NewDynamicRegime(params config.StrategyParams) *DynamicRegime {
	return &DynamicRegime{params: params}
}

func (s *DynamicRegime) Name() string { return "dynamic" }

func (s *DynamicRegime) Warmup(ctx AnalysisContext) {}

func (s *DynamicRegime) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || !ctx.Features.Ready {
		return nil
	}
	fs := ctx.Features

	switch ctx.Regime.Type {
	case domain.RegimeVolatile:
		return nil
	case domain.RegimeTrendingUp:
		if fs.SMAFast > fs.SMASlow && !ctx.HasPosition {
			return &Signal{Side: domain.Buy, Reason: "regime_trend_up", Confidence: ctx.Regime.Confidence}
		}
	case domain.RegimeTrendingDown:
		if ctx.HasPosition {
			return &Signal{Side: domain.Sell, Reason: "regime_trend_down", Confidence: ctx.Regime.Confidence}
		}
	case domain.RegimeRanging:
		if fs.RSI < 30 && !ctx.HasPosition {
			return &Signal{Side: domain.Buy, Reason: "regime_range_fade", Confidence: ctx.Regime.Confidence}
		}
		if fs.RSI > 70 && ctx.HasPosition {
			return &Signal{Side: domain.Sell, Reason: "regime_range_fade", Confidence: ctx.Regime.Confidence}
		}
	}
	return nil
}
