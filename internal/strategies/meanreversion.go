package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// MeanReversion buys when price pierces the lower Bollinger band with
// RSI oversold confirmation, and exits at the middle band (spec §4.3
// "mean_reversion" mode).
type MeanReversion struct {
	params config.StrategyParams
}

func NewMeanReversion(params config.StrategyParams) *MeanReversion {
	return &MeanReversion{params: params}
}

func (s *MeanReversion) Name() string { return "mean_reversion" }

func (s *MeanReversion) Warmup(ctx AnalysisContext) {}

func (s *MeanReversion) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || !ctx.Features.Ready {
		return nil
	}
	fs := ctx.Features

	if fs.Price <= fs.BollingerLower && fs.RSI < 30 && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "band_reversion_entry", Confidence: 0.65}
	}
	if fs.Price >= fs.BollingerMiddle && ctx.HasPosition {
		return &Signal{Side: domain.Sell, Reason: "band_reversion_exit", Confidence: 0.6}
	}
	return nil
}
