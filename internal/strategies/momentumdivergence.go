package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// MomentumDivergence looks for price making a new local low while RSI
// makes a higher low (bullish divergence), the classic reversal signal
// (spec §4.3 "momentum" mode).
type MomentumDivergence struct {
	params config.StrategyParams
}

func NewMomentumDivergence(params config.StrategyParams) *MomentumDivergence {
	return &MomentumDivergence{params: params}
}

func (s *MomentumDivergence) Name() string { return "momentum" }

func (s *MomentumDivergence) Warmup(ctx AnalysisContext) {}

func (s *MomentumDivergence) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || !ctx.Features.Ready || len(ctx.RSIHistory) < 3 {
		return nil
	}
	cl := closes(ctx.CandleHistory)
	n := len(cl)
	if n < 3 {
		return nil
	}

	rsiN := len(ctx.RSIHistory)
	priceLowerLow := cl[n-1].LessThan(cl[n-3])
	rsiHigherLow := ctx.RSIHistory[rsiN-1] > ctx.RSIHistory[rsiN-3]

	if priceLowerLow && rsiHigherLow && ctx.Features.RSI < 40 && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "bullish_divergence", Confidence: 0.6}
	}
	if ctx.HasPosition && ctx.Features.RSI > s.params.RSIThreshold {
		return &Signal{Side: domain.Sell, Reason: "momentum_overbought", Confidence: 0.55}
	}
	return nil
}
