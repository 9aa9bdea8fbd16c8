package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// AdvancedTripleFilter requires trend (SMA), momentum (RSI) and
// confirmation (MACD histogram) to agree before entering, layering three
// independent filters over DualSMA's single crossover (spec §4.3
// "advanced" mode).
type AdvancedTripleFilter struct {
	params config.StrategyParams
}

func NewAdvancedTripleFilter(params config.StrategyParams) *AdvancedTripleFilter {
	return &AdvancedTripleFilter{params: params}
}

func (s *AdvancedTripleFilter) Name() string { return "advanced" }

func (s *AdvancedTripleFilter) Warmup(ctx AnalysisContext) {}

func (s *AdvancedTripleFilter) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || !ctx.Features.Ready {
		return nil
	}
	fs := ctx.Features

	trendUp := fs.SMAFast > fs.SMASlow && fs.Price > fs.SMATrend
	momentumOK := fs.RSI > 50 && fs.RSI < s.params.RSIThreshold
	confirmed := fs.MACDHist > 0

	if trendUp && momentumOK && confirmed && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "triple_filter_confirmed", Confidence: 0.75}
	}

	if ctx.HasPosition && (fs.MACDHist < 0 && fs.RSI > s.params.RSIThreshold) {
		return &Signal{Side: domain.Sell, Reason: "triple_filter_exhausted", Confidence: 0.6}
	}
	return nil
}
