package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// StatisticalMomentum follows a confirmed trend using the Hurst proxy
// and regression slope rather than a crossover, matching the regime
// detector's own trend test (spec §4.2, §4.3 "stat_momentum" mode,
// RegimeAdaptiveStrategy's TrendingUp/Down mapping).
type StatisticalMomentum struct {
	params config.StrategyParams
}

func NewStatisticalMomentum(params config.StrategyParams) *StatisticalMomentum {
	return &StatisticalMomentum{params: params}
}

func (s *StatisticalMomentum) Name() string { return "stat_momentum" }

func (s *StatisticalMomentum) Warmup(ctx AnalysisContext) {}

func (s *StatisticalMomentum) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || !ctx.Features.Ready {
		return nil
	}
	fs := ctx.Features

	trending := fs.Hurst > 0.6
	if trending && fs.RegressionSlope > 0 && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "persistent_uptrend", Confidence: fs.Hurst}
	}
	if ctx.HasPosition && (fs.Hurst < 0.5 || fs.RegressionSlope < 0) {
		return &Signal{Side: domain.Sell, Reason: "trend_persistence_lost", Confidence: 0.5}
	}
	return nil
}
