package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// Ensemble runs a fixed panel of sub-strategies and aggregates their
// confidence-weighted votes, trading only when net sentiment clears the
// configured voting threshold (spec §4.3 "ensemble" mode).
type Ensemble struct {
	panel     []Strategy
	threshold float64
}

func NewEnsemble(params config.StrategyParams) *Ensemble {
	return &Ensemble{
		panel: []Strategy{
			NewDualSMA(params),
			NewAdvancedTripleFilter(params),
			NewMeanReversion(params),
			NewStatisticalMomentum(params),
		},
		threshold: params.EnsembleVotingThreshold,
	}
}

func (s *Ensemble) Name() string { return "ensemble" }

func (s *Ensemble) Warmup(ctx AnalysisContext) {
	for _, sub := range s.panel {
		sub.Warmup(ctx)
	}
}

func (s *Ensemble) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) {
		return nil
	}
	var buyWeight, sellWeight float64
	var totalWeight float64
	var reasons []string

	for _, sub := range s.panel {
		sig := sub.Analyze(ctx)
		if sig == nil {
			continue
		}
		totalWeight += sig.Confidence
		if sig.Side == domain.Buy {
			buyWeight += sig.Confidence
		} else {
			sellWeight += sig.Confidence
		}
		reasons = append(reasons, sub.Name()+":"+sig.Reason)
	}
	if totalWeight == 0 {
		return nil
	}

	if buyWeight/totalWeight >= s.threshold && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "ensemble_vote", Confidence: buyWeight / totalWeight}
	}
	if sellWeight/totalWeight >= s.threshold && ctx.HasPosition {
		return &Signal{Side: domain.Sell, Reason: "ensemble_vote", Confidence: sellWeight / totalWeight}
	}
	return nil
}
