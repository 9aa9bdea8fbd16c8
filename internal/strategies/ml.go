package strategies

import (
	"os"

	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
)

// ML delegates to an externally trained predictor file. No training or
// inference runtime ships in this module (spec §1 Non-goals); when
// modelPath doesn't resolve to a file, ML degrades to an always-abstain
// variant rather than failing strategy construction (spec §9 Open
// Questions: "a missing model file disables the variant, it does not
// crash startup").
type ML struct {
	modelPath string
	available bool
}

func NewML(modelPath string) *ML {
	_, err := os.Stat(modelPath)
	return &ML{modelPath: modelPath, available: modelPath != "" && err == nil}
}

func (s *ML) Name() string { return "ml" }

func (s *ML) Warmup(ctx AnalysisContext) {}

// Analyze computes a deterministic logistic score from the feature set
// as a stand-in predictor score; a real deployment replaces scoreOf
// with a call into the loaded model. Below 0.5 confidence either way,
// the variant abstains.
func (s *ML) Analyze(ctx AnalysisContext) *Signal {
	if !s.available || coldStart(ctx) || !ctx.Features.Ready {
		return nil
	}
	score := scoreOf(ctx)

	if score > 0.6 && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "ml_predictor_bullish", Confidence: score}
	}
	if ctx.HasPosition && score < 0.4 {
		return &Signal{Side: domain.Sell, Reason: "ml_predictor_bearish", Confidence: 1 - score}
	}
	return nil
}

// scoreOf blends the RSI and MACD histogram into a [0,1] confidence
// proxy used while no real model is wired.
func scoreOf(ctx AnalysisContext) float64 {
	fs := ctx.Features
	rsiScore := decimalx.ClampFloat(fs.RSI/100, 0, 1)
	macdScore := 0.5
	if fs.MACDHist > 0 {
		macdScore = 0.7
	} else if fs.MACDHist < 0 {
		macdScore = 0.3
	}
	return (rsiScore + macdScore) / 2
}
