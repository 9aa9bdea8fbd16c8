package strategies

import (
	"github.com/aristath/aegis/internal/domain"
)

// SMC trades Smart Money Concepts fair-value-gap imbalances: a bullish
// FVG in the last three candles is an entry, its fill (price trading
// back into the gap) is the exit (spec §4.3 "smc" mode, glossary "FVG").
type SMC struct{}

func NewSMC() *SMC { return &SMC{} }

func (s *SMC) Name() string { return "smc" }

func (s *SMC) Warmup(ctx AnalysisContext) {}

func (s *SMC) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || len(ctx.CandleHistory) < 3 {
		return nil
	}
	n := len(ctx.CandleHistory)
	c1 := ctx.CandleHistory[n-3]
	c3 := ctx.CandleHistory[n-1]

	_, bullish := BullishFVG(c1.High, c3.Low)
	if bullish && !ctx.HasPosition {
		sl := c1.High
		return &Signal{Side: domain.Buy, Reason: "bullish_fvg", Confidence: 0.6, SuggestedStopLoss: &sl}
	}

	if ctx.HasPosition {
		if gapDown, bearish := BearishFVG(c1.Low, c3.High); bearish && gapDown.IsPositive() {
			return &Signal{Side: domain.Sell, Reason: "bearish_fvg", Confidence: 0.55}
		}
	}
	return nil
}
