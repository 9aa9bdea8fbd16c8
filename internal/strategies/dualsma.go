package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// DualSMA enters long on a fast/slow SMA golden cross and is the
// "standard" fallback variant (spec §8 Testable Properties: "golden
// cross entry").
type DualSMA struct {
	Fast, Slow int
}

// NewDualSMA builds the variant from the engine's configured SMA periods.
func NewDualSMA(params config.StrategyParams) *DualSMA {
	return &DualSMA{Fast: params.SMAFast, Slow: params.SMASlow}
}

func (s *DualSMA) Name() string { return "standard" }

func (s *DualSMA) Warmup(ctx AnalysisContext) {}

func (s *DualSMA) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) {
		return nil
	}
	cl := closes(ctx.CandleHistory)
	last := len(cl) - 1
	if last < 1 {
		return nil
	}

	fastNow, ok1 := smaAt(cl, last, s.Fast)
	slowNow, ok2 := smaAt(cl, last, s.Slow)
	fastPrev, ok3 := smaAt(cl, last-1, s.Fast)
	slowPrev, ok4 := smaAt(cl, last-1, s.Slow)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil
	}

	crossedUp := !fastPrev.GreaterThan(slowPrev) && fastNow.GreaterThan(slowNow)
	if crossedUp && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "golden_cross", Confidence: 0.6}
	}

	crossedDown := !fastPrev.LessThan(slowPrev) && fastNow.LessThan(slowNow)
	if crossedDown && ctx.HasPosition {
		return &Signal{Side: domain.Sell, Reason: "death_cross", Confidence: 0.6}
	}
	return nil
}
