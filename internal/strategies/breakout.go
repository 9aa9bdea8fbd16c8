package strategies

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// Breakout enters when price closes beyond the highest high of the
// lookback window by more than threshold, confirmed by volume exceeding
// its recent average times a multiplier (spec §4.3 "breakout" mode,
// §6 "breakout lookback/threshold/volume multiplier").
type Breakout struct {
	params config.StrategyParams
}

func NewBreakout(params config.StrategyParams) *Breakout {
	return &Breakout{params: params}
}

func (s *Breakout) Name() string { return "breakout" }

func (s *Breakout) Warmup(ctx AnalysisContext) {}

func (s *Breakout) Analyze(ctx AnalysisContext) *Signal {
	lookback := s.params.BreakoutLookback
	if coldStart(ctx) || len(ctx.CandleHistory) < lookback+1 {
		return nil
	}
	n := len(ctx.CandleHistory)
	window := ctx.CandleHistory[n-lookback-1 : n-1]

	highest := window[0].High
	var volSum int64
	for _, c := range window {
		if c.High.GreaterThan(highest) {
			highest = c.High
		}
		volSum += c.Volume
	}
	avgVol := float64(volSum) / float64(len(window))

	current := ctx.CandleHistory[n-1]
	threshold := decimal.NewFromFloat(s.params.BreakoutThreshold)
	breakoutLevel := highest.Mul(decimal.NewFromInt(1).Add(threshold))

	volumeConfirmed := float64(current.Volume) > avgVol*s.params.BreakoutVolumeMultiplier

	if current.Close.GreaterThan(breakoutLevel) && volumeConfirmed && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "breakout_confirmed", Confidence: 0.65}
	}
	if ctx.HasPosition && current.Close.LessThan(highest) {
		return &Signal{Side: domain.Sell, Reason: "breakout_failed", Confidence: 0.5}
	}
	return nil
}
