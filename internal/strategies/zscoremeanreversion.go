package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
)

// ZScoreMeanReversion enters when the price's z-score against the
// trailing lookback window exceeds the entry threshold and exits once
// it reverts inside the exit band (spec §4.3 "zscore_mr" mode, §8
// Numerical properties).
type ZScoreMeanReversion struct {
	params config.StrategyParams
}

func NewZScoreMeanReversion(params config.StrategyParams) *ZScoreMeanReversion {
	return &ZScoreMeanReversion{params: params}
}

func (s *ZScoreMeanReversion) Name() string { return "zscore_mr" }

func (s *ZScoreMeanReversion) Warmup(ctx AnalysisContext) {}

func (s *ZScoreMeanReversion) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) {
		return nil
	}
	cl := closes(ctx.CandleHistory)
	if len(cl) < 1 {
		return nil
	}
	history := make([]float64, len(cl)-1)
	for i := 0; i < len(cl)-1; i++ {
		history[i] = decimalx.ToFloat(cl[i])
	}
	current := decimalx.ToFloat(cl[len(cl)-1])

	z, ok := ZScore(history, current, s.params.ZScoreLookback)
	if !ok {
		return nil
	}

	if z <= -s.params.ZScoreEntry && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "zscore_oversold", Confidence: decimalx.ClampFloat(-z/s.params.ZScoreEntry, 0, 1)}
	}
	if ctx.HasPosition && z >= -s.params.ZScoreExit {
		return &Signal{Side: domain.Sell, Reason: "zscore_reverted", Confidence: 0.5}
	}
	return nil
}
