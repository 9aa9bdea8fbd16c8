package symbolctx

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/evaluation"
)

func testParams() config.StrategyParams {
	return config.StrategyParams{
		SMAFast: 2, SMASlow: 3, SMATrend: 5,
		RSIPeriod: 3, MACDFast: 2, MACDSlow: 3, MACDSignal: 2,
		ATRPeriod: 3, BollingerPeriod: 3, BollingerStdDev: 2,
	}
}

func TestAppendCandleBoundsHistory(t *testing.T) {
	winRates := evaluation.NewWinRateProvider(10, 0.5)
	ctx := New("AAPL", config.StrategyStandard, testParams(), "", winRates, 60)

	for i := 0; i < HistoryLimit+10; i++ {
		ctx.AppendCandle(domain.Candle{Symbol: "AAPL", Timestamp: int64(i) * 60, Open: decimal.NewFromInt(100), High: decimal.NewFromInt(100), Low: decimal.NewFromInt(100), Close: decimal.NewFromInt(100), Volume: 1})
	}

	require.Len(t, ctx.CandleHistory, HistoryLimit)
	assert.LessOrEqual(t, len(ctx.RSIHistory), HistoryLimit)
}

func TestApplyRegimeAdaptationRebuildsStrategyOnAppetiteChange(t *testing.T) {
	winRates := evaluation.NewWinRateProvider(10, 0.5)
	ctx := NewWithAppetite("AAPL", config.StrategyStandard, testParams(), "", winRates, 60, 5)
	before := ctx.Strategy

	ctx.LastRegime = domain.MarketRegime{Type: domain.RegimeVolatile, Confidence: 0.9}
	ctx.applyRegimeAdaptation()

	assert.Equal(t, 2, ctx.AppetiteScore, "expected base score 5 reduced by 3 in Volatile, clamped to [1,9]")
	assert.NotSame(t, before, ctx.Strategy, "appetite-score change should rebuild the active strategy")
	assert.Equal(t, "standard", ctx.Strategy.Name(), "rebuild must keep the configured mode, not switch it")
}

func TestApplyRegimeAdaptationClampsAppetiteScore(t *testing.T) {
	winRates := evaluation.NewWinRateProvider(10, 0.5)
	ctx := NewWithAppetite("AAPL", config.StrategyStandard, testParams(), "", winRates, 60, 2)

	ctx.LastRegime = domain.MarketRegime{Type: domain.RegimeVolatile, Confidence: 0.9}
	ctx.applyRegimeAdaptation()

	assert.Equal(t, 1, ctx.AppetiteScore, "2-3 clamps to the floor of 1, not a negative score")
}

func TestApplyRegimeAdaptationSwitchesRegimeAdaptiveModeAboveHysteresis(t *testing.T) {
	winRates := evaluation.NewWinRateProvider(10, 0.5)
	ctx := New("AAPL", config.StrategyRegimeAdaptive, testParams(), "", winRates, 60)
	assert.Equal(t, "", ctx.ActiveRegimeMode)

	ctx.LastRegime = domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.8}
	ctx.applyRegimeAdaptation()

	assert.Equal(t, "stat_momentum", ctx.ActiveRegimeMode)
	assert.Equal(t, "stat_momentum", ctx.Strategy.Name())
}

func TestApplyRegimeAdaptationHoldsModeBelowHysteresisConfidence(t *testing.T) {
	winRates := evaluation.NewWinRateProvider(10, 0.5)
	ctx := New("AAPL", config.StrategyRegimeAdaptive, testParams(), "", winRates, 60)
	before := ctx.Strategy

	ctx.LastRegime = domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.3}
	ctx.applyRegimeAdaptation()

	assert.Equal(t, "", ctx.ActiveRegimeMode, "low-confidence regime reads must not force a switch")
	assert.Same(t, before, ctx.Strategy)
}

func TestAnalysisContextReflectsLiveState(t *testing.T) {
	winRates := evaluation.NewWinRateProvider(10, 0.5)
	ctx := New("AAPL", config.StrategyStandard, testParams(), "", winRates, 60)
	ctx.AppendCandle(domain.Candle{Symbol: "AAPL", Timestamp: 60, Open: decimal.NewFromInt(100), High: decimal.NewFromInt(100), Low: decimal.NewFromInt(100), Close: decimal.NewFromInt(100), Volume: 1})

	ac := ctx.AnalysisContext(decimal.NewFromInt(101), true, 120)
	assert.Equal(t, "AAPL", ac.Symbol)
	assert.True(t, ac.HasPosition)
	assert.True(t, decimal.NewFromInt(101).Equal(ac.Price))
}
