package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/aegis/internal/domain"
)

func TestWinRateFallsBackBelowMinTrades(t *testing.T) {
	p := NewWinRateProvider(5, 0.55)
	p.RecordOutcome("AAPL", 10)
	assert.Equal(t, 0.55, p.WinRate("AAPL"))
}

func TestWinRateUsesEmpiricalAboveMinTrades(t *testing.T) {
	p := NewWinRateProvider(2, 0.5)
	p.RecordOutcome("AAPL", 10)
	p.RecordOutcome("AAPL", -5)
	assert.Equal(t, 0.5, p.WinRate("AAPL"))
}

func TestExpectancyClampedToBounds(t *testing.T) {
	winRates := NewWinRateProvider(100, 0.95)
	e := NewExpectancyEvaluator(winRates)

	exp := e.Evaluate("AAPL", 100, domain.MarketRegime{Type: domain.RegimeUnknown})
	assert.LessOrEqual(t, exp.WinProb, 0.9)
	assert.GreaterOrEqual(t, exp.WinProb, 0.1)
}

func TestExpectancyRewardRiskRatioIndependentOfPrice(t *testing.T) {
	winRates := NewWinRateProvider(100, 0.5)
	e := NewExpectancyEvaluator(winRates)

	exp1 := e.Evaluate("AAPL", 50, domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.8})
	exp2 := e.Evaluate("AAPL", 500, domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.8})
	assert.InDelta(t, exp1.RewardRiskRatio, exp2.RewardRiskRatio, 1e-9)
}

func TestExpectancyRewardRiskNonDecreasingInConfidence(t *testing.T) {
	winRates := NewWinRateProvider(100, 0.5)
	e := NewExpectancyEvaluator(winRates)

	zero := e.Evaluate("AAPL", 100, domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0})
	low := e.Evaluate("AAPL", 100, domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.1})
	high := e.Evaluate("AAPL", 100, domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.8})

	assert.LessOrEqual(t, zero.RewardRiskRatio, low.RewardRiskRatio)
	assert.LessOrEqual(t, low.RewardRiskRatio, high.RewardRiskRatio)
	assert.InDelta(t, 0.0, zero.RewardRiskRatio, 1e-9, "zero confidence should carry no reward, not a 0.5-confidence proxy")
}

func TestTradeFilterRejectsShortSelling(t *testing.T) {
	f := NewTradeFilter(30, 1)
	ok, reason := f.Allow(domain.Sell, false, false, 1000, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, "long_only_violation", reason)
}

func TestTradeFilterRejectsDuplicatePending(t *testing.T) {
	f := NewTradeFilter(30, 1)
	ok, reason := f.Allow(domain.Buy, false, true, 1000, 0, 0)
	assert.False(t, ok)
	assert.Equal(t, "duplicate_pending", reason)
}

func TestTradeFilterEnforcesCooldown(t *testing.T) {
	f := NewTradeFilter(30, 1)
	ok, reason := f.Allow(domain.Buy, false, false, 1010, 1000, 0)
	assert.False(t, ok)
	assert.Equal(t, "cooldown", reason)
}

func TestTradeFilterEnforcesMinHoldTime(t *testing.T) {
	f := NewTradeFilter(30, 1)
	ok, reason := f.Allow(domain.Sell, true, false, 1030, 0, 1000)
	assert.False(t, ok)
	assert.Equal(t, "min_hold_time", reason)
}
