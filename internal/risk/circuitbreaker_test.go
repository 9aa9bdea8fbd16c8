package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

func cfg() config.RiskConfig {
	return config.RiskConfig{MaxDailyLossPct: 0.03, MaxDrawdownPct: 0.10, ConsecutiveLossLimit: 3}
}

func TestCircuitBreakerHaltsOnDailyLoss(t *testing.T) {
	b := NewCircuitBreaker(cfg())
	state := domain.RiskState{DailyStartEquity: decimal.NewFromInt(100000), EquityHighWaterMark: decimal.NewFromInt(100000)}
	result := b.Evaluate(state, decimal.NewFromInt(96000))
	assert.True(t, result.Halt)
	assert.Equal(t, "daily_loss_limit", result.Reason)
}

func TestCircuitBreakerHaltsOnDrawdown(t *testing.T) {
	b := NewCircuitBreaker(cfg())
	state := domain.RiskState{DailyStartEquity: decimal.NewFromInt(2000), EquityHighWaterMark: decimal.NewFromInt(3000)}
	result := b.Evaluate(state, decimal.NewFromInt(2000))
	assert.True(t, result.Halt)
	assert.Equal(t, "max_drawdown", result.Reason)
}

func TestCircuitBreakerHaltsOnConsecutiveLosses(t *testing.T) {
	b := NewCircuitBreaker(cfg())
	state := domain.RiskState{DailyStartEquity: decimal.NewFromInt(100000), EquityHighWaterMark: decimal.NewFromInt(100000), ConsecutiveLosses: 3}
	result := b.Evaluate(state, decimal.NewFromInt(100000))
	assert.True(t, result.Halt)
	assert.Equal(t, "consecutive_loss_limit", result.Reason)
}

func TestCircuitBreakerNoHaltWithinBounds(t *testing.T) {
	b := NewCircuitBreaker(cfg())
	state := domain.RiskState{DailyStartEquity: decimal.NewFromInt(100000), EquityHighWaterMark: decimal.NewFromInt(100000)}
	result := b.Evaluate(state, decimal.NewFromInt(99000))
	assert.False(t, result.Halt)
}

// TestCircuitBreakerSkipOnMissingPrices mirrors spec §8 boundary
// scenario 6: holding AAPL at a -33% unrealized loss by average cost,
// but GetPrices returns empty -> the breaker must not evaluate at all.
func TestCircuitBreakerSkipOnMissingPrices(t *testing.T) {
	positions := map[string]*domain.Position{"AAPL": {Symbol: "AAPL", Quantity: decimal.NewFromInt(20), AveragePrice: decimal.NewFromInt(100)}}
	assert.True(t, ShouldSkipEvaluation(positions, map[string]decimal.Decimal{}))

	assert.False(t, ShouldSkipEvaluation(positions, map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(100)}))
}

func TestLiquidationPriceAppliesSlippage(t *testing.T) {
	price := LiquidationPrice(decimal.NewFromInt(100), 0.01)
	assert.True(t, decimal.NewFromFloat(99).Equal(price))
}
