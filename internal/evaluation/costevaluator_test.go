package evaluation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestIsProfitableRejectsThinMargin(t *testing.T) {
	c := NewCostEvaluator(0.001, decimal.NewFromFloat(0.01))
	ok := c.IsProfitable(decimal.NewFromFloat(1), decimal.NewFromInt(10000), decimal.NewFromInt(10), 1.5)
	assert.False(t, ok)
}

func TestIsProfitableAcceptsWideMargin(t *testing.T) {
	c := NewCostEvaluator(0.0005, decimal.NewFromFloat(0.01))
	ok := c.IsProfitable(decimal.NewFromFloat(50), decimal.NewFromInt(1000), decimal.NewFromInt(10), 1.5)
	assert.True(t, ok)
}

func TestIsProfitableFalseOnNonPositiveProfit(t *testing.T) {
	c := NewCostEvaluator(0.001, decimal.NewFromFloat(0.01))
	ok := c.IsProfitable(decimal.Zero, decimal.NewFromInt(1000), decimal.NewFromInt(10), 1.0)
	assert.False(t, ok)
}
