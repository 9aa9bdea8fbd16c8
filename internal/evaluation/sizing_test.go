package evaluation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestDynamicQuantitySizing mirrors spec §8 boundary scenario 3:
// equity $100,000, risk_per_trade=0.02, price=$100 -> Buy quantity = 20.
func TestDynamicQuantitySizing(t *testing.T) {
	s := NewSizingEngine()
	qty := s.BuyQuantity(SizingInput{
		Equity:             decimal.NewFromInt(100000),
		Cash:               decimal.NewFromInt(100000),
		Price:              decimal.NewFromInt(100),
		RiskPerTradePct:    0.02,
		MaxPositions:       1, // one bucket: equity/1/price = 1000 stays above the risk cap
		MaxPositionSizePct: 1.0,
	})
	assert.True(t, decimal.NewFromInt(20).Equal(qty), "got %s", qty)
}

func TestBuyQuantityZeroOnZeroPrice(t *testing.T) {
	s := NewSizingEngine()
	qty := s.BuyQuantity(SizingInput{Equity: decimal.NewFromInt(1000), Cash: decimal.NewFromInt(1000), Price: decimal.Zero, RiskPerTradePct: 0.02, MaxPositions: 10, MaxPositionSizePct: 0.2})
	assert.True(t, qty.IsZero())
}

func TestBuyQuantityCappedByCash(t *testing.T) {
	s := NewSizingEngine()
	qty := s.BuyQuantity(SizingInput{
		Equity:             decimal.NewFromInt(100000),
		Cash:               decimal.NewFromInt(50),
		Price:              decimal.NewFromInt(100),
		RiskPerTradePct:    0.5,
		MaxPositions:       1,
		MaxPositionSizePct: 1.0,
	})
	assert.True(t, qty.LessThanOrEqual(decimal.NewFromFloat(0.5)))
}
