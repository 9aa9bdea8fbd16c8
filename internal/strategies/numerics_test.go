package strategies

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestVWAPExactDecimal(t *testing.T) {
	tp := []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(102), decimal.NewFromInt(101)}
	v := []decimal.Decimal{decimal.NewFromInt(1000), decimal.NewFromInt(2000), decimal.NewFromInt(1000)}

	vwap, ok := VWAP(tp, v)
	assert.True(t, ok)
	assert.True(t, decimal.NewFromFloat(101.25).Equal(vwap), "got %s", vwap)
}

func TestBullishFVGExactGap(t *testing.T) {
	gap, bullish := BullishFVG(decimal.NewFromInt(100), decimal.NewFromInt(105))
	assert.True(t, bullish)
	assert.True(t, decimal.NewFromInt(5).Equal(gap), "got %s", gap)
}

func TestZScoreSampleStdDev(t *testing.T) {
	z, ok := ZScore([]float64{10, 20, 30}, 40, 3)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, z, 1e-9)
}

func TestZScoreInsufficientHistory(t *testing.T) {
	_, ok := ZScore([]float64{10}, 20, 3)
	assert.False(t, ok)
}
