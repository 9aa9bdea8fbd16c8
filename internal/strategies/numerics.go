package strategies

import (
	"math"

	"github.com/shopspring/decimal"
)

// VWAP computes the volume-weighted average price over aligned typical-
// price/volume pairs, in decimal throughout (spec §8 Numerical
// properties: VWAP over [(100,1000),(102,2000),(101,1000)] = 101.25
// exactly).
func VWAP(typicalPrices []decimal.Decimal, volumes []decimal.Decimal) (decimal.Decimal, bool) {
	if len(typicalPrices) == 0 || len(typicalPrices) != len(volumes) {
		return decimal.Zero, false
	}
	sumPV := decimal.Zero
	sumV := decimal.Zero
	for i := range typicalPrices {
		sumPV = sumPV.Add(typicalPrices[i].Mul(volumes[i]))
		sumV = sumV.Add(volumes[i])
	}
	if sumV.IsZero() {
		return decimal.Zero, false
	}
	return sumPV.Div(sumV), true
}

// BullishFVG returns the Fair Value Gap between the first candle's high
// and the third candle's low in a three-candle window. A positive gap
// is a bullish imbalance (spec §8: C1.high=100, C3.low=105 → gap=5.00
// exactly; glossary "FVG").
func BullishFVG(c1High, c3Low decimal.Decimal) (gap decimal.Decimal, bullish bool) {
	gap = c3Low.Sub(c1High)
	return gap, gap.IsPositive()
}

// BearishFVG is the mirror case: the first candle's low above the
// third candle's high.
func BearishFVG(c1Low, c3High decimal.Decimal) (gap decimal.Decimal, bearish bool) {
	gap = c1Low.Sub(c3High)
	return gap, gap.IsPositive()
}

// ZScore computes the sample z-score of current against the trailing
// window of size lookback taken from history with current appended as
// its last element (spec §8: closes [10,20,30], current=40, lookback=3
// → 1.0, sample stddev).
func ZScore(history []float64, current float64, lookback int) (float64, bool) {
	combined := append(append([]float64{}, history...), current)
	if len(combined) < lookback || lookback < 2 {
		return 0, false
	}
	window := combined[len(combined)-lookback:]

	var sum float64
	for _, v := range window {
		sum += v
	}
	mean := sum / float64(len(window))

	var sumSq float64
	for _, v := range window {
		d := v - mean
		sumSq += d * d
	}
	variance := sumSq / float64(len(window)-1)
	stddev := math.Sqrt(variance)
	if stddev == 0 {
		return 0, false
	}
	return (current - mean) / stddev, true
}
