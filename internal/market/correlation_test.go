package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAverageCorrelationHighForIdenticalSeries(t *testing.T) {
	f := NewCorrelationFilter(0.8)
	series := []float64{0.01, -0.02, 0.03, -0.01, 0.02}
	f.SetReturns("AAPL", series)
	f.SetReturns("MSFT", series)

	avg, ok := f.AverageCorrelation("AAPL", []string{"MSFT"})
	assert.True(t, ok)
	assert.InDelta(t, 1.0, avg, 1e-9)
	assert.True(t, f.Exceeds("AAPL", []string{"MSFT"}))
}

func TestAverageCorrelationFalseWhenNoOverlap(t *testing.T) {
	f := NewCorrelationFilter(0.8)
	f.SetReturns("AAPL", []float64{0.01, 0.02})

	_, ok := f.AverageCorrelation("AAPL", []string{"MSFT"})
	assert.False(t, ok)
	assert.False(t, f.Exceeds("AAPL", []string{"MSFT"}), "missing data must not trigger a rejection")
}
