package features

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/aegis/internal/config"
)

func TestRealizedVolatilityZeroOnFlatSeries(t *testing.T) {
	closes := []float64{100, 100, 100, 100, 100}
	assert.InDelta(t, 0, realizedVolatility(closes), 1e-9)
}

func TestRegressionSlopePositiveOnUptrend(t *testing.T) {
	closes := []float64{100, 101, 102, 103, 104, 105}
	assert.Greater(t, regressionSlope(closes), 0.0)
}

func TestRegressionSlopeNegativeOnDowntrend(t *testing.T) {
	closes := []float64{105, 104, 103, 102, 101, 100}
	assert.Less(t, regressionSlope(closes), 0.0)
}

func TestHurstProxyClampedToUnitInterval(t *testing.T) {
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		if i%2 == 0 {
			price += 1
		} else {
			price -= 1
		}
		closes[i] = price
	}
	h := hurstProxy(closes)
	assert.GreaterOrEqual(t, h, 0.0)
	assert.LessOrEqual(t, h, 1.0)
}

func TestUpdateNotReadyBelowMinBars(t *testing.T) {
	svc := NewService(config.StrategyParams{SMAFast: 10, SMASlow: 30, SMATrend: 200, RSIPeriod: 14, MACDFast: 12, MACDSlow: 26, MACDSignal: 9, ATRPeriod: 14, BollingerPeriod: 20, BollingerStdDev: 2})
	fs := svc.Update(nil)
	assert.False(t, fs.Ready)
}
