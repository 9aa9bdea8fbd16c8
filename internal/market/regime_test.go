package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/features"
)

func TestDetectFromFeaturesVolatile(t *testing.T) {
	d := NewRegimeDetector()
	fs := features.FeatureSet{Ready: true, Hurst: 0.5, RealizedVol: 0.05}
	regime := d.Detect(fs, nil)
	assert.Equal(t, domain.RegimeVolatile, regime.Type)
}

func TestDetectFromFeaturesTrendingUp(t *testing.T) {
	d := NewRegimeDetector()
	fs := features.FeatureSet{Ready: true, Hurst: 0.8, RealizedVol: 0.001, RegressionSlope: 0.01}
	regime := d.Detect(fs, nil)
	assert.Equal(t, domain.RegimeTrendingUp, regime.Type)
	assert.InDelta(t, 0.6, regime.Confidence, 1e-9)
}

func TestDetectFromFeaturesRanging(t *testing.T) {
	d := NewRegimeDetector()
	fs := features.FeatureSet{Ready: true, Hurst: 0.2, RealizedVol: 0.001}
	regime := d.Detect(fs, nil)
	assert.Equal(t, domain.RegimeRanging, regime.Type)
}

func TestDetectFromHistoryUnknownOnShortWindow(t *testing.T) {
	d := NewRegimeDetector()
	regime := d.Detect(features.FeatureSet{}, nil)
	assert.Equal(t, domain.RegimeUnknown, regime.Type)
}

func TestAppetiteAdjustment(t *testing.T) {
	assert.Equal(t, -3, AppetiteAdjustment(domain.RegimeVolatile))
	assert.Equal(t, -2, AppetiteAdjustment(domain.RegimeTrendingDown))
	assert.Equal(t, 0, AppetiteAdjustment(domain.RegimeRanging))
}

func TestRegimeAdaptiveStrategyHysteresis(t *testing.T) {
	_, ok := RegimeAdaptiveStrategy(domain.MarketRegime{Type: domain.RegimeTrendingUp, Confidence: 0.4})
	assert.False(t, ok, "below hysteresis threshold must not switch")

	mode, ok := RegimeAdaptiveStrategy(domain.MarketRegime{Type: domain.RegimeRanging, Confidence: 0.7})
	assert.True(t, ok)
	assert.Equal(t, "zscore_mr", mode)
}
