package market

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/features"
)

// Default thresholds from spec §4.2: "default ADX-like threshold 25,
// volatility threshold 2%".
const (
	DefaultTrendThreshold      = 25.0
	DefaultVolatilityThreshold = 0.02
	// HysteresisConfidence is the minimum confidence required before a
	// RegimeAdaptive strategy switch is allowed (spec §4.2, §9).
	HysteresisConfidence = 0.6
)

// RegimeDetector classifies a symbol's MarketRegime. It prefers the O(1)
// path over already-computed features (Hurst, realized volatility) and
// falls back to a lookback-window analysis over candle history when
// those aren't available yet (spec §4.2 stage 2).
type RegimeDetector struct {
	TrendThreshold      float64
	VolatilityThreshold float64
}

// NewRegimeDetector returns a detector using the spec's defaults.
func NewRegimeDetector() *RegimeDetector {
	return &RegimeDetector{TrendThreshold: DefaultTrendThreshold, VolatilityThreshold: DefaultVolatilityThreshold}
}

// Detect classifies the regime. fs is the latest FeatureSet (may be
// zero-valued if not Ready); history is the rolling candle window used
// for the fallback path.
func (d *RegimeDetector) Detect(fs features.FeatureSet, history []domain.Candle) domain.MarketRegime {
	if fs.Ready && fs.Hurst != 0 {
		return d.detectFromFeatures(fs)
	}
	return d.detectFromHistory(history)
}

func (d *RegimeDetector) detectFromFeatures(fs features.FeatureSet) domain.MarketRegime {
	if fs.RealizedVol > d.VolatilityThreshold {
		return domain.MarketRegime{
			Type:            domain.RegimeVolatile,
			Confidence:      decimalx.ClampFloat(fs.RealizedVol/d.VolatilityThreshold-1, 0, 1),
			VolatilityScore: fs.RealizedVol,
			TrendStrength:   fs.RegressionSlope,
		}
	}
	if fs.Hurst > 0.6 {
		regimeType := domain.RegimeTrendingUp
		if fs.RegressionSlope < 0 {
			regimeType = domain.RegimeTrendingDown
		}
		return domain.MarketRegime{
			Type:            regimeType,
			Confidence:      decimalx.ClampFloat(2*(fs.Hurst-0.5), 0, 1),
			VolatilityScore: fs.RealizedVol,
			TrendStrength:   fs.RegressionSlope,
		}
	}
	if fs.Hurst < 0.4 {
		return domain.MarketRegime{
			Type:            domain.RegimeRanging,
			Confidence:      decimalx.ClampFloat(2*(0.5-fs.Hurst), 0, 1),
			VolatilityScore: fs.RealizedVol,
			TrendStrength:   fs.RegressionSlope,
		}
	}
	return domain.MarketRegime{Type: domain.RegimeUnknown, VolatilityScore: fs.RealizedVol, TrendStrength: fs.RegressionSlope}
}

// detectFromHistory is the fallback path when no feature set is
// available yet: ATR/price proxies volatility, a linear-regression
// slope (scaled into an ADX-like magnitude) proxies trend strength.
func (d *RegimeDetector) detectFromHistory(history []domain.Candle) domain.MarketRegime {
	if len(history) < 5 {
		return domain.MarketRegime{Type: domain.RegimeUnknown}
	}

	closes := make([]float64, len(history))
	var trueRanges []float64
	for i, c := range history {
		closes[i] = decimalx.ToFloat(c.Close)
		if i > 0 {
			prevClose := decimalx.ToFloat(history[i-1].Close)
			high := decimalx.ToFloat(c.High)
			low := decimalx.ToFloat(c.Low)
			tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
			trueRanges = append(trueRanges, tr)
		}
	}

	avgTR := stat.Mean(trueRanges, nil)
	lastPrice := closes[len(closes)-1]
	volatility := 0.0
	if lastPrice > 0 {
		volatility = avgTR / lastPrice
	}

	xs := make([]float64, len(closes))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, closes, nil, false)
	meanPrice := stat.Mean(closes, nil)
	trendStrength := 0.0
	if meanPrice > 0 {
		trendStrength = (slope / meanPrice) * 100 * float64(len(closes))
	}

	if volatility > d.VolatilityThreshold {
		return domain.MarketRegime{
			Type:            domain.RegimeVolatile,
			Confidence:      decimalx.ClampFloat(volatility/d.VolatilityThreshold-1, 0, 1),
			VolatilityScore: volatility,
			TrendStrength:   trendStrength,
		}
	}

	if math.Abs(trendStrength) > d.TrendThreshold {
		regimeType := domain.RegimeTrendingUp
		if trendStrength < 0 {
			regimeType = domain.RegimeTrendingDown
		}
		return domain.MarketRegime{
			Type:            regimeType,
			Confidence:      decimalx.ClampFloat((math.Abs(trendStrength)-d.TrendThreshold)/d.TrendThreshold, 0, 1),
			VolatilityScore: volatility,
			TrendStrength:   trendStrength,
		}
	}

	return domain.MarketRegime{Type: domain.RegimeRanging, VolatilityScore: volatility, TrendStrength: trendStrength}
}

// AppetiteAdjustment returns the dynamic risk-scaling delta for a regime
// (spec §4.2: "reduce the appetite score by 3 in Volatile, 2 in
// TrendingDown, clamped to [1,9]").
func AppetiteAdjustment(regimeType domain.RegimeType) int {
	switch regimeType {
	case domain.RegimeVolatile:
		return -3
	case domain.RegimeTrendingDown:
		return -2
	default:
		return 0
	}
}

// RegimeAdaptiveStrategy maps a regime to the strategy mode string
// RegimeAdaptive configuration should switch to (spec §4.2). The
// returned bool is false when confidence is below HysteresisConfidence,
// signaling the caller should retain its current mode.
func RegimeAdaptiveStrategy(regime domain.MarketRegime) (mode string, ok bool) {
	if regime.Confidence < HysteresisConfidence {
		return "", false
	}
	switch regime.Type {
	case domain.RegimeTrendingUp, domain.RegimeTrendingDown:
		return "stat_momentum", true
	case domain.RegimeRanging:
		return "zscore_mr", true
	case domain.RegimeVolatile:
		return "momentum", true
	default:
		return "standard", true
	}
}
