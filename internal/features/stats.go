package features

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aristath/aegis/internal/decimalx"
)

// logReturns converts a close-price series into log returns.
func logReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 {
			out[i-1] = 0
			continue
		}
		out[i-1] = math.Log(closes[i] / closes[i-1])
	}
	return out
}

// realizedVolatility is the sample standard deviation of log returns
// over the full supplied window (spec §4.2: "realized volatility").
func realizedVolatility(closes []float64) float64 {
	returns := logReturns(closes)
	if len(returns) < 2 {
		return 0
	}
	return stat.StdDev(returns, nil)
}

// skewness is the sample skewness of the log-return distribution, one of
// the statistical features an AnalysisContext carries for strategies
// (spec §4.3: "statistical features (Hurst, skewness, realized
// volatility)").
func skewness(closes []float64) float64 {
	returns := logReturns(closes)
	if len(returns) < 3 {
		return 0
	}
	mean, std := stat.MeanStdDev(returns, nil)
	if std == 0 {
		return 0
	}
	n := float64(len(returns))
	var sum float64
	for _, r := range returns {
		z := (r - mean) / std
		sum += z * z * z
	}
	return sum / n
}

// hurstProxy is a cheap rescaled-range estimate of the Hurst exponent:
// >0.5 indicates trending, <0.5 mean-reverting (glossary). A full R/S
// analysis across multiple window sizes is out of scope for the O(1)
// regime-detection path (spec §4.2 stage 2); this single-window estimate
// is what the "fast path" (features carrying Hurst already) consumes.
func hurstProxy(closes []float64) float64 {
	returns := logReturns(closes)
	n := len(returns)
	if n < 8 {
		return 0.5
	}
	mean := stat.Mean(returns, nil)
	var cumulative, maxC, minC float64
	for _, r := range returns {
		cumulative += r - mean
		if cumulative > maxC {
			maxC = cumulative
		}
		if cumulative < minC {
			minC = cumulative
		}
	}
	rangeVal := maxC - minC
	std := stat.StdDev(returns, nil)
	if std == 0 || rangeVal == 0 {
		return 0.5
	}
	rs := rangeVal / std
	h := math.Log(rs) / math.Log(float64(n))
	return decimalx.ClampFloat(h, 0, 1)
}

// regressionSlope fits a simple linear regression of price against bar
// index and returns the slope, normalized by mean price so it is
// comparable across symbols (spec §4.2: "linear-regression slope for
// trend strength").
func regressionSlope(closes []float64) float64 {
	n := len(closes)
	if n < 3 {
		return 0
	}
	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	_, slope := stat.LinearRegression(xs, closes, nil, false)
	mean := stat.Mean(closes, nil)
	if mean == 0 {
		return 0
	}
	return slope / mean
}
