package market

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// CorrelationFilter rejects a proposed symbol when its average |correlation|
// with currently held positions exceeds a threshold (spec §4.4 step 9).
// Supplemented from original_source/ ("monitoring/correlation_service.rs"):
// the distilled spec names the check but not its implementation; gonum's
// Pearson correlation over aligned return series is the natural Go
// equivalent of that service, mirroring the teacher's own use of
// gonum/stat in internal/modules/optimization/risk.go.
type CorrelationFilter struct {
	Threshold float64
	returns   map[string][]float64 // symbol -> aligned return series
}

// NewCorrelationFilter builds a filter at the configured threshold.
func NewCorrelationFilter(threshold float64) *CorrelationFilter {
	return &CorrelationFilter{Threshold: threshold, returns: make(map[string][]float64)}
}

// SetReturns installs the aligned return series for a symbol, overwriting
// any previous series. The caller is responsible for keeping series
// aligned across symbols (same bar index = same timestamp).
func (f *CorrelationFilter) SetReturns(symbol string, returns []float64) {
	f.returns[symbol] = returns
}

// AverageCorrelation returns the mean |Pearson correlation| of symbol's
// return series against every symbol in held. Pairs lacking overlapping
// history are skipped; if none overlap, ok is false and the caller
// should not reject on this check (spec principle: absence of data must
// never itself trigger a risk rejection, mirrored from the circuit
// breaker's "missing prices" rule in §4.4 step 6).
func (f *CorrelationFilter) AverageCorrelation(symbol string, held []string) (avg float64, ok bool) {
	target, exists := f.returns[symbol]
	if !exists || len(target) < 2 {
		return 0, false
	}

	var sum float64
	var count int
	for _, h := range held {
		if h == symbol {
			continue
		}
		other, exists := f.returns[h]
		if !exists {
			continue
		}
		n := min(len(target), len(other))
		if n < 2 {
			continue
		}
		corr := stat.Correlation(target[:n], other[:n], nil)
		if math.IsNaN(corr) {
			continue
		}
		sum += math.Abs(corr)
		count++
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// Exceeds reports whether symbol's average correlation with held
// positions exceeds the configured threshold.
func (f *CorrelationFilter) Exceeds(symbol string, held []string) bool {
	avg, ok := f.AverageCorrelation(symbol, held)
	if !ok {
		return false
	}
	return avg > f.Threshold
}
