// Package features wraps the go-talib indicator library behind the
// FeatureSet the Analyst's candle pipeline and every strategy consume
// (spec §4.2 stage 3, §4.3). Indicator math stays in float64; callers
// convert at the domain boundary via internal/decimalx (spec §9).
package features

import (
	"github.com/markcheno/go-talib"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
)

// FeatureSet is the per-symbol snapshot of every indicator the engine
// computes from a candle history, plus the statistical features the
// regime detector and strategies need (Hurst proxy, realized volatility,
// skewness).
type FeatureSet struct {
	Price float64

	SMAFast  float64
	SMASlow  float64
	SMATrend float64

	RSI float64

	MACD       float64
	MACDSignal float64
	MACDHist   float64

	ATR float64

	BollingerUpper  float64
	BollingerMiddle float64
	BollingerLower  float64

	ADX float64

	Hurst          float64
	RealizedVol    float64
	Skewness       float64
	RegressionSlope float64

	OFI float64 // order-flow imbalance, supplied by the order-flow strategy's own tick feed

	Ready bool // false until enough history exists for every indicator above
}

// Service computes a FeatureSet from a symbol's rolling candle history.
type Service struct {
	params config.StrategyParams
}

// NewService builds a feature service parameterized by the configured
// indicator periods (spec §6 "Strategy-specific" list).
func NewService(params config.StrategyParams) *Service {
	return &Service{params: params}
}

// minBarsNeeded is the longest lookback any wired indicator requires;
// below this, Update returns a FeatureSet with Ready=false and
// zero-valued indicators rather than guessing (spec §4.10: "degraded
// mode ... zero-initialized indicators").
func (s *Service) minBarsNeeded() int {
	return s.MaxPeriod() + 5
}

// MaxPeriod returns the longest lookback period any wired indicator
// configures, i.e. `max(periods)` from spec §4.10's warmup fetch-size
// formula.
func (s *Service) MaxPeriod() int {
	longest := s.params.SMATrend
	for _, p := range []int{s.params.SMAFast, s.params.SMASlow, s.params.RSIPeriod, s.params.MACDSlow, s.params.ATRPeriod, s.params.BollingerPeriod} {
		if p > longest {
			longest = p
		}
	}
	return longest
}

// Update runs every wired indicator over history (oldest-first) and
// returns the resulting FeatureSet for the most recent bar.
func (s *Service) Update(history []domain.Candle) FeatureSet {
	n := len(history)
	if n < s.minBarsNeeded() {
		return FeatureSet{}
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range history {
		closes[i] = decimalx.ToFloat(c.Close)
		highs[i] = decimalx.ToFloat(c.High)
		lows[i] = decimalx.ToFloat(c.Low)
	}

	smaFast := talib.Sma(closes, s.params.SMAFast)
	smaSlow := talib.Sma(closes, s.params.SMASlow)
	smaTrend := talib.Sma(closes, s.params.SMATrend)
	rsi := talib.Rsi(closes, s.params.RSIPeriod)
	macd, macdSignal, macdHist := talib.Macd(closes, s.params.MACDFast, s.params.MACDSlow, s.params.MACDSignal)
	atr := talib.Atr(highs, lows, closes, s.params.ATRPeriod)
	upper, middle, lower := talib.BBands(closes, s.params.BollingerPeriod, s.params.BollingerStdDev, s.params.BollingerStdDev, talib.SMA)
	adx := talib.Adx(highs, lows, closes, s.params.ATRPeriod)

	last := n - 1
	fs := FeatureSet{
		Price:           closes[last],
		SMAFast:         last2(smaFast),
		SMASlow:         last2(smaSlow),
		SMATrend:        last2(smaTrend),
		RSI:             last2(rsi),
		MACD:            last2(macd),
		MACDSignal:      last2(macdSignal),
		MACDHist:        last2(macdHist),
		ATR:             last2(atr),
		BollingerUpper:  last2(upper),
		BollingerMiddle: last2(middle),
		BollingerLower:  last2(lower),
		ADX:             last2(adx),
		Ready:           true,
	}

	fs.Hurst = hurstProxy(closes)
	fs.RealizedVol = realizedVolatility(closes)
	fs.Skewness = skewness(closes)
	fs.RegressionSlope = regressionSlope(closes)

	return fs
}

func last2(series []float64) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// SMA50 computes the 50-period simple moving average over history's
// closes, independent of the strategy-configured SMATrend period (the
// news handler's fixed trend filter, spec §4.8). Returns false below 50
// bars.
func SMA50(history []domain.Candle) (float64, bool) {
	const period = 50
	if len(history) < period {
		return 0, false
	}
	closes := make([]float64, len(history))
	for i, c := range history {
		closes[i] = decimalx.ToFloat(c.Close)
	}
	sma := talib.Sma(closes, period)
	return last2(sma), true
}

