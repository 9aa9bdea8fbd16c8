// Package symbolctx holds the per-symbol state the Analyst exclusively
// owns and mutates: the active strategy variant, rolling histories,
// regime/expectancy state, and the trailing-stop/pending-order gate
// (spec §3 "symbol_states map"; §9 "Per-symbol context held by index").
package symbolctx

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/evaluation"
	"github.com/aristath/aegis/internal/features"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/strategies"
)

// HistoryLimit bounds the rolling candle/RSI/OFI history kept per
// symbol (spec §3: "rolling candle history bounded to 100").
const HistoryLimit = 100

// Context is the mutable per-symbol state created lazily on first
// observation and touched only by the Analyst's own task (spec §9: "No
// cyclic references are required; back-references ... are replaced by
// returning requests on channels").
type Context struct {
	Symbol string

	Strategy       strategies.Strategy
	Features       *features.Service
	RegimeDetector *market.RegimeDetector
	Expectancy     *evaluation.ExpectancyEvaluator

	CandleHistory []domain.Candle
	RSIHistory    []float64
	OFIHistory    []float64

	LastFeatures features.FeatureSet
	LastRegime   domain.MarketRegime

	Position *domain.PositionManager

	CachedRewardRiskRatio float64
	LastEntryTime         int64
	MinHoldTimeSeconds    int64

	WarmupSucceeded bool

	// baseMode/params/modelPath are retained so the active strategy can
	// be rebuilt in place when regime-driven appetite scaling or
	// RegimeAdaptive hysteresis changes which variant should run (spec
	// §4.2 stage 2).
	baseMode  config.StrategyMode
	params    config.StrategyParams
	modelPath string

	// BaseAppetiteScore is the configured risk_appetite_score (1..9);
	// AppetiteScore is BaseAppetiteScore adjusted by the detected
	// regime (spec §4.2: "reduce the appetite score by 3 in Volatile, 2
	// in TrendingDown, clamped to [1,9]; if the score changed, rebuild
	// the active strategy").
	BaseAppetiteScore int
	AppetiteScore     int

	// ActiveRegimeMode is the last regime-resolved strategy mode under
	// config.StrategyRegimeAdaptive (spec §4.2 RegimeAdaptive
	// hysteresis); empty until confidence first clears
	// market.HysteresisConfidence.
	ActiveRegimeMode string
}

// New builds a Context for symbol, wiring its strategy variant and
// per-symbol feature/regime/expectancy machinery from the shared
// engine configuration.
func New(symbol string, mode config.StrategyMode, params config.StrategyParams, modelPath string, winRates *evaluation.WinRateProvider, minHoldTimeSeconds int64) *Context {
	return NewWithAppetite(symbol, mode, params, modelPath, winRates, minHoldTimeSeconds, 5)
}

// NewWithAppetite is New plus an explicit starting risk_appetite_score,
// used by the Analyst so regime-driven appetite scaling has a baseline
// to scale from (spec §4.2 stage 2).
func NewWithAppetite(symbol string, mode config.StrategyMode, params config.StrategyParams, modelPath string, winRates *evaluation.WinRateProvider, minHoldTimeSeconds int64, baseAppetiteScore int) *Context {
	return &Context{
		Symbol:             symbol,
		Strategy:           strategies.New(mode, params, modelPath),
		Features:           features.NewService(params),
		RegimeDetector:     market.NewRegimeDetector(),
		Expectancy:         evaluation.NewExpectancyEvaluator(winRates),
		Position:           domain.NewPositionManager(),
		MinHoldTimeSeconds: minHoldTimeSeconds,
		baseMode:           mode,
		params:             params,
		modelPath:          modelPath,
		BaseAppetiteScore:  baseAppetiteScore,
		AppetiteScore:      baseAppetiteScore,
	}
}

// AppendCandle pushes a newly finalized candle onto the rolling
// history, evicting the oldest entry once HistoryLimit is exceeded, and
// recomputes the cached feature set and regime.
func (c *Context) AppendCandle(candle domain.Candle) {
	c.CandleHistory = append(c.CandleHistory, candle)
	if len(c.CandleHistory) > HistoryLimit {
		c.CandleHistory = c.CandleHistory[len(c.CandleHistory)-HistoryLimit:]
	}

	c.LastFeatures = c.Features.Update(c.CandleHistory)
	c.RSIHistory = appendBounded(c.RSIHistory, c.LastFeatures.RSI, HistoryLimit)
	c.LastRegime = c.RegimeDetector.Detect(c.LastFeatures, c.CandleHistory)

	c.applyRegimeAdaptation()
}

// applyRegimeAdaptation implements spec §4.2 stage 2's dynamic risk
// scaling and RegimeAdaptive hysteresis switching. A changed appetite
// score rebuilds the active strategy variant in place (same mode, same
// params, fresh instance); under config.StrategyRegimeAdaptive the
// regime itself also picks the variant, with switches gated on
// confidence so a flickering regime read doesn't thrash the strategy.
func (c *Context) applyRegimeAdaptation() {
	adjusted := clampScore(c.BaseAppetiteScore + market.AppetiteAdjustment(c.LastRegime.Type))
	scoreChanged := adjusted != c.AppetiteScore
	c.AppetiteScore = adjusted

	if c.baseMode == config.StrategyRegimeAdaptive {
		if mode, ok := market.RegimeAdaptiveStrategy(c.LastRegime); ok && mode != c.ActiveRegimeMode {
			c.ActiveRegimeMode = mode
			c.Strategy = strategies.New(config.StrategyMode(mode), c.params, c.modelPath)
			return
		}
	}

	if scoreChanged {
		mode := c.baseMode
		if c.baseMode == config.StrategyRegimeAdaptive && c.ActiveRegimeMode != "" {
			mode = config.StrategyMode(c.ActiveRegimeMode)
		}
		c.Strategy = strategies.New(mode, c.params, c.modelPath)
	}
}

func clampScore(v int) int {
	if v < 1 {
		return 1
	}
	if v > 9 {
		return 9
	}
	return v
}

// AppendOFI records a new order-flow-imbalance sample for the
// OrderFlow strategy variant.
func (c *Context) AppendOFI(ofi float64) {
	c.OFIHistory = appendBounded(c.OFIHistory, ofi, HistoryLimit)
}

// AnalysisContext assembles the Strategy-facing view from current
// state. price and hasPosition come from the caller because they
// reflect the live portfolio, which this Context does not own.
func (c *Context) AnalysisContext(price decimal.Decimal, hasPosition bool, timestamp int64) strategies.AnalysisContext {
	return strategies.AnalysisContext{
		Symbol:        c.Symbol,
		Price:         price,
		Features:      c.LastFeatures,
		HasPosition:   hasPosition,
		CandleHistory: c.CandleHistory,
		RSIHistory:    c.RSIHistory,
		OFIHistory:    c.OFIHistory,
		Regime:        c.LastRegime,
		Timestamp:     timestamp,
	}
}

func appendBounded(series []float64, v float64, limit int) []float64 {
	series = append(series, v)
	if len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series
}
