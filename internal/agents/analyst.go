package agents

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/evaluation"
	"github.com/aristath/aegis/internal/features"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/news"
	"github.com/aristath/aegis/internal/ports"
	"github.com/aristath/aegis/internal/registry"
	"github.com/aristath/aegis/internal/strategies"
	"github.com/aristath/aegis/internal/symbolctx"
	"github.com/aristath/aegis/internal/warmup"
)

const (
	analystHeartbeat = 5 * time.Second
	// pendingOrderTimeout is the Analyst-side fallback for a pending
	// order that never produced a terminal OrderUpdate (spec §4.2: "If
	// a pending order is older than 60s, query the broker for open
	// orders on that symbol; cancel each, or clear the pending state if
	// none exist"). This is independent of the RiskManager's 5s
	// reservation TTL, which only guards the funds ledger.
	pendingOrderTimeout = 60 * time.Second
	pendingOrderSweep   = 10 * time.Second
)

// Analyst owns every per-symbol symbolctx.Context: it is the only
// agent that reads and writes them (spec §9: "no cyclic references ...
// per-symbol context held by index"). Each finalized candle drives a
// six-stage pipeline (spec §4.2): ensure context, detect regime,
// update indicators, sync the position/trailing-stop, generate a
// signal, and emit a proposal.
type Analyst struct {
	marketEvents <-chan domain.MarketEvent
	orderUpdates <-chan domain.OrderUpdate
	newsEvents   <-chan domain.NewsSignal
	commands     chan symbolctx.Context // reserved for external strategy-mode switches; unused until the optimizer service lands
	proposals    chan<- domain.TradeProposal

	portfolio  *domain.Portfolio
	aggregator *market.CandleAggregator
	winRates   *evaluation.WinRateProvider
	warmup     *warmup.Service
	execution  ports.ExecutionService

	contexts map[string]*symbolctx.Context

	strategyMode       config.StrategyMode
	strategyParams     config.StrategyParams
	modelPath          string
	minHoldTimeSeconds int64
	takeProfitPct      float64
	trailingATRMult    decimal.Decimal
	rsiOverboughtLimit float64
	appetiteScore      int

	reg *registry.Registry
	log zerolog.Logger
}

// NewAnalyst builds an Analyst wired to the shared portfolio and the
// engine's strategy configuration. execution is used solely for the
// pending-order-timeout fallback (spec §4.2); it may be nil, in which
// case that fallback is simply not run.
func NewAnalyst(
	marketEvents <-chan domain.MarketEvent,
	orderUpdates <-chan domain.OrderUpdate,
	newsEvents <-chan domain.NewsSignal,
	proposals chan<- domain.TradeProposal,
	portfolio *domain.Portfolio,
	winRates *evaluation.WinRateProvider,
	warmupSvc *warmup.Service,
	execution ports.ExecutionService,
	cfg *config.Config,
	reg *registry.Registry,
	log zerolog.Logger,
) *Analyst {
	reg.Register("analyst")
	return &Analyst{
		marketEvents:       marketEvents,
		orderUpdates:       orderUpdates,
		newsEvents:         newsEvents,
		proposals:          proposals,
		portfolio:          portfolio,
		aggregator:         market.NewCandleAggregator(),
		winRates:           winRates,
		warmup:             warmupSvc,
		execution:          execution,
		contexts:           make(map[string]*symbolctx.Context),
		strategyMode:       cfg.StrategyMode,
		strategyParams:     cfg.Strategy,
		modelPath:          cfg.MLModelPath,
		minHoldTimeSeconds: cfg.MinHoldTimeMinutes * 60,
		takeProfitPct:      cfg.Risk.TakeProfitPct,
		trailingATRMult:    decimal.NewFromFloat(cfg.Strategy.TrailingStopATRMultiplier),
		rsiOverboughtLimit: cfg.Strategy.RSIThreshold,
		appetiteScore:      cfg.RiskAppetiteScore,
		reg:                reg,
		log:                log.With().Str("component", "analyst").Logger(),
	}
}

// Run drives the candle-pipeline loop until ctx is canceled.
func (a *Analyst) Run(ctx context.Context) {
	heartbeat := time.NewTicker(analystHeartbeat)
	defer heartbeat.Stop()
	pendingSweep := time.NewTicker(pendingOrderSweep)
	defer pendingSweep.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-a.marketEvents:
			if !ok {
				return
			}
			a.handleMarketEvent(ctx, evt)
		case u, ok := <-a.orderUpdates:
			if !ok {
				return
			}
			a.handleOrderUpdate(u)
		case n, ok := <-a.newsEvents:
			if !ok {
				return
			}
			a.handleNews(ctx, n)
		case <-pendingSweep.C:
			a.sweepPendingOrders(ctx)
		case <-heartbeat.C:
			a.reg.Heartbeat("analyst", "running")
		}
	}
}

// sweepPendingOrders implements the Analyst-side pending-order-timeout
// fallback (spec §4.2). It is independent of the RiskManager's 5s
// reservation TTL: that TTL only frees the funds ledger, it never tells
// the Analyst's own per-symbol gate that the order is gone, so without
// this sweep a broker-side failure to ever deliver a terminal
// OrderUpdate would wedge the symbol's gate open forever.
func (a *Analyst) sweepPendingOrders(ctx context.Context) {
	if a.execution == nil {
		return
	}
	now := time.Now().Unix()
	for symbol, sc := range a.contexts {
		if !sc.Position.HasPending() {
			continue
		}
		if now-sc.Position.PendingOrderTime < int64(pendingOrderTimeout/time.Second) {
			continue
		}
		open, err := a.execution.GetOpenOrders(ctx, symbol)
		if err != nil {
			a.log.Warn().Err(err).Str("symbol", symbol).Msg("pending-order timeout: broker query failed")
			continue
		}
		if len(open) == 0 {
			sc.Position.ClearPending()
			continue
		}
		for _, o := range open {
			if err := a.execution.CancelOrder(ctx, o.ID, symbol); err != nil {
				a.log.Warn().Err(err).Str("symbol", symbol).Str("order_id", o.ID).Msg("pending-order timeout: cancel failed")
			}
		}
		sc.Position.ClearPending()
	}
}

// contextFor returns (creating and warming up if necessary) the
// per-symbol context (spec §4.2 stage 1: "ensure context ... then warm
// it up"). Warmup runs synchronously here, on the Analyst's own
// goroutine: sc is owned exclusively by this goroutine (spec §9), so a
// background warmup would race with the candle pipeline's own writes.
func (a *Analyst) contextFor(ctx context.Context, symbol string) *symbolctx.Context {
	sc, ok := a.contexts[symbol]
	if !ok {
		sc = symbolctx.NewWithAppetite(symbol, a.strategyMode, a.strategyParams, a.modelPath, a.winRates, a.minHoldTimeSeconds, a.appetiteScore)
		a.contexts[symbol] = sc
		if a.warmup != nil {
			a.warmup.Warmup(ctx, sc)
		}
	}
	return sc
}

func (a *Analyst) handleMarketEvent(ctx context.Context, evt domain.MarketEvent) {
	switch evt.Kind {
	case domain.MarketEventSymbolSubscription:
		a.contextFor(ctx, evt.Symbol)
	case domain.MarketEventCandle:
		a.onCandle(ctx, evt.Candle)
	case domain.MarketEventQuote:
		if completed, ok := a.aggregator.Tick(evt.Symbol, evt.Price, evt.TimestampMs); ok {
			a.onCandle(ctx, completed)
		}
	}
}

// onCandle runs stages 1-6 of the candle pipeline for one finalized bar.
func (a *Analyst) onCandle(ctx context.Context, candle domain.Candle) {
	sc := a.contextFor(ctx, candle.Symbol) // stage 1: ensure context

	sc.AppendCandle(candle) // stages 2-3: regime + indicator update

	heldQty := a.portfolio.PositionQuantity(candle.Symbol)
	hasPosition := heldQty.IsPositive()

	if exit := a.syncPositionAndStop(sc, candle.Close, hasPosition, heldQty, candle.Timestamp); exit != nil {
		a.emitExit(ctx, sc, *exit, candle.Close, candle.Timestamp)
		return
	}

	analysisCtx := sc.AnalysisContext(candle.Close, hasPosition, candle.Timestamp) // stage 5 input
	signal := sc.Strategy.Analyze(analysisCtx)                                     // stage 5
	if signal == nil {
		return
	}
	if !a.passesStageSixFilters(sc, signal) {
		return
	}
	a.emitSignal(ctx, sc, signal, candle.Close, candle.Timestamp) // stage 6
}

// passesStageSixFilters applies the two pipeline-level filters spec
// §4.2 stage 6 layers on top of every strategy's own signal: an
// overbought RSI reading blocks a Buy, and an already-active trailing
// stop suppresses a strategy-originated Sell (only the stop itself may
// exit the position, preventing a double exit in the same bar).
func (a *Analyst) passesStageSixFilters(sc *symbolctx.Context, signal *strategies.Signal) bool {
	if signal.Side == domain.Buy && a.rsiOverboughtLimit > 0 && sc.LastFeatures.RSI > a.rsiOverboughtLimit {
		a.log.Debug().Str("symbol", sc.Symbol).Float64("rsi", sc.LastFeatures.RSI).Msg("stage 6: overbought RSI blocked buy")
		return false
	}
	if signal.Side == domain.Sell && sc.Position.TrailingStop.Kind == domain.ActiveStop {
		a.log.Debug().Str("symbol", sc.Symbol).Str("reason", signal.Reason).Msg("stage 6: active trailing stop suppressed strategy sell")
		return false
	}
	return true
}

// syncPositionAndStop advances the trailing stop and checks the
// partial-take-profit threshold (spec §4.2 stage 4). It returns a
// synthesized exit Signal when the stop has triggered or take-profit
// fires, taking priority over the strategy's own signal for this bar.
func (a *Analyst) syncPositionAndStop(sc *symbolctx.Context, price decimal.Decimal, hasPosition bool, heldQty decimal.Decimal, timestamp int64) *strategySignal {
	if !hasPosition {
		sc.Position.TrailingStop = domain.NewNoPosition()
		sc.Position.TakenProfit = false
		return nil
	}

	if sc.Position.TrailingStop.Kind == domain.ActiveStop {
		atr := decimalx.FromFloat(sc.LastFeatures.ATR)
		sc.Position.TrailingStop = sc.Position.TrailingStop.Advance(price, atr, a.trailingATRMult)
		if sc.Position.TrailingStop.Kind == domain.Triggered {
			return &strategySignal{Side: domain.Sell, Reason: "trailing_stop_triggered"}
		}

		if !sc.Position.TakenProfit && a.takeProfitPct > 0 {
			entry := sc.Position.TrailingStop.Entry
			target := entry.Mul(decimal.NewFromFloat(1 + a.takeProfitPct))
			if price.GreaterThanOrEqual(target) {
				sc.Position.TakenProfit = true
				return &strategySignal{Side: domain.Sell, Reason: "partial_take_profit", Quantity: decimalx.RoundQuantity(heldQty.Div(decimal.NewFromInt(2)))}
			}
		}
	}
	return nil
}

// strategySignal is the Analyst's internal representation of an exit
// decision synthesized outside the Strategy interface (trailing stop,
// partial take profit); it carries an explicit Quantity, which
// strategies.Signal does not need since a strategy-generated Sell
// always closes the full position.
type strategySignal struct {
	Side     domain.Side
	Reason   string
	Quantity decimal.Decimal
}

func (a *Analyst) baseProposal(sc *symbolctx.Context, price decimal.Decimal, timestamp int64) domain.TradeProposal {
	return domain.TradeProposal{
		Symbol:             sc.Symbol,
		Price:              price,
		OrderType:          domain.Market,
		Timestamp:          timestamp,
		Regime:             sc.LastRegime,
		RealizedVolatility: sc.LastFeatures.RealizedVol,
	}
}

// emitSignal converts a Strategy's Signal into a TradeProposal and
// sends it, carrying forward any suggested stop-loss/take-profit.
func (a *Analyst) emitSignal(ctx context.Context, sc *symbolctx.Context, sig *strategies.Signal, price decimal.Decimal, timestamp int64) {
	proposal := a.baseProposal(sc, price, timestamp)
	proposal.Side = sig.Side
	proposal.Reason = sig.Reason
	proposal.StopLoss = sig.SuggestedStopLoss
	proposal.TakeProfit = sig.SuggestedTakeProfit
	a.send(ctx, sc, proposal)
}

// emitExit converts a trailing-stop/take-profit exit into a
// TradeProposal and sends it.
func (a *Analyst) emitExit(ctx context.Context, sc *symbolctx.Context, sig strategySignal, price decimal.Decimal, timestamp int64) {
	proposal := a.baseProposal(sc, price, timestamp)
	proposal.Side = sig.Side
	proposal.Reason = sig.Reason
	proposal.Quantity = sig.Quantity
	a.send(ctx, sc, proposal)
}

// send forwards proposal on a non-blocking basis (spec §4.2, §5: "The
// Analyst uses non-blocking send on the proposal channel and drops on
// full (logged)"). A full channel means RiskManager is backed up; the
// candle pipeline must never stall waiting for it.
func (a *Analyst) send(ctx context.Context, sc *symbolctx.Context, proposal domain.TradeProposal) {
	if proposal.Side == domain.Buy {
		sc.LastEntryTime = proposal.Timestamp
	}
	select {
	case a.proposals <- proposal:
		sc.Position.MarkPending(proposal.Side, proposal.Timestamp)
	case <-ctx.Done():
	default:
		a.log.Warn().Str("symbol", proposal.Symbol).Str("side", proposal.Side.String()).Msg("proposal channel full, dropping proposal")
	}
}

func (a *Analyst) handleOrderUpdate(u domain.OrderUpdate) {
	if u.Status != domain.OrderFilled {
		return
	}
	sc, ok := a.contexts[u.Symbol]
	if !ok {
		return
	}
	sc.Position.ClearPending()

	qty := a.portfolio.PositionQuantity(u.Symbol)
	if qty.IsPositive() {
		atr := decimalx.FromFloat(sc.LastFeatures.ATR)
		sc.Position.TrailingStop = domain.NewActiveStop(u.AvgPrice, atr, a.trailingATRMult)
		sc.Position.TakenProfit = false
	} else {
		sc.Position.TrailingStop = domain.NewNoPosition()
	}
}

// handleNews applies the news trend/overbought/unrealized-P&L decision
// (spec §4.8) using this symbol's current context and held position; the
// decision logic itself lives in internal/news, kept pure and independent
// of the context/portfolio it reads from (same separation the RiskManager
// pipeline uses for internal/risk and internal/evaluation).
func (a *Analyst) handleNews(ctx context.Context, signal domain.NewsSignal) {
	sc := a.contextFor(ctx, signal.Symbol)

	sma50, ok := features.SMA50(sc.CandleHistory)
	if !ok {
		return
	}

	price := decimalx.FromFloat(sc.LastFeatures.Price)
	heldQty := a.portfolio.PositionQuantity(signal.Symbol)
	hasPosition := heldQty.IsPositive()

	var unrealizedPnLPct float64
	if hasPosition {
		entry := a.portfolio.PositionAveragePrice(signal.Symbol)
		if entry.IsPositive() {
			unrealizedPnLPct, _ = price.Sub(entry).Div(entry).Float64()
		}
	}

	decision := news.Decide(signal, price, sma50, sc.LastFeatures.RSI, sc.LastFeatures.ATR, hasPosition, unrealizedPnLPct)

	switch decision.Action {
	case news.Buy:
		a.emitSignal(ctx, sc, &strategies.Signal{Side: domain.Buy, Reason: "News"}, price, signal.Timestamp)
	case news.TightenStop:
		sc.Position.TrailingStop = sc.Position.TrailingStop.Raise(decision.NewStop)
	case news.SellFull:
		a.emitExit(ctx, sc, strategySignal{Side: domain.Sell, Reason: "News", Quantity: heldQty}, price, signal.Timestamp)
	}
}
