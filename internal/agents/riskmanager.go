package agents

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/evaluation"
	"github.com/aristath/aegis/internal/events"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/ports"
	"github.com/aristath/aegis/internal/registry"
	"github.com/aristath/aegis/internal/risk"
)

const (
	riskManagerHeartbeat = 5 * time.Second
	riskManagerValuation = 5 * time.Second
	reservationTTL       = 5 * time.Second
)

// RiskManager is the sole writer of domain.RiskState and the sole
// gate between a Strategy's proposal and an order reaching the
// broker. It runs every proposal through the fourteen-step validation
// pipeline in spec §4.4, in order, short-circuiting on first failure.
type RiskManager struct {
	proposals    <-chan domain.TradeProposal
	orderUpdates <-chan domain.OrderUpdate
	priceUpdates <-chan domain.MarketEvent
	orders       chan<- domain.Order

	portfolio *domain.Portfolio
	store     *risk.Store
	breaker   *risk.CircuitBreaker
	ledger    *risk.Ledger
	sectors   ports.SectorProvider
	corr      *market.CorrelationFilter
	cost      *evaluation.CostEvaluator
	spreads   *market.SpreadCache
	sizing    *evaluation.SizingEngine
	filter    *evaluation.TradeFilter
	expect    *evaluation.ExpectancyEvaluator

	cfg        config.RiskConfig
	assetClass config.AssetClass
	nonPDTMode bool

	prices      map[string]decimal.Decimal
	gates       map[string]*domain.PositionManager
	todayOrders map[string][]domain.Order
	entryPrices map[string]decimal.Decimal // orderID -> avg entry price captured at reservation time, for Sell P&L attribution

	reg *registry.Registry
	bus *events.Bus
	log zerolog.Logger
}

// NewRiskManager wires the RiskManager to its collaborators. spreads may
// be nil, in which case the cost-profitability check falls back to
// cost's configured default spread. bus may be
// nil, in which case halt/liquidation/rejection lifecycle events are
// simply not published.
func NewRiskManager(
	proposals <-chan domain.TradeProposal,
	orderUpdates <-chan domain.OrderUpdate,
	priceUpdates <-chan domain.MarketEvent,
	orders chan<- domain.Order,
	portfolio *domain.Portfolio,
	store *risk.Store,
	sectors ports.SectorProvider,
	corr *market.CorrelationFilter,
	cost *evaluation.CostEvaluator,
	spreads *market.SpreadCache,
	filter *evaluation.TradeFilter,
	expect *evaluation.ExpectancyEvaluator,
	cfg config.RiskConfig,
	assetClass config.AssetClass,
	nonPDTMode bool,
	reg *registry.Registry,
	bus *events.Bus,
	log zerolog.Logger,
) *RiskManager {
	reg.Register("risk_manager")
	return &RiskManager{
		proposals:    proposals,
		orderUpdates: orderUpdates,
		priceUpdates: priceUpdates,
		orders:       orders,
		portfolio:    portfolio,
		store:        store,
		breaker:      risk.NewCircuitBreaker(cfg),
		ledger:       risk.NewLedger(reservationTTL),
		sectors:      sectors,
		corr:         corr,
		cost:         cost,
		spreads:      spreads,
		sizing:       evaluation.NewSizingEngine(),
		filter:       filter,
		expect:       expect,
		cfg:          cfg,
		assetClass:   assetClass,
		nonPDTMode:   nonPDTMode,
		prices:       make(map[string]decimal.Decimal),
		gates:        make(map[string]*domain.PositionManager),
		todayOrders:  make(map[string][]domain.Order),
		entryPrices:  make(map[string]decimal.Decimal),
		reg:          reg,
		bus:          bus,
		log:          log.With().Str("component", "risk_manager").Logger(),
	}
}

func (rm *RiskManager) emit(t events.Type, data map[string]interface{}) {
	if rm.bus == nil {
		return
	}
	rm.bus.Emit(t, "risk_manager", data)
}

// Run drives the validation/valuation loop until ctx is canceled.
func (rm *RiskManager) Run(ctx context.Context) {
	heartbeat := time.NewTicker(riskManagerHeartbeat)
	defer heartbeat.Stop()
	valuation := time.NewTicker(riskManagerValuation)
	defer valuation.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case p, ok := <-rm.proposals:
			if !ok {
				return
			}
			rm.handleProposal(ctx, p)
		case u, ok := <-rm.orderUpdates:
			if !ok {
				return
			}
			rm.handleOrderUpdate(ctx, u)
		case evt, ok := <-rm.priceUpdates:
			if !ok {
				return
			}
			rm.observePrice(evt)
		case <-valuation.C:
			rm.runValuationTick(ctx)
		case <-heartbeat.C:
			rm.reg.Heartbeat("risk_manager", "running")
		}
	}
}

func (rm *RiskManager) observePrice(evt domain.MarketEvent) {
	switch evt.Kind {
	case domain.MarketEventQuote:
		rm.prices[evt.Symbol] = evt.Price
	case domain.MarketEventCandle:
		rm.prices[evt.Symbol] = evt.Candle.Close
	}
}

func (rm *RiskManager) gateFor(symbol string) *domain.PositionManager {
	g, ok := rm.gates[symbol]
	if !ok {
		g = domain.NewPositionManager()
		rm.gates[symbol] = g
	}
	return g
}

// handleProposal runs the fourteen-step pipeline (spec §4.4) and, on
// success, emits exactly one domain.Order onto rm.orders.
func (rm *RiskManager) handleProposal(ctx context.Context, p domain.TradeProposal) {
	gate := rm.gateFor(p.Symbol)
	held := rm.portfolio.PositionQuantity(p.Symbol)
	hasPosition := held.IsPositive()
	positions := rm.portfolio.PositionsSnapshot()

	// Step 1: signal validation (long-only, duplicate-pending, cooldown,
	// min-hold-time). The min-hold clock runs from the latest Buy order
	// this RiskManager emitted for the symbol today (todayOrders is
	// cleared when the valuation tick sees a new day).
	var lastEntryTime int64
	for _, o := range rm.todayOrders[p.Symbol] {
		if o.Side == domain.Buy {
			lastEntryTime = o.Timestamp
		}
	}
	if ok, reason := rm.filter.Allow(p.Side, hasPosition, gate.HasPending(), p.Timestamp, gate.LastSignalTime, lastEntryTime); !ok {
		rm.reject(p, reason)
		return
	}
	gate.LastSignalTime = p.Timestamp

	// Step 2: circuit breaker (skipped when any held position is missing
	// a current price, step 6).
	equity, missing := rm.portfolio.Equity(rm.prices)
	state := rm.store.State()
	if !risk.ShouldSkipEvaluation(positions, rm.prices) {
		if len(missing) == 0 {
			if result := rm.breaker.Evaluate(state, equity); result.Halt {
				rm.haltAndLiquidate(ctx, state, result.Reason)
				rm.reject(p, result.Reason)
				return
			}
		}
	}
	if state.Halted {
		rm.reject(p, "halted")
		return
	}

	// Step 3: expectancy model — reward/risk must clear the configured
	// floor.
	expectancy := rm.expect.Evaluate(p.Symbol, decimalx.ToFloat(p.Price), p.Regime)
	if expectancy.RewardRiskRatio < rm.cfg.MinRewardRisk {
		rm.reject(p, "expectancy_below_floor")
		return
	}

	// Step 4: quantity sizing (Buy only). A Sell is never sized: it takes
	// the proposal's quantity when that is positive and below the held
	// quantity (the Analyst's partial take-profit), else the whole held
	// quantity.
	quantity := p.Quantity
	if p.Side == domain.Buy {
		quantity = rm.sizing.BuyQuantity(evaluation.SizingInput{
			Equity:             equity,
			Cash:               rm.portfolio.CashBalance(),
			Price:              p.Price,
			RiskPerTradePct:    rm.cfg.RiskPerTradePercent,
			MaxPositions:       rm.cfg.MaxPositions,
			MaxPositionSizePct: rm.cfg.MaxPositionSizePct,
			RealizedVolatility: p.RealizedVolatility,
		})
		if quantity.IsZero() {
			rm.reject(p, "zero_sized_quantity")
			return
		}
	} else {
		quantity = held
		if p.Quantity.IsPositive() && p.Quantity.LessThan(held) {
			quantity = p.Quantity
		}
	}
	notional := quantity.Mul(p.Price)

	// Step 5: cost-aware profitability (Buy only — a Sell realizes
	// whatever P&L the market gives it, it is never blocked on cost).
	if p.Side == domain.Buy {
		grossProfit := notional.Mul(decimal.NewFromFloat(expectancy.ExpectedValue / decimalx.ToFloat(p.Price)))
		profitable := rm.cost.IsProfitable(grossProfit, notional, quantity, rm.cfg.MinProfitRatio)
		if rm.spreads != nil {
			if observed, ok := rm.spreads.Get(p.Symbol); ok {
				profitable = rm.cost.IsProfitableWithSpread(observed, grossProfit, notional, quantity, rm.cfg.MinProfitRatio)
			}
		}
		if !profitable {
			rm.reject(p, "unprofitable_after_costs")
			return
		}
	}

	// Step 6: position-size cap.
	if p.Side == domain.Buy && risk.PositionSizeExceeds(notional, equity, rm.cfg.MaxPositionSizePct) {
		rm.reject(p, "position_size_cap")
		return
	}

	// Step 7: sector exposure cap.
	if p.Side == domain.Buy && rm.sectors != nil && risk.SectorExposureExceeds(p.Symbol, notional, positions, rm.prices, rm.sectors, equity, rm.cfg.MaxSectorExposurePct) {
		rm.reject(p, "sector_exposure_cap")
		return
	}

	// Step 8: correlation filter.
	if p.Side == domain.Buy && rm.cfg.CorrelationEnabled && rm.corr != nil && rm.corr.Exceeds(p.Symbol, rm.heldSymbols()) {
		rm.reject(p, "correlation_limit")
		return
	}

	// Step 9: volatility filter — reject outright, or scale the
	// quantity down, depending on band.
	if p.Side == domain.Buy {
		switch risk.VolatilityFilter(p.RealizedVolatility, market.DefaultVolatilityThreshold, market.DefaultVolatilityThreshold*4) {
		case risk.VolatilityReject:
			rm.reject(p, "volatility_reject")
			return
		case risk.VolatilityScale:
			quantity = decimalx.RoundQuantity(quantity.Mul(decimal.NewFromFloat(0.5)))
			notional = quantity.Mul(p.Price)
			if quantity.IsZero() {
				rm.reject(p, "volatility_scaled_to_zero")
				return
			}
		}
	}

	// Step 10: clamp Sell quantity to what is actually held (defensive;
	// quantity is already at most held above, but a concurrent partial
	// fill could have changed it between read and here).
	if p.Side == domain.Sell {
		current := rm.portfolio.PositionQuantity(p.Symbol)
		if quantity.GreaterThan(current) {
			quantity = current
		}
		if quantity.IsZero() {
			rm.reject(p, "no_position_to_sell")
			return
		}
		notional = quantity.Mul(p.Price)
	}

	// Step 11: pattern-day-trading round-trip protection.
	if risk.IsSameDayRoundTrip(rm.assetClass, rm.nonPDTMode, rm.todayOrders[p.Symbol], p.Side) {
		rm.reject(p, "same_day_round_trip")
		return
	}

	// Step 12: available-funds check — cash minus every other live
	// reservation must cover this notional.
	if p.Side == domain.Buy {
		available := rm.portfolio.CashBalance().Sub(rm.ledger.TotalReserved())
		if notional.GreaterThan(available) {
			rm.reject(p, "insufficient_funds")
			return
		}
	}

	// Step 13: build and reserve the order, marking the per-symbol gate
	// pending.
	order := domain.Order{
		ID:        uuid.New().String(),
		Symbol:    p.Symbol,
		Side:      p.Side,
		Price:     p.Price,
		Quantity:  decimalx.RoundQuantity(quantity),
		OrderType: p.OrderType,
		Status:    domain.OrderNew,
		Timestamp: p.Timestamp,
	}
	if p.Side == domain.Buy {
		rm.ledger.Reserve(order.ID, p.Symbol, notional, time.Now())
	} else {
		rm.entryPrices[order.ID] = rm.portfolio.PositionAveragePrice(p.Symbol)
	}
	gate.MarkPending(p.Side, p.Timestamp)
	rm.todayOrders[p.Symbol] = append(rm.todayOrders[p.Symbol], order)

	// Step 14: hand off to the throttler.
	select {
	case rm.orders <- order:
	case <-ctx.Done():
	}
}

func (rm *RiskManager) heldSymbols() []string {
	snap := rm.portfolio.Snapshot()
	out := make([]string, 0, len(snap.Positions))
	for sym, pos := range snap.Positions {
		if pos.IsOpen() {
			out = append(out, sym)
		}
	}
	return out
}

func (rm *RiskManager) reject(p domain.TradeProposal, reason string) {
	rm.log.Info().Str("symbol", p.Symbol).Str("side", p.Side.String()).Str("reason", reason).Msg("proposal rejected")
	rm.emit(events.ProposalRejected, map[string]interface{}{"symbol": p.Symbol, "side": p.Side.String(), "reason": reason})
}

// handleOrderUpdate releases the reservation and clears the pending
// gate on any terminal status, and records win/loss outcomes on fills
// (spec §4.4: "On Filled: release reservation, clear pending,
// RecordFillOutcome").
func (rm *RiskManager) handleOrderUpdate(ctx context.Context, u domain.OrderUpdate) {
	if !u.Status.IsTerminal() {
		return
	}
	rm.ledger.Release(u.OrderID)
	if gate, ok := rm.gates[u.Symbol]; ok {
		gate.ClearPending()
	}
	if u.Status != domain.OrderFilled {
		return
	}

	// A Sell fill's P&L is attributable: it closes out the entry price
	// captured at reservation time (step 13). A Buy fill has no realized
	// P&L of its own — it only establishes a new cost basis.
	if entryPrice, ok := rm.entryPrices[u.OrderID]; ok {
		realizedPnL := u.AvgPrice.Sub(entryPrice).Mul(u.FilledQty)
		delete(rm.entryPrices, u.OrderID)
		rm.expect.WinRates.RecordOutcome(u.Symbol, decimalx.ToFloat(realizedPnL))
		_ = rm.store.Update(ctx, func(s *domain.RiskState) {
			s.RecordFillOutcome(realizedPnL)
		})
	}

	_ = rm.store.Update(ctx, func(s *domain.RiskState) {
		s.UpdateHWM(rm.equitySnapshot())
	})
}

func (rm *RiskManager) equitySnapshot() decimal.Decimal {
	equity, _ := rm.portfolio.Equity(rm.prices)
	return equity
}

// runValuationTick sweeps expired reservations and re-runs the circuit
// breaker against the latest known prices, independent of any inbound
// proposal (spec §4.4: "a periodic valuation tick, independent of
// proposal traffic, also evaluates the breaker").
func (rm *RiskManager) runValuationTick(ctx context.Context) {
	rm.ledger.SweepExpired(time.Now())

	state := rm.store.State()
	today := time.Now().Format("2006-01-02")
	if state.ReferenceDate != today {
		rm.todayOrders = make(map[string][]domain.Order)
	}
	equity, missing := rm.portfolio.Equity(rm.prices)
	_ = rm.store.Update(ctx, func(s *domain.RiskState) {
		s.RolloverIfNewDay(today, equity, time.Now().Unix())
		s.UpdateHWM(equity)
	})

	// Mirror handleProposal's guard exactly (spec §8: "if the price map
	// lacks prices for any held position, the breaker must not fire").
	// risk.ShouldSkipEvaluation alone only skips when every held
	// position is unpriced; a mixed portfolio with one unpriced leg
	// would otherwise understate equity (domain.Portfolio.Equity skips
	// what it can't price) and risk a false liquidation.
	if risk.ShouldSkipEvaluation(rm.portfolio.PositionsSnapshot(), rm.prices) {
		return
	}
	if len(missing) != 0 {
		return
	}
	if result := rm.breaker.Evaluate(rm.store.State(), equity); result.Halt {
		rm.haltAndLiquidate(ctx, state, result.Reason)
	}
}

// haltAndLiquidate marks RiskState halted and emits a slippage-bounded
// Limit Sell for every open position (spec §4.4 step 5: "a halt
// immediately liquidates every open position via a Limit order priced
// at price*(1-slippage_tolerance), never Market").
func (rm *RiskManager) haltAndLiquidate(ctx context.Context, state domain.RiskState, reason string) {
	if state.Halted {
		return
	}
	rm.log.Warn().Str("reason", reason).Msg("circuit breaker halted trading, liquidating open positions")
	rm.emit(events.CircuitBreakerTrip, map[string]interface{}{"reason": reason})
	_ = rm.store.Update(ctx, func(s *domain.RiskState) {
		s.Halted = true
	})

	snap := rm.portfolio.Snapshot()
	for symbol, pos := range snap.Positions {
		if !pos.IsOpen() {
			continue
		}
		price, ok := rm.prices[symbol]
		if !ok {
			continue
		}
		order := domain.Order{
			ID:        uuid.New().String(),
			Symbol:    symbol,
			Side:      domain.Sell,
			Price:     risk.LiquidationPrice(price, rm.cfg.SlippageTolerance),
			Quantity:  pos.Quantity,
			OrderType: domain.Limit,
			Status:    domain.OrderNew,
			Timestamp: time.Now().Unix(),
		}
		rm.emit(events.LiquidationEmitted, map[string]interface{}{"symbol": symbol, "quantity": pos.Quantity.String()})
		select {
		case rm.orders <- order:
		case <-ctx.Done():
			return
		}
	}
}
