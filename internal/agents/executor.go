package agents

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/events"
	"github.com/aristath/aegis/internal/ports"
)

// FeeSlippageModel computes the simulator's effective execution price
// from a requested price (spec §4.6: "Applies a configurable fee/
// slippage model to the execution price on simulator paths").
type FeeSlippageModel struct {
	FeeRate          float64
	SlippageFraction float64
}

// Apply returns the effective fill price: Buy pays price*(1+slippage),
// Sell receives price*(1-slippage); fees are reported separately.
func (m FeeSlippageModel) Apply(side domain.Side, price, quantity decimal.Decimal) (fillPrice, fee decimal.Decimal) {
	adj := decimal.NewFromFloat(m.SlippageFraction)
	if side == domain.Buy {
		fillPrice = price.Mul(decimal.NewFromInt(1).Add(adj))
	} else {
		fillPrice = price.Mul(decimal.NewFromInt(1).Sub(adj))
	}
	fillPrice = decimalx.RoundMoney(fillPrice)
	fee = decimalx.RoundMoney(fillPrice.Mul(quantity).Mul(decimal.NewFromFloat(m.FeeRate)))
	return fillPrice, fee
}

// Executor consumes approved orders, calls the broker, and applies an
// optimistic local portfolio update on success (spec §4.6).
type Executor struct {
	broker     ports.ExecutionService
	trades     ports.TradeRepository
	model      FeeSlippageModel
	limitTimeout time.Duration
	in         <-chan domain.Order
	portfolio  *domain.Portfolio
	bus        *events.Bus
	log        zerolog.Logger
}

// NewExecutor builds an Executor wired to the broker, the trade
// repository, and the shared portfolio. bus may be nil.
func NewExecutor(broker ports.ExecutionService, trades ports.TradeRepository, portfolio *domain.Portfolio, model FeeSlippageModel, limitTimeout time.Duration, in <-chan domain.Order, bus *events.Bus, log zerolog.Logger) *Executor {
	return &Executor{broker: broker, trades: trades, model: model, limitTimeout: limitTimeout, in: in, portfolio: portfolio, bus: bus, log: log.With().Str("component", "executor").Logger()}
}

func (e *Executor) emit(t events.Type, data map[string]interface{}) {
	if e.bus == nil {
		return
	}
	e.bus.Emit(t, "executor", data)
}

// Run drains in, executing each order until ctx is canceled.
func (e *Executor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case order, ok := <-e.in:
			if !ok {
				return
			}
			e.execute(ctx, order)
		}
	}
}

func (e *Executor) execute(ctx context.Context, order domain.Order) {
	if order.OrderType == domain.Limit {
		order = e.applyLimitTimeout(ctx, order)
	}

	if err := e.broker.Execute(ctx, order); err != nil {
		e.log.Error().Err(err).Str("symbol", order.Symbol).Msg("order execution failed")
		return
	}
	e.emit(events.OrderSubmitted, map[string]interface{}{"order_id": order.ID, "symbol": order.Symbol, "side": order.Side.String()})

	fillPrice, fee := e.model.Apply(order.Side, order.Price, order.Quantity)
	e.applyOptimisticUpdate(order, fillPrice, fee)
	e.emit(events.OrderFilled, map[string]interface{}{"order_id": order.ID, "symbol": order.Symbol, "fill_price": fillPrice.String(), "fee": fee.String()})

	if e.trades != nil {
		if err := e.trades.Save(ctx, order); err != nil {
			e.log.Error().Err(err).Msg("failed to persist executed order")
		}
	}
}

// applyLimitTimeout waits up to limitTimeout for the broker to report
// the limit order still open; callers model a real fill check via
// GetOpenOrders. If it times out, cancel and retry as Market (spec
// §4.6: "On Limit orders that time out before fill ... cancels and
// optionally retries as Market").
func (e *Executor) applyLimitTimeout(ctx context.Context, order domain.Order) domain.Order {
	if e.limitTimeout <= 0 {
		return order
	}
	timer := time.NewTimer(e.limitTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		open, err := e.broker.GetOpenOrders(ctx, order.Symbol)
		if err != nil {
			return order
		}
		for _, o := range open {
			if o.ID == order.ID {
				_ = e.broker.CancelOrder(ctx, order.ID, order.Symbol)
				order.OrderType = domain.Market
				e.log.Warn().Str("order_id", order.ID).Msg("limit order timed out, retrying as market")
				return order
			}
		}
		return order
	case <-ctx.Done():
		return order
	}
}

// applyOptimisticUpdate debits/credits cash by qty*fillPrice and then
// separately debits the fee, so cash = starting_cash - Σ(buy*qty) +
// Σ(sell*qty) - Σ fees holds regardless of FeeRate (spec §8).
func (e *Executor) applyOptimisticUpdate(order domain.Order, fillPrice, fee decimal.Decimal) {
	if order.Side == domain.Buy {
		e.portfolio.ApplyBuy(order.Symbol, order.Quantity, fillPrice)
	} else {
		e.portfolio.ApplySell(order.Symbol, order.Quantity, fillPrice)
	}
	e.portfolio.DebitFee(fee)
}
