// Package broker provides the stand-in external collaborators the
// engine talks to through internal/ports: an in-memory paper
// ExecutionService sufficient to exercise the agent pipeline end to end,
// and a websocket-fed MarketDataService grounded on the teacher's
// reconnecting quote client. Neither is a production broker
// integration (spec §4 Non-goals); both exist to make
// cmd/server runnable as a demo and to give the agent tests something
// concrete to drive.
package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
)

// PaperBroker fills every order immediately at the requested price,
// tracks a portfolio, and replays order-update notifications on a
// per-subscriber channel. Grounded on the simulated-exchange pattern of
// immediate fills against the last known price (guyghost-constantine's
// backtesting.SimulatedExchange), adapted from candle-replay
// backtesting to live paper trading: there is no backtest clock here,
// just the caller's requested order.
type PaperBroker struct {
	mu       sync.Mutex
	cash     decimal.Decimal
	orders   map[string]domain.Order
	subs     []chan domain.OrderUpdate
	rejectOn map[string]error // symbol -> forced rejection, test/demo hook
}

// NewPaperBroker starts a PaperBroker with startingCash available.
func NewPaperBroker(startingCash decimal.Decimal) *PaperBroker {
	return &PaperBroker{
		cash:     startingCash,
		orders:   make(map[string]domain.Order),
		rejectOn: make(map[string]error),
	}
}

// RejectSymbol makes every subsequent order for symbol fail with err,
// a demo/test hook for exercising the Executor's failure path.
func (p *PaperBroker) RejectSymbol(symbol string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rejectOn[symbol] = err
}

// Execute fills order immediately; idempotent on order.ID (spec §6:
// "Execute must be idempotent on order.ID").
func (p *PaperBroker) Execute(ctx context.Context, order domain.Order) error {
	p.mu.Lock()
	if err := p.rejectOn[order.Symbol]; err != nil {
		p.mu.Unlock()
		return err
	}
	if _, exists := p.orders[order.ID]; exists {
		p.mu.Unlock()
		return nil
	}
	order.Status = domain.OrderFilled
	p.orders[order.ID] = order
	subs := append([]chan domain.OrderUpdate(nil), p.subs...)
	p.mu.Unlock()

	update := domain.OrderUpdate{
		OrderID: order.ID, Symbol: order.Symbol, Status: domain.OrderFilled,
		FilledQty: order.Quantity, AvgPrice: order.Price, Timestamp: time.Now().Unix(),
	}
	for _, sub := range subs {
		select {
		case sub <- update:
		default:
		}
	}
	return nil
}

// GetPortfolio is not authoritative for PaperBroker: the Executor's
// optimistic local domain.Portfolio is the source of truth (spec §4.6).
// It returns an empty portfolio; callers that need broker-reported
// state reconcile against ExecutionService.GetOpenOrders instead.
func (p *PaperBroker) GetPortfolio(ctx context.Context) (domain.Portfolio, error) {
	return domain.Portfolio{}, nil
}

// GetOpenOrders always returns empty: PaperBroker fills synchronously,
// so nothing is ever left open by the time Execute returns.
func (p *PaperBroker) GetOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	return nil, nil
}

// GetTodayOrders returns every filled order for symbol this process has seen.
func (p *PaperBroker) GetTodayOrders(ctx context.Context, symbol string) ([]domain.Order, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Order
	for _, o := range p.orders {
		if o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out, nil
}

// CancelOrder is a no-op: orders fill synchronously before this could
// ever be reached on the happy path. It exists so the limit-timeout
// retry path (internal/agents.Executor.applyLimitTimeout) has a
// harmless target to call against a paper broker.
func (p *PaperBroker) CancelOrder(ctx context.Context, id, symbol string) error {
	return nil
}

// CancelAllOrders is a no-op for the same reason as CancelOrder.
func (p *PaperBroker) CancelAllOrders(ctx context.Context) error {
	return nil
}

// SubscribeOrderUpdates returns a channel fed by every subsequent Execute call.
func (p *PaperBroker) SubscribeOrderUpdates(ctx context.Context) (<-chan domain.OrderUpdate, error) {
	ch := make(chan domain.OrderUpdate, 16)
	p.mu.Lock()
	p.subs = append(p.subs, ch)
	p.mu.Unlock()

	go func() {
		<-ctx.Done()
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.subs {
			if sub == ch {
				p.subs = append(p.subs[:i], p.subs[i+1:]...)
				break
			}
		}
		close(ch)
	}()
	return ch, nil
}

// NewOrderID mints an order identifier (spec ambient stack: uuid for order IDs).
func NewOrderID() string {
	return uuid.NewString()
}
