package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Position is a held quantity of a single symbol with its volume-weighted
// average entry price. Created on first Buy fill, updated on each
// subsequent Buy, reduced on each Sell fill, destroyed at zero quantity
// (spec §3).
type Position struct {
	Symbol       string
	Quantity     decimal.Decimal
	AveragePrice decimal.Decimal
}

// ApplyBuyFill volume-weight-averages qty @ price into the position.
func (p *Position) ApplyBuyFill(qty, price decimal.Decimal) {
	if p.Quantity.IsZero() {
		p.Quantity = qty
		p.AveragePrice = price
		return
	}
	totalCost := p.Quantity.Mul(p.AveragePrice).Add(qty.Mul(price))
	p.Quantity = p.Quantity.Add(qty)
	if !p.Quantity.IsZero() {
		p.AveragePrice = totalCost.Div(p.Quantity)
	}
}

// ApplySellFill reduces quantity; the caller is responsible for clamping
// qty to the held amount before calling (spec §4.4 step 11).
func (p *Position) ApplySellFill(qty decimal.Decimal) {
	p.Quantity = p.Quantity.Sub(qty)
	if p.Quantity.IsNegative() {
		p.Quantity = decimal.Zero
	}
}

// IsOpen reports whether the position still has a nonzero quantity.
func (p *Position) IsOpen() bool {
	return p.Quantity.IsPositive()
}

// Portfolio is the local, reconciled copy of broker-held cash and
// positions (spec §3). The authoritative copy lives on the broker; this
// copy is kept within a staleness bound by the reconciler. Several
// goroutines touch it — Executor (on fill), the reconciler (on refresh),
// RiskManager and Analyst (readers) — so it carries its own RWMutex
// (spec §5 shared-resource policy).
type Portfolio struct {
	mu sync.RWMutex

	Cash          decimal.Decimal
	Positions     map[string]*Position
	StartingCash  decimal.Decimal
	MaxEquity     decimal.Decimal
	Version       int64
	Synchronized  bool
	LastRefreshed int64 // unix seconds of last reconciliation
}

// NewPortfolio builds a Portfolio seeded with startingCash.
func NewPortfolio(startingCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		Cash:         startingCash,
		Positions:    make(map[string]*Position),
		StartingCash: startingCash,
		MaxEquity:    startingCash,
		Synchronized: true,
	}
}

// Snapshot returns a deep copy safe for read-only use outside the lock.
func (p *Portfolio) Snapshot() Portfolio {
	p.mu.RLock()
	defer p.mu.RUnlock()
	cp := Portfolio{
		Cash:          p.Cash,
		Positions:     make(map[string]*Position, len(p.Positions)),
		StartingCash:  p.StartingCash,
		MaxEquity:     p.MaxEquity,
		Version:       p.Version,
		Synchronized:  p.Synchronized,
		LastRefreshed: p.LastRefreshed,
	}
	for sym, pos := range p.Positions {
		posCopy := *pos
		cp.Positions[sym] = &posCopy
	}
	return cp
}

// Equity computes cash + Σ(qty·price) using the supplied latest prices.
// Symbols held but absent from prices are skipped by the caller (spec
// §4.4 step 6: breaker must not fire on missing prices) — Equity itself
// reports which symbols it could not price via missing, so callers can
// implement that skip.
func (p *Portfolio) Equity(prices map[string]decimal.Decimal) (equity decimal.Decimal, missing []string) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	equity = p.Cash
	for sym, pos := range p.Positions {
		if !pos.IsOpen() {
			continue
		}
		price, ok := prices[sym]
		if !ok {
			missing = append(missing, sym)
			continue
		}
		equity = equity.Add(pos.Quantity.Mul(price))
	}
	return equity, missing
}

// ApplyBuy debits cash and updates/creates the position (Executor's
// optimistic local update, spec §4.6).
func (p *Portfolio) ApplyBuy(symbol string, qty, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cash = p.Cash.Sub(qty.Mul(price))
	pos, ok := p.Positions[symbol]
	if !ok {
		pos = &Position{Symbol: symbol}
		p.Positions[symbol] = pos
	}
	pos.ApplyBuyFill(qty, price)
	p.Version++
}

// ApplySell credits cash and decrements the position.
func (p *Portfolio) ApplySell(symbol string, qty, price decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cash = p.Cash.Add(qty.Mul(price))
	if pos, ok := p.Positions[symbol]; ok {
		pos.ApplySellFill(qty)
		if pos.Quantity.IsZero() {
			delete(p.Positions, symbol)
		}
	}
	p.Version++
}

// DebitFee subtracts a fill's fee from cash (spec §8 cash-consistency
// invariant: "cash = starting_cash - Σ(buy*qty) + Σ(sell*qty) - Σ fees").
// Applied on both Buy and Sell fills, independent of the notional debit/
// credit ApplyBuy/ApplySell already performed.
func (p *Portfolio) DebitFee(fee decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cash = p.Cash.Sub(fee)
}

// PositionQuantity returns the held quantity for symbol (zero if none).
func (p *Portfolio) PositionQuantity(symbol string) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if pos, ok := p.Positions[symbol]; ok {
		return pos.Quantity
	}
	return decimal.Zero
}

// PositionAveragePrice returns the volume-weighted average entry price
// for symbol (zero if none held), used to attribute realized P&L to a
// Sell fill (spec §4.4 step on RecordFillOutcome).
func (p *Portfolio) PositionAveragePrice(symbol string) decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if pos, ok := p.Positions[symbol]; ok {
		return pos.AveragePrice
	}
	return decimal.Zero
}

// CashBalance returns the current cash balance under the read lock.
func (p *Portfolio) CashBalance() decimal.Decimal {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Cash
}

// PositionsSnapshot returns a deep copy of the held-positions map,
// safe to read after the lock is released.
func (p *Portfolio) PositionsSnapshot() map[string]*Position {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make(map[string]*Position, len(p.Positions))
	for sym, pos := range p.Positions {
		cp := *pos
		out[sym] = &cp
	}
	return out
}

// Replace swaps in a freshly reconciled snapshot from the broker
// (PortfolioStateManager refresh, spec §3/§5).
func (p *Portfolio) Replace(cash decimal.Decimal, positions map[string]*Position, version int64, refreshedAt int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cash = cash
	p.Positions = positions
	if cash.GreaterThan(p.MaxEquity) {
		p.MaxEquity = cash
	}
	p.Version = version
	p.Synchronized = true
	p.LastRefreshed = refreshedAt
}
