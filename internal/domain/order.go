package domain

import "github.com/shopspring/decimal"

// Side is the direction of a trade proposal or order. The engine is
// long-only (spec §1 Non-goals: "no shorting"); Sell only ever reduces
// or closes an existing position.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// OrderType is Market or Limit.
type OrderType int

const (
	Market OrderType = iota
	Limit
)

func (t OrderType) String() string {
	if t == Market {
		return "market"
	}
	return "limit"
}

// OrderStatus is the broker-reported lifecycle state of an order.
type OrderStatus int

const (
	OrderNew OrderStatus = iota
	OrderPartiallyFilled
	OrderFilled
	OrderCanceled
	OrderExpired
	OrderRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderNew:
		return "new"
	case OrderPartiallyFilled:
		return "partially_filled"
	case OrderFilled:
		return "filled"
	case OrderCanceled:
		return "canceled"
	case OrderExpired:
		return "expired"
	case OrderRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// IsTerminal reports whether the status ends the order's lifecycle
// (spec §4.2: "on terminal status ... clear the pending order").
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderFilled, OrderCanceled, OrderExpired, OrderRejected:
		return true
	default:
		return false
	}
}

// TradeProposal is what the Analyst emits toward the RiskManager. The
// Analyst owns regime/volatility context (internal/symbolctx); rather
// than have RiskManager query back for it, the proposal carries the
// snapshot it needs to validate (spec §9: no cyclic back-references
// between agents).
type TradeProposal struct {
	Symbol             string
	Side               Side
	Price              decimal.Decimal
	Quantity           decimal.Decimal
	OrderType          OrderType
	Reason             string
	Timestamp          int64
	StopLoss           *decimal.Decimal
	TakeProfit         *decimal.Decimal
	Regime             MarketRegime
	RealizedVolatility float64
}

// Order is an approved proposal routed to the broker.
type Order struct {
	ID        string
	Symbol    string
	Side      Side
	Price     decimal.Decimal
	Quantity  decimal.Decimal
	OrderType OrderType
	Status    OrderStatus
	Timestamp int64
}

// OrderUpdate is a broker-reported fill/status change.
type OrderUpdate struct {
	OrderID   string
	Symbol    string
	Status    OrderStatus
	FilledQty decimal.Decimal
	AvgPrice  decimal.Decimal
	Timestamp int64
}
