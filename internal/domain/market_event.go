package domain

import "github.com/shopspring/decimal"

// MarketEventKind discriminates the MarketEvent tagged variant (spec §3).
type MarketEventKind int

const (
	// MarketEventQuote carries a single tick price.
	MarketEventQuote MarketEventKind = iota
	// MarketEventCandle carries a finalized bar.
	MarketEventCandle
	// MarketEventSymbolSubscription signals a newly subscribed symbol.
	MarketEventSymbolSubscription
)

// MarketEvent is the sum type Quote{symbol,price,ts_ms} | Candle(Candle) |
// SymbolSubscription{symbol} flowing from Sentinel to Analyst. Only the
// fields matching Kind are meaningful; constructors below enforce that.
type MarketEvent struct {
	Kind      MarketEventKind
	Symbol    string
	Price     decimal.Decimal
	TimestampMs int64
	Candle    Candle
}

// NewQuoteEvent builds a Quote-kind MarketEvent.
func NewQuoteEvent(symbol string, price decimal.Decimal, tsMs int64) MarketEvent {
	return MarketEvent{Kind: MarketEventQuote, Symbol: symbol, Price: price, TimestampMs: tsMs}
}

// NewCandleEvent builds a Candle-kind MarketEvent.
func NewCandleEvent(c Candle) MarketEvent {
	return MarketEvent{Kind: MarketEventCandle, Symbol: c.Symbol, Candle: c}
}

// NewSymbolSubscriptionEvent builds a SymbolSubscription-kind MarketEvent.
func NewSymbolSubscriptionEvent(symbol string) MarketEvent {
	return MarketEvent{Kind: MarketEventSymbolSubscription, Symbol: symbol}
}
