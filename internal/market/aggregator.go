// Package market holds the Analyst's shared, cross-symbol market-state
// helpers: candle aggregation, the spread cache, regime detection, and
// the correlation filter.
package market

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
)

type builder struct {
	symbol        string
	minuteBoundary int64
	open, high, low, close decimal.Decimal
	volume        int64
}

func (b *builder) finalize() domain.Candle {
	return domain.Candle{
		Symbol:    b.symbol,
		Timestamp: b.minuteBoundary,
		Open:      b.open,
		High:      b.high,
		Low:       b.low,
		Close:     b.close,
		Volume:    b.volume,
	}
}

// CandleAggregator builds one candle per symbol per minute boundary from
// a tick stream (spec §4.9). Volume is a tick count: the quote stream
// does not carry exchange-reported trade volume.
type CandleAggregator struct {
	mu       sync.Mutex
	builders map[string]*builder
}

// NewCandleAggregator returns an empty, per-symbol aggregator.
func NewCandleAggregator() *CandleAggregator {
	return &CandleAggregator{builders: make(map[string]*builder)}
}

// minuteBoundary aligns an epoch-millisecond timestamp down to the
// epoch-second minute boundary (spec §4.9 invariant: "a completed
// candle's timestamp is the epoch seconds of the minute boundary").
func minuteBoundary(tsMs int64) int64 {
	tsSec := tsMs / 1000
	return tsSec - (tsSec % 60)
}

// Tick feeds one quote into the aggregator. It returns the just-finalized
// candle for the symbol's previous minute, if the tick crossed a minute
// boundary; otherwise ok is false and the running builder was simply
// updated in place.
func (a *CandleAggregator) Tick(symbol string, price decimal.Decimal, tsMs int64) (completed domain.Candle, ok bool) {
	boundary := minuteBoundary(tsMs)

	a.mu.Lock()
	defer a.mu.Unlock()

	b, exists := a.builders[symbol]
	if !exists {
		a.builders[symbol] = &builder{symbol: symbol, minuteBoundary: boundary, open: price, high: price, low: price, close: price, volume: 1}
		return domain.Candle{}, false
	}

	if boundary == b.minuteBoundary {
		if price.GreaterThan(b.high) {
			b.high = price
		}
		if price.LessThan(b.low) {
			b.low = price
		}
		b.close = price
		b.volume++
		return domain.Candle{}, false
	}

	finished := b.finalize()
	a.builders[symbol] = &builder{symbol: symbol, minuteBoundary: boundary, open: price, high: price, low: price, close: price, volume: 1}
	return finished, true
}

// Flush force-finalizes the in-progress builder for symbol (used on
// graceful shutdown so the last partial minute is not silently lost).
func (a *CandleAggregator) Flush(symbol string) (domain.Candle, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.builders[symbol]
	if !ok {
		return domain.Candle{}, false
	}
	delete(a.builders, symbol)
	return b.finalize(), true
}
