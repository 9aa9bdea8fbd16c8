package broker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/ports"
)

// SyntheticFeed is a ports.MarketDataService that ticks a pseudo-random
// walk per symbol (an LCG seeded from the clock) entirely in-process, for running the demo
// binary with no external quote server configured. It is the
// no-network sibling of WebSocketFeed, built for the same reason
// PaperBroker exists alongside a real ExecutionService: spec §4
// Non-goals keep this engine's own market-data integration out of
// scope, so cmd/server needs something that "just works" to drive the
// agent pipeline end to end.
type SyntheticFeed struct {
	log  zerolog.Logger
	aggr *market.CandleAggregator

	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewSyntheticFeed builds a SyntheticFeed.
func NewSyntheticFeed(log zerolog.Logger) *SyntheticFeed {
	return &SyntheticFeed{
		log:    log.With().Str("component", "synthetic_feed").Logger(),
		aggr:   market.NewCandleAggregator(),
		prices: make(map[string]decimal.Decimal),
	}
}

// Subscribe starts a per-symbol ticker that nudges price by a small
// pseudo-random step once a second, feeding the same
// domain.MarketEvent shape a real feed would.
func (f *SyntheticFeed) Subscribe(ctx context.Context, symbols []string) (<-chan domain.MarketEvent, error) {
	out := make(chan domain.MarketEvent, 256)

	f.mu.Lock()
	for _, s := range symbols {
		if _, ok := f.prices[s]; !ok {
			f.prices[s] = decimal.NewFromInt(100)
		}
	}
	f.mu.Unlock()

	for _, symbol := range symbols {
		go f.walk(ctx, symbol, out)
	}
	go func() {
		<-ctx.Done()
		close(out)
	}()
	return out, nil
}

func (f *SyntheticFeed) walk(ctx context.Context, symbol string, out chan<- domain.MarketEvent) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	seed := uint64(time.Now().UnixNano())
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		seed = seed*6364136223846793005 + 1442695040888963407
		stepBp := float64(int64(seed>>33)%21-10) / 1000.0 // +/-1% step

		f.mu.Lock()
		price := f.prices[symbol].Mul(decimal.NewFromFloat(1 + stepBp))
		if price.IsNegative() || price.IsZero() {
			price = decimal.NewFromInt(1)
		}
		f.prices[symbol] = price
		f.mu.Unlock()

		tsMs := time.Now().UnixMilli()
		evt := domain.NewQuoteEvent(symbol, price, tsMs)
		select {
		case out <- evt:
		case <-ctx.Done():
			return
		}

		if candle, ok := f.aggr.Tick(symbol, price, tsMs); ok {
			select {
			case out <- domain.NewCandleEvent(candle):
			case <-ctx.Done():
				return
			}
		}
	}
}

// GetHistoricalBars synthesizes a flat-ish backfill around the current
// price so warmup (spec §4.10) has something to replay on first
// subscribe, instead of failing outright.
func (f *SyntheticFeed) GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time, tf ports.Timeframe) ([]domain.Candle, error) {
	f.mu.RLock()
	price, ok := f.prices[symbol]
	f.mu.RUnlock()
	if !ok {
		price = decimal.NewFromInt(100)
	}

	bars := int(end.Sub(start).Minutes())
	if bars <= 0 {
		bars = 1
	}
	if bars > 500 {
		bars = 500
	}

	candles := make([]domain.Candle, 0, bars)
	ts := end.Add(-time.Duration(bars) * time.Minute).Unix() / 60 * 60
	for i := 0; i < bars; i++ {
		candles = append(candles, domain.Candle{
			Symbol: symbol, Timestamp: ts,
			Open: price, High: price, Low: price, Close: price,
			Volume: 1000,
		})
		ts += 60
	}
	return candles, nil
}

// GetPrices returns the last synthesized price per symbol.
func (f *SyntheticFeed) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		if p, ok := f.prices[s]; ok {
			out[s] = p
		}
	}
	return out, nil
}

// GetTopMovers returns every tracked symbol; the synthetic feed has no
// meaningful "mover" ranking of its own.
func (f *SyntheticFeed) GetTopMovers(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.prices))
	for s := range f.prices {
		out = append(out, s)
	}
	return out, nil
}
