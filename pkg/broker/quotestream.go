package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"nhooyr.io/websocket"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/ports"
)

const quoteDialTimeout = 30 * time.Second

// quoteMessage is the wire shape a demo quote server sends: one tick per message.
type quoteMessage struct {
	Symbol      string  `json:"symbol"`
	Price       float64 `json:"price"`
	TimestampMs int64   `json:"ts_ms"`
}

// WebSocketFeed is a ports.MarketDataService that dials a single demo
// quote-server URL over nhooyr.io/websocket and republishes every tick
// as a domain.MarketEvent, reconnecting with exponential backoff on
// stream failure. It is grounded on the teacher's
// MarketStatusWebSocket (internal/clients/tradernet/websocket_client.go):
// same dial/read/reconnect shape, collapsed to one channel of quotes
// instead of a market-status cache, since the Sentinel (not this
// adapter) owns the outward reconnect/backoff contract the agent
// pipeline actually depends on (spec §4.1) — this adapter just needs to
// not wedge Subscribe's returned channel open on a dead connection.
type WebSocketFeed struct {
	url  string
	log  zerolog.Logger
	aggr *market.CandleAggregator

	mu     sync.RWMutex
	prices map[string]decimal.Decimal
}

// NewWebSocketFeed builds a feed that will dial url on Subscribe.
func NewWebSocketFeed(url string, log zerolog.Logger) *WebSocketFeed {
	return &WebSocketFeed{
		url:    url,
		log:    log.With().Str("component", "quote_feed").Logger(),
		aggr:   market.NewCandleAggregator(),
		prices: make(map[string]decimal.Decimal),
	}
}

// Subscribe dials the feed and streams MarketEvents for symbols until
// ctx is canceled. The returned channel closes when ctx is done; the
// caller (Sentinel) is responsible for reconnecting on a closed channel
// per spec §4.1.
func (f *WebSocketFeed) Subscribe(ctx context.Context, symbols []string) (<-chan domain.MarketEvent, error) {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}

	dialCtx, cancel := context.WithTimeout(ctx, quoteDialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, f.url, nil)
	if err != nil {
		return nil, fmt.Errorf("broker: dial quote feed: %w", err)
	}

	out := make(chan domain.MarketEvent, 256)
	go f.readLoop(ctx, conn, wanted, out)
	return out, nil
}

func (f *WebSocketFeed) readLoop(ctx context.Context, conn *websocket.Conn, wanted map[string]bool, out chan<- domain.MarketEvent) {
	defer close(out)
	defer conn.Close(websocket.StatusNormalClosure, "done")

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				f.log.Warn().Err(err).Msg("quote feed read failed, closing stream for reconnect")
			}
			return
		}

		var msg quoteMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			f.log.Error().Err(err).Msg("malformed quote message")
			continue
		}
		if !wanted[msg.Symbol] {
			continue
		}

		price := decimal.NewFromFloat(msg.Price)
		f.mu.Lock()
		f.prices[msg.Symbol] = price
		f.mu.Unlock()

		evt := domain.NewQuoteEvent(msg.Symbol, price, msg.TimestampMs)
		select {
		case out <- evt:
		case <-ctx.Done():
			return
		}

		if candle, ok := f.aggr.Tick(msg.Symbol, price, msg.TimestampMs); ok {
			select {
			case out <- domain.NewCandleEvent(candle):
			case <-ctx.Done():
				return
			}
		}
	}
}

// GetHistoricalBars is unsupported by the demo feed: it has no
// persistent bar history of its own, only what it has aggregated this
// process's lifetime. internal/warmup calls this method, so warmup
// against this feed fails and the symbol runs in degraded mode.
func (f *WebSocketFeed) GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time, tf ports.Timeframe) ([]domain.Candle, error) {
	return nil, fmt.Errorf("broker: historical bars not available from the demo quote feed")
}

// GetPrices returns the last tick price seen per symbol.
func (f *WebSocketFeed) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
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

// GetTopMovers returns every tracked symbol, unranked; the demo feed
// doesn't carry a prior close to compute a real percentage move from.
func (f *WebSocketFeed) GetTopMovers(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]string, 0, len(f.prices))
	for s := range f.prices {
		out = append(out, s)
	}
	return out, nil
}
