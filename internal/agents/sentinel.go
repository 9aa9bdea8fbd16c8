// Package agents implements the five long-lived tasks that make up the
// trading engine: Sentinel, Analyst, RiskManager, OrderThrottler,
// Executor (spec §4.1-§4.6). Each is one goroutine whose inner select
// loop never blocks the thread; suspension points are channel
// operations, timers, and the broker/repository calls underneath.
package agents

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/events"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/ports"
	"github.com/aristath/aegis/internal/registry"
)

const (
	sentinelBaseBackoff = 1 * time.Second
	sentinelMaxBackoff  = 60 * time.Second
	sentinelHeartbeat   = 5 * time.Second
)

// Sentinel streams market data for a configurable symbol set, forwards
// every event to the Analyst's market channel, and reconnects with
// exponential backoff on stream failure (spec §4.1).
type Sentinel struct {
	market    ports.MarketDataService
	out       chan<- domain.MarketEvent
	updates   chan []string
	spreads   *market.SpreadCache
	lastPrice map[string]decimal.Decimal
	reg       *registry.Registry
	bus       *events.Bus
	log       zerolog.Logger
}

// NewSentinel builds a Sentinel forwarding MarketEvents onto out. bus may
// be nil; reconnect/degraded lifecycle events are then simply not
// published (the registry heartbeat/status path is unaffected). spreads
// may also be nil, in which case Sentinel skips updating it: Sentinel is
// the spread cache's sole writer (spec: "SpreadCache ... writer is the
// quote path"), estimating a symbol's spread from consecutive tick-to-
// tick price movement since this engine has no real bid/ask feed.
func NewSentinel(market ports.MarketDataService, out chan<- domain.MarketEvent, spreads *market.SpreadCache, reg *registry.Registry, bus *events.Bus, log zerolog.Logger) *Sentinel {
	reg.Register("sentinel")
	return &Sentinel{
		market:    market,
		out:       out,
		updates:   make(chan []string, 1),
		spreads:   spreads,
		lastPrice: make(map[string]decimal.Decimal),
		reg:       reg,
		bus:       bus,
		log:       log.With().Str("component", "sentinel").Logger(),
	}
}

// observeSpread updates the spread cache from a quote tick's price
// movement relative to the previous tick for the same symbol, a proxy
// for bid/ask spread when none is directly observable.
func (s *Sentinel) observeSpread(evt domain.MarketEvent) {
	if s.spreads == nil || evt.Kind != domain.MarketEventQuote {
		return
	}
	prev, ok := s.lastPrice[evt.Symbol]
	s.lastPrice[evt.Symbol] = evt.Price
	if !ok {
		return
	}
	delta := evt.Price.Sub(prev).Abs()
	if delta.IsPositive() {
		s.spreads.Update(evt.Symbol, delta)
	}
}

func (s *Sentinel) emit(t events.Type, data map[string]interface{}) {
	if s.bus == nil {
		return
	}
	s.bus.Emit(t, "sentinel", data)
}

// UpdateSymbols requests the Sentinel break its current subscription
// and re-subscribe with the new symbol set (spec §4.1).
func (s *Sentinel) UpdateSymbols(symbols []string) {
	select {
	case s.updates <- symbols:
	default:
	}
}

// Run drives the subscribe/forward/reconnect loop until ctx is
// canceled. symbols is the initial subscription set.
func (s *Sentinel) Run(ctx context.Context, symbols []string) {
	heartbeat := time.NewTicker(sentinelHeartbeat)
	defer heartbeat.Stop()

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		stream, err := s.market.Subscribe(ctx, symbols)
		if err != nil {
			attempt++
			delay := backoff(attempt)
			s.reg.MarkDegraded("sentinel", "subscribe failed: "+err.Error())
			s.emit(events.ReconnectAttempt, map[string]interface{}{"attempt": attempt, "delay": delay.String(), "error": err.Error()})
			s.log.Warn().Err(err).Dur("delay", delay).Int("attempt", attempt).Msg("subscribe failed, backing off")
			if !sleepOrDone(ctx, delay) {
				return
			}
			continue
		}
		attempt = 0
		s.reg.Heartbeat("sentinel", "streaming")

	innerLoop:
		for {
			select {
			case <-ctx.Done():
				return
			case newSymbols, ok := <-s.updates:
				if !ok {
					return
				}
				symbols = newSymbols
				break innerLoop
			case <-heartbeat.C:
				s.reg.Heartbeat("sentinel", "streaming")
			case evt, ok := <-stream:
				if !ok {
					s.reg.MarkDegraded("sentinel", "stream closed, reconnecting")
					break innerLoop
				}
				s.observeSpread(evt)
				select {
				case s.out <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// backoff computes the exponential delay (spec §4.1: "1s, 2s, 4s, ...
// capped at 60s").
func backoff(attempt int) time.Duration {
	d := time.Duration(float64(sentinelBaseBackoff) * math.Pow(2, float64(attempt-1)))
	if d > sentinelMaxBackoff {
		return sentinelMaxBackoff
	}
	return d
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
