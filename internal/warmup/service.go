// Package warmup fetches historical bars for a newly observed symbol and
// replays them through its feature service and strategy so the first
// live candle is not scored cold (spec §4.10).
package warmup

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/ports"
	"github.com/aristath/aegis/internal/symbolctx"
)

// BroadcastBars is the number of most-recent bars handed to the UI
// channel after a warmup completes (spec §4.10: "Broadcast the last 100
// bars to the UI channel").
const BroadcastBars = 100

// fetchSlack is the spec's "generous calendar-day back-off" multiplier
// on the number of bars actually needed, applied as a days-back window
// rather than a bar count to tolerate weekends/closed-market gaps in the
// underlying 1-minute history.
const fetchSlack = 1.1

// Service fetches and replays a symbol's warmup history (spec §4.10).
type Service struct {
	market      ports.MarketDataService
	uiBroadcast chan<- []domain.Candle
	log         zerolog.Logger
}

// NewService builds a warmup service over the market-data collaborator.
// uiBroadcast may be nil; sends are always non-blocking best-effort.
func NewService(market ports.MarketDataService, uiBroadcast chan<- []domain.Candle, log zerolog.Logger) *Service {
	return &Service{market: market, uiBroadcast: uiBroadcast, log: log.With().Str("component", "warmup").Logger()}
}

// Warmup fetches max(periods)*1.1 historical bars for sc.Symbol, feeds
// them through sc's feature service and strategy in order, and caches a
// reward/risk ratio from the resulting regime. On a fetch failure it
// marks sc.WarmupSucceeded=false and leaves sc with zero-initialized
// indicators rather than erroring out — trading is still allowed,
// degraded, until live data accumulates.
func (s *Service) Warmup(ctx context.Context, sc *symbolctx.Context) {
	barsNeeded := int(float64(sc.Features.MaxPeriod()) * fetchSlack)
	if barsNeeded <= 0 {
		barsNeeded = 1
	}

	end := time.Now()
	lookbackDays := barsNeeded/300 + 5 // ~300 usable 1m bars per trading day, plus slack for weekends
	start := end.AddDate(0, 0, -lookbackDays)

	bars, err := s.market.GetHistoricalBars(ctx, sc.Symbol, start, end, ports.Timeframe1m)
	if err != nil {
		sc.WarmupSucceeded = false
		s.log.Warn().Err(err).Str("symbol", sc.Symbol).Msg("warmup fetch failed, proceeding in degraded mode")
		return
	}

	if len(bars) > barsNeeded {
		bars = bars[len(bars)-barsNeeded:]
	}

	for _, bar := range bars {
		sc.AppendCandle(bar)
		sc.Strategy.Warmup(sc.AnalysisContext(bar.Close, false, bar.Timestamp))
	}
	sc.WarmupSucceeded = true

	if sc.LastFeatures.Ready {
		expectancy := sc.Expectancy.Evaluate(sc.Symbol, sc.LastFeatures.Price, sc.LastRegime)
		sc.CachedRewardRiskRatio = expectancy.RewardRiskRatio
	}

	s.broadcast(bars)
}

func (s *Service) broadcast(bars []domain.Candle) {
	if s.uiBroadcast == nil || len(bars) == 0 {
		return
	}
	if len(bars) > BroadcastBars {
		bars = bars[len(bars)-BroadcastBars:]
	}
	select {
	case s.uiBroadcast <- bars:
	default:
		s.log.Warn().Msg("ui broadcast channel full, dropping warmup bars")
	}
}
