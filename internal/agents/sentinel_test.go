package agents

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/market"
	"github.com/aristath/aegis/internal/ports"
	"github.com/aristath/aegis/internal/registry"
	"github.com/rs/zerolog"
)

type fakeMarketData struct {
	subscribeCalls int32
	failFirst      bool
	ch             chan domain.MarketEvent
}

func (f *fakeMarketData) Subscribe(ctx context.Context, symbols []string) (<-chan domain.MarketEvent, error) {
	n := atomic.AddInt32(&f.subscribeCalls, 1)
	if f.failFirst && n == 1 {
		return nil, errors.New("boom")
	}
	return f.ch, nil
}

func (f *fakeMarketData) GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time, tf ports.Timeframe) ([]domain.Candle, error) {
	return nil, nil
}
func (f *fakeMarketData) GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	return nil, nil
}
func (f *fakeMarketData) GetTopMovers(ctx context.Context) ([]string, error) { return nil, nil }

func TestSentinelForwardsEvents(t *testing.T) {
	src := &fakeMarketData{ch: make(chan domain.MarketEvent, 1)}
	out := make(chan domain.MarketEvent, 1)
	reg := registry.New(zerolog.Nop())
	s := NewSentinel(src, out, nil, reg, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, []string{"AAPL"})

	evt := domain.NewQuoteEvent("AAPL", decimal.NewFromInt(100), 1000)
	src.ch <- evt

	select {
	case got := <-out:
		assert.Equal(t, "AAPL", got.Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for forwarded event")
	}
}

func TestSentinelRecoversFromSubscribeFailure(t *testing.T) {
	src := &fakeMarketData{ch: make(chan domain.MarketEvent, 1), failFirst: true}
	out := make(chan domain.MarketEvent, 1)
	reg := registry.New(zerolog.Nop())
	s := NewSentinel(src, out, nil, reg, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, []string{"AAPL"})

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&src.subscribeCalls) >= 2
	}, 3*time.Second, 10*time.Millisecond)
}

func TestSentinelUpdatesSpreadCacheFromConsecutiveTicks(t *testing.T) {
	src := &fakeMarketData{ch: make(chan domain.MarketEvent, 2)}
	out := make(chan domain.MarketEvent, 2)
	reg := registry.New(zerolog.Nop())
	spreads := market.NewSpreadCache()
	s := NewSentinel(src, out, spreads, reg, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx, []string{"AAPL"})

	src.ch <- domain.NewQuoteEvent("AAPL", decimal.NewFromInt(100), 1000)
	<-out
	src.ch <- domain.NewQuoteEvent("AAPL", decimal.NewFromFloat(100.5), 1001)
	<-out

	require.Eventually(t, func() bool {
		spread, ok := spreads.Get("AAPL")
		return ok && spread.Equal(decimal.NewFromFloat(0.5))
	}, 2*time.Second, 10*time.Millisecond)
}
