package agents

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/evaluation"
	"github.com/aristath/aegis/internal/features"
	"github.com/aristath/aegis/internal/registry"
	"github.com/aristath/aegis/internal/symbolctx"
)

func testStrategyParams() config.StrategyParams {
	return config.StrategyParams{
		SMAFast: 3, SMASlow: 5, SMATrend: 20,
		RSIPeriod: 14, RSIThreshold: 70,
		MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		ATRPeriod: 14, TrailingStopATRMultiplier: 2,
		BollingerPeriod: 20, BollingerStdDev: 2,
	}
}

func newTestAnalyst(t *testing.T) (*Analyst, chan domain.MarketEvent, chan domain.OrderUpdate, chan domain.TradeProposal) {
	t.Helper()
	a, events, updates, _, proposals := newTestAnalystWithNews(t)
	return a, events, updates, proposals
}

func newTestAnalystWithNews(t *testing.T) (*Analyst, chan domain.MarketEvent, chan domain.OrderUpdate, chan domain.NewsSignal, chan domain.TradeProposal) {
	t.Helper()
	events := make(chan domain.MarketEvent, 8)
	updates := make(chan domain.OrderUpdate, 8)
	newsEvents := make(chan domain.NewsSignal, 8)
	proposals := make(chan domain.TradeProposal, 8)
	portfolio := domain.NewPortfolio(decimal.NewFromInt(100000))
	winRates := evaluation.NewWinRateProvider(5, 0.6)

	cfg := &config.Config{
		StrategyMode:       config.StrategyStandard,
		Strategy:           testStrategyParams(),
		MinHoldTimeMinutes: 1,
	}
	cfg.Risk.TakeProfitPct = 0.10

	a := NewAnalyst(events, updates, newsEvents, proposals, portfolio, winRates, nil, nil, cfg, registry.New(zerolog.Nop()), zerolog.Nop())
	return a, events, updates, newsEvents, proposals
}

func TestSyncPositionAndStopTriggersTrailingExit(t *testing.T) {
	a, _, _, _ := newTestAnalyst(t)
	sc := symbolctx.New("AAPL", config.StrategyStandard, testStrategyParams(), "", evaluation.NewWinRateProvider(5, 0.6), 60)
	sc.Position.TrailingStop = domain.NewActiveStop(decimal.NewFromInt(100), decimal.NewFromInt(2), a.trailingATRMult)
	sc.LastFeatures = features.FeatureSet{ATR: 2}

	exit := a.syncPositionAndStop(sc, decimal.NewFromInt(90), true, decimal.NewFromInt(10), time.Now().Unix())

	require.NotNil(t, exit)
	assert.Equal(t, domain.Sell, exit.Side)
	assert.Equal(t, "trailing_stop_triggered", exit.Reason)
}

func TestSyncPositionAndStopTakesPartialProfit(t *testing.T) {
	a, _, _, _ := newTestAnalyst(t)
	sc := symbolctx.New("AAPL", config.StrategyStandard, testStrategyParams(), "", evaluation.NewWinRateProvider(5, 0.6), 60)
	sc.Position.TrailingStop = domain.NewActiveStop(decimal.NewFromInt(100), decimal.NewFromInt(1), a.trailingATRMult)
	sc.LastFeatures = features.FeatureSet{ATR: 1}

	// price at 110 clears the 10% take-profit target without breaching the stop
	exit := a.syncPositionAndStop(sc, decimal.NewFromInt(110), true, decimal.NewFromInt(10), time.Now().Unix())

	require.NotNil(t, exit)
	assert.Equal(t, domain.Sell, exit.Side)
	assert.Equal(t, "partial_take_profit", exit.Reason)
	assert.True(t, exit.Quantity.Equal(decimal.NewFromInt(5)), "expected half the held quantity, got %s", exit.Quantity)
	assert.True(t, sc.Position.TakenProfit)

	// a second bar at the same price must not re-fire it
	again := a.syncPositionAndStop(sc, decimal.NewFromInt(110), true, decimal.NewFromInt(5), time.Now().Unix())
	assert.Nil(t, again)
}

func TestSyncPositionAndStopClearsOnFlat(t *testing.T) {
	a, _, _, _ := newTestAnalyst(t)
	sc := symbolctx.New("AAPL", config.StrategyStandard, testStrategyParams(), "", evaluation.NewWinRateProvider(5, 0.6), 60)
	sc.Position.TrailingStop = domain.NewActiveStop(decimal.NewFromInt(100), decimal.NewFromInt(2), a.trailingATRMult)
	sc.Position.TakenProfit = true

	exit := a.syncPositionAndStop(sc, decimal.NewFromInt(105), false, decimal.Zero, time.Now().Unix())

	assert.Nil(t, exit)
	assert.Equal(t, domain.NoPosition, sc.Position.TrailingStop.Kind)
	assert.False(t, sc.Position.TakenProfit)
}

func TestHandleOrderUpdateInitializesTrailingStopOnFill(t *testing.T) {
	a, _, updates, _ := newTestAnalyst(t)
	sc := a.contextFor(context.Background(), "AAPL")
	sc.LastFeatures = features.FeatureSet{ATR: 1.5}
	a.portfolio.ApplyBuy("AAPL", decimal.NewFromInt(10), decimal.NewFromInt(100))

	updates <- domain.OrderUpdate{OrderID: "o1", Symbol: "AAPL", Status: domain.OrderFilled, FilledQty: decimal.NewFromInt(10), AvgPrice: decimal.NewFromInt(100)}
	a.handleOrderUpdate(<-updates)

	assert.Equal(t, domain.ActiveStop, sc.Position.TrailingStop.Kind)
	assert.True(t, sc.Position.TrailingStop.Entry.Equal(decimal.NewFromInt(100)))
	assert.False(t, sc.Position.HasPending())
}

func TestHandleOrderUpdateClearsTrailingStopWhenFlat(t *testing.T) {
	a, _, updates, _ := newTestAnalyst(t)
	sc := a.contextFor(context.Background(), "AAPL")
	sc.Position.TrailingStop = domain.NewActiveStop(decimal.NewFromInt(100), decimal.NewFromInt(1), a.trailingATRMult)
	sc.Position.MarkPending(domain.Sell, time.Now().Unix())

	updates <- domain.OrderUpdate{OrderID: "o2", Symbol: "AAPL", Status: domain.OrderFilled, FilledQty: decimal.NewFromInt(10), AvgPrice: decimal.NewFromInt(50)}
	a.handleOrderUpdate(<-updates)

	assert.Equal(t, domain.NoPosition, sc.Position.TrailingStop.Kind)
	assert.False(t, sc.Position.HasPending())
}

func TestOnCandleEmitsExitAheadOfStrategySignal(t *testing.T) {
	a, events, _, proposals := newTestAnalyst(t)
	sc := a.contextFor(context.Background(), "AAPL")
	sc.Position.TrailingStop = domain.NewActiveStop(decimal.NewFromInt(100), decimal.NewFromInt(2), a.trailingATRMult)
	a.portfolio.ApplyBuy("AAPL", decimal.NewFromInt(10), decimal.NewFromInt(100))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	now := time.Now().Unix()
	events <- domain.NewCandleEvent(domain.Candle{
		Symbol: "AAPL", Timestamp: now,
		Open: decimal.NewFromInt(95), High: decimal.NewFromInt(96),
		Low: decimal.NewFromInt(90), Close: decimal.NewFromInt(90),
		Volume: 1,
	})

	select {
	case p := <-proposals:
		assert.Equal(t, domain.Sell, p.Side)
		assert.Equal(t, "trailing_stop_triggered", p.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a trailing-stop exit proposal")
	}
}

func TestOnCandleAggregatesQuotesToMinuteBoundary(t *testing.T) {
	a, events, _, _ := newTestAnalyst(t)
	a.contextFor(context.Background(), "AAPL")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	events <- domain.NewQuoteEvent("AAPL", decimal.NewFromInt(100), 0)
	events <- domain.NewQuoteEvent("AAPL", decimal.NewFromInt(101), 61_000)

	time.Sleep(50 * time.Millisecond)

	sc := a.contextFor(context.Background(), "AAPL")
	assert.Len(t, sc.CandleHistory, 1)
	assert.True(t, sc.CandleHistory[0].Close.Equal(decimal.NewFromInt(100)))
}

func TestHandleNewsEmitsBuyOnBullishAboveTrend(t *testing.T) {
	a, _, _, newsEvents, proposals := newTestAnalystWithNews(t)
	sc := a.contextFor(context.Background(), "AAPL")
	for i := 0; i < 50; i++ {
		sc.CandleHistory = append(sc.CandleHistory, domain.Candle{Symbol: "AAPL", Close: decimal.NewFromInt(100)})
	}
	sc.LastFeatures = features.FeatureSet{Price: 110, RSI: 50, ATR: 2}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	newsEvents <- domain.NewsSignal{Symbol: "AAPL", Direction: domain.Bullish, Timestamp: time.Now().Unix()}

	select {
	case p := <-proposals:
		assert.Equal(t, domain.Buy, p.Side)
		assert.Equal(t, "News", p.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a News Buy proposal")
	}
}

func TestHandleNewsTightensStopOnBearishWithGains(t *testing.T) {
	a, _, _, newsEvents, _ := newTestAnalystWithNews(t)
	sc := a.contextFor(context.Background(), "AAPL")
	for i := 0; i < 50; i++ {
		sc.CandleHistory = append(sc.CandleHistory, domain.Candle{Symbol: "AAPL", Close: decimal.NewFromInt(90)})
	}
	sc.LastFeatures = features.FeatureSet{Price: 110, RSI: 50, ATR: 2}
	sc.Position.TrailingStop = domain.NewActiveStop(decimal.NewFromInt(100), decimal.NewFromInt(2), a.trailingATRMult)
	a.portfolio.ApplyBuy("AAPL", decimal.NewFromInt(10), decimal.NewFromInt(100))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go a.Run(ctx)

	newsEvents <- domain.NewsSignal{Symbol: "AAPL", Direction: domain.Bearish, Timestamp: time.Now().Unix()}

	require.Eventually(t, func() bool {
		return sc.Position.TrailingStop.Stop.GreaterThan(decimal.NewFromInt(100))
	}, 2*time.Second, 10*time.Millisecond, "expected the stop to tighten above its initial level")
}
