// Package ports declares the narrow interfaces the engine consumes from
// external collaborators (spec §6): the broker gateway, persistence
// repositories, the news feed, and the sector reference data provider.
// Only contracts live here; implementations (pkg/broker's demo adapter,
// internal/persistence's sqlite repositories) live behind them.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
)

// Timeframe names a candle aggregation period requested from history.
type Timeframe string

const (
	Timeframe1m Timeframe = "1m"
)

// MarketDataService streams and serves market data (spec §6).
type MarketDataService interface {
	// Subscribe returns a channel of MarketEvents for symbols. The
	// channel may close at any time (stream end); the caller reconnects.
	Subscribe(ctx context.Context, symbols []string) (<-chan domain.MarketEvent, error)
	GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time, tf Timeframe) ([]domain.Candle, error)
	GetPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
	GetTopMovers(ctx context.Context) ([]string, error)
}

// ExecutionService submits orders and reports fills (spec §6). Execute
// must be idempotent on order.ID.
type ExecutionService interface {
	Execute(ctx context.Context, order domain.Order) error
	GetPortfolio(ctx context.Context) (domain.Portfolio, error)
	GetOpenOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	GetTodayOrders(ctx context.Context, symbol string) ([]domain.Order, error)
	CancelOrder(ctx context.Context, id, symbol string) error
	CancelAllOrders(ctx context.Context) error
	SubscribeOrderUpdates(ctx context.Context) (<-chan domain.OrderUpdate, error)
}

// NewsDataService streams news events (spec §6).
type NewsDataService interface {
	SubscribeNews(ctx context.Context) (<-chan domain.NewsSignal, error)
}

// SectorProvider resolves a symbol's sector for exposure-cap checks
// (spec §4.4 step 8).
type SectorProvider interface {
	SectorOf(symbol string) (string, bool)
}

// TradeRepository persists the orders the Executor submits.
// internal/evaluation does not read it.
type TradeRepository interface {
	Save(ctx context.Context, order domain.Order) error
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Order, error)
	GetRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Order, error)
}

// CandleRepository persists candles. Save is idempotent on
// (symbol, timestamp) (spec §6).
type CandleRepository interface {
	Save(ctx context.Context, c domain.Candle) error
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Candle, error)
	GetRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error)
}

// StrategyRepository persists per-symbol strategy assignment and config.
type StrategyRepository interface {
	Save(ctx context.Context, symbol, mode, configJSON string, active bool) error
	FindBySymbol(ctx context.Context, symbol string) (mode string, configJSON string, active bool, err error)
}

// RiskStateRepository persists the single global RiskState snapshot.
type RiskStateRepository interface {
	Save(ctx context.Context, s domain.RiskState) error
	Load(ctx context.Context) (domain.RiskState, bool, error)
}

// PerformanceSnapshot is one row of the performance_snapshots table
// (spec §6 persistence layout).
type PerformanceSnapshot struct {
	Symbol            string
	Timestamp         int64
	Equity            decimal.Decimal
	DrawdownPct       float64
	SharpeRolling30d  float64
	WinRateRolling30d float64
	Regime            string
}

// PerformanceSnapshotRepository persists periodic performance snapshots.
type PerformanceSnapshotRepository interface {
	Save(ctx context.Context, snap PerformanceSnapshot) error
	GetRange(ctx context.Context, symbol string, start, end time.Time) ([]PerformanceSnapshot, error)
}

// OptimizationHistoryRepository persists backtesting/optimization runs.
// External to this engine's core; the interface exists so the optional
// optimization tooling can be wired without the core depending on it.
type OptimizationHistoryRepository interface {
	Save(ctx context.Context, symbol string, runJSON string, timestamp int64) error
	FindBySymbol(ctx context.Context, symbol string, limit int) ([]string, error)
}

// ReoptimizationTrigger is a recorded reason a symbol's strategy should
// be reconsidered by the (external) optimization tooling.
type ReoptimizationTrigger struct {
	Symbol    string
	Reason    string
	Timestamp int64
}

// ReoptimizationTriggerRepository persists reoptimization triggers.
type ReoptimizationTriggerRepository interface {
	Save(ctx context.Context, t ReoptimizationTrigger) error
	FindPending(ctx context.Context) ([]ReoptimizationTrigger, error)
}
