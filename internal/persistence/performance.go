package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/ports"
)

// PerformanceSnapshotRepository persists periodic performance snapshots
// (spec §6 `performance_snapshots` table), a rolling Sharpe/win-rate
// history. Nothing in this engine reads it back.
type PerformanceSnapshotRepository struct {
	db *DB
}

// NewPerformanceSnapshotRepository builds a PerformanceSnapshotRepository over db.
func NewPerformanceSnapshotRepository(db *DB) *PerformanceSnapshotRepository {
	return &PerformanceSnapshotRepository{db: db}
}

// Save appends a snapshot row.
func (r *PerformanceSnapshotRepository) Save(ctx context.Context, snap ports.PerformanceSnapshot) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO performance_snapshots
			(symbol, timestamp, equity, drawdown_pct, sharpe_rolling_30d, win_rate_rolling_30d, regime)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, snap.Symbol, snap.Timestamp, snap.Equity.String(), snap.DrawdownPct, snap.SharpeRolling30d,
		snap.WinRateRolling30d, snap.Regime)
	if err != nil {
		return fmt.Errorf("persistence: save performance snapshot for %s: %w", snap.Symbol, err)
	}
	return nil
}

// GetRange returns symbol's snapshots between start and end, oldest first.
func (r *PerformanceSnapshotRepository) GetRange(ctx context.Context, symbol string, start, end time.Time) ([]ports.PerformanceSnapshot, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT symbol, timestamp, equity, drawdown_pct, sharpe_rolling_30d, win_rate_rolling_30d, regime
		FROM performance_snapshots WHERE symbol = ? AND timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp ASC
	`, symbol, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("persistence: get performance range for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []ports.PerformanceSnapshot
	for rows.Next() {
		var s ports.PerformanceSnapshot
		var equity string
		if err := rows.Scan(&s.Symbol, &s.Timestamp, &equity, &s.DrawdownPct, &s.SharpeRolling30d,
			&s.WinRateRolling30d, &s.Regime); err != nil {
			return nil, fmt.Errorf("persistence: scan performance snapshot: %w", err)
		}
		if s.Equity, err = decimal.NewFromString(equity); err != nil {
			return nil, fmt.Errorf("persistence: parse snapshot equity: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterate performance snapshots: %w", err)
	}
	return out, nil
}
