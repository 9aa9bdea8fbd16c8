package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
)

// CandleRepository persists candles, idempotent on (symbol, timestamp)
// (spec §6), following the same upsert shape as TradeRepository.
type CandleRepository struct {
	db *DB
}

// NewCandleRepository builds a CandleRepository over db.
func NewCandleRepository(db *DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// Save upserts a candle bar.
func (r *CandleRepository) Save(ctx context.Context, c domain.Candle) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO candles (symbol, timestamp, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(symbol, timestamp) DO UPDATE SET
			open=excluded.open, high=excluded.high, low=excluded.low,
			close=excluded.close, volume=excluded.volume
	`, c.Symbol, c.Timestamp, c.Open.String(), c.High.String(), c.Low.String(), c.Close.String(), c.Volume)
	if err != nil {
		return fmt.Errorf("persistence: save candle %s@%d: %w", c.Symbol, c.Timestamp, err)
	}
	return nil
}

// FindBySymbol returns the most recent candles for symbol, oldest first.
func (r *CandleRepository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]domain.Candle, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT symbol, timestamp, open, high, low, close, volume FROM (
			SELECT * FROM candles WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?
		) ORDER BY timestamp ASC
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("persistence: find candles by symbol: %w", err)
	}
	defer rows.Close()
	return scanCandles(rows)
}

// GetRange returns every candle for symbol between start and end.
func (r *CandleRepository) GetRange(ctx context.Context, symbol string, start, end time.Time) ([]domain.Candle, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT symbol, timestamp, open, high, low, close, volume
		FROM candles WHERE symbol = ? AND timestamp >= ? AND timestamp <= ? ORDER BY timestamp ASC
	`, symbol, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("persistence: get candle range: %w", err)
	}
	defer rows.Close()
	return scanCandles(rows)
}

func scanCandles(rows *sql.Rows) ([]domain.Candle, error) {
	var out []domain.Candle
	for rows.Next() {
		var c domain.Candle
		var open, high, low, close string
		if err := rows.Scan(&c.Symbol, &c.Timestamp, &open, &high, &low, &close, &c.Volume); err != nil {
			return nil, fmt.Errorf("persistence: scan candle: %w", err)
		}
		var err error
		if c.Open, err = decimal.NewFromString(open); err != nil {
			return nil, fmt.Errorf("persistence: parse candle open: %w", err)
		}
		if c.High, err = decimal.NewFromString(high); err != nil {
			return nil, fmt.Errorf("persistence: parse candle high: %w", err)
		}
		if c.Low, err = decimal.NewFromString(low); err != nil {
			return nil, fmt.Errorf("persistence: parse candle low: %w", err)
		}
		if c.Close, err = decimal.NewFromString(close); err != nil {
			return nil, fmt.Errorf("persistence: parse candle close: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterate candles: %w", err)
	}
	return out, nil
}
