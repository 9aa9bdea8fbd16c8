package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// StrategyRepository persists per-symbol strategy assignment (spec §6
// `strategies` table).
type StrategyRepository struct {
	db *DB
}

// NewStrategyRepository builds a StrategyRepository over db.
func NewStrategyRepository(db *DB) *StrategyRepository {
	return &StrategyRepository{db: db}
}

// Save upserts the symbol's strategy mode, config, and active flag.
func (r *StrategyRepository) Save(ctx context.Context, symbol, mode, configJSON string, active bool) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO strategies (symbol, strategy_mode, config_json, is_active, last_updated)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(symbol) DO UPDATE SET
			strategy_mode=excluded.strategy_mode, config_json=excluded.config_json,
			is_active=excluded.is_active, last_updated=excluded.last_updated
	`, symbol, mode, configJSON, active, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("persistence: save strategy for %s: %w", symbol, err)
	}
	return nil
}

// FindBySymbol returns symbol's stored strategy assignment.
func (r *StrategyRepository) FindBySymbol(ctx context.Context, symbol string) (mode string, configJSON string, active bool, err error) {
	row := r.db.conn.QueryRowContext(ctx, `
		SELECT strategy_mode, config_json, is_active FROM strategies WHERE symbol = ?
	`, symbol)
	err = row.Scan(&mode, &configJSON, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, fmt.Errorf("persistence: find strategy for %s: %w", symbol, err)
	}
	return mode, configJSON, active, nil
}
