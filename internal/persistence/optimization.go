package persistence

import (
	"context"
	"fmt"
)

// OptimizationHistoryRepository persists backtesting/optimization runs
// (spec §6 supplement: the optional offline re-optimization tooling
// reads this table back, the core engine only appends to it).
type OptimizationHistoryRepository struct {
	db *DB
}

// NewOptimizationHistoryRepository builds an OptimizationHistoryRepository over db.
func NewOptimizationHistoryRepository(db *DB) *OptimizationHistoryRepository {
	return &OptimizationHistoryRepository{db: db}
}

// Save appends one optimization run record.
func (r *OptimizationHistoryRepository) Save(ctx context.Context, symbol string, runJSON string, timestamp int64) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO optimization_history (symbol, run_json, timestamp) VALUES (?, ?, ?)
	`, symbol, runJSON, timestamp)
	if err != nil {
		return fmt.Errorf("persistence: save optimization run for %s: %w", symbol, err)
	}
	return nil
}

// FindBySymbol returns the most recent run_json payloads for symbol, newest first.
func (r *OptimizationHistoryRepository) FindBySymbol(ctx context.Context, symbol string, limit int) ([]string, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT run_json FROM optimization_history WHERE symbol = ? ORDER BY timestamp DESC LIMIT ?
	`, symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("persistence: find optimization history for %s: %w", symbol, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var runJSON string
		if err := rows.Scan(&runJSON); err != nil {
			return nil, fmt.Errorf("persistence: scan optimization run: %w", err)
		}
		out = append(out, runJSON)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterate optimization history: %w", err)
	}
	return out, nil
}
