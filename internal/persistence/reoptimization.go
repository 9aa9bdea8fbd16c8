package persistence

import (
	"context"
	"fmt"

	"github.com/aristath/aegis/internal/ports"
)

// ReoptimizationTriggerRepository persists reoptimization triggers
// (spec §6 supplement): a reason a symbol's strategy is up for
// reconsideration, drained by offline tooling. No agent in this engine
// writes triggers.
type ReoptimizationTriggerRepository struct {
	db *DB
}

// NewReoptimizationTriggerRepository builds a ReoptimizationTriggerRepository over db.
func NewReoptimizationTriggerRepository(db *DB) *ReoptimizationTriggerRepository {
	return &ReoptimizationTriggerRepository{db: db}
}

// Save records a trigger as pending (handled = 0).
func (r *ReoptimizationTriggerRepository) Save(ctx context.Context, t ports.ReoptimizationTrigger) error {
	_, err := r.db.conn.ExecContext(ctx, `
		INSERT INTO reoptimization_triggers (symbol, reason, timestamp, handled) VALUES (?, ?, ?, 0)
	`, t.Symbol, t.Reason, t.Timestamp)
	if err != nil {
		return fmt.Errorf("persistence: save reoptimization trigger for %s: %w", t.Symbol, err)
	}
	return nil
}

// FindPending returns every trigger not yet marked handled, oldest first.
func (r *ReoptimizationTriggerRepository) FindPending(ctx context.Context) ([]ports.ReoptimizationTrigger, error) {
	rows, err := r.db.conn.QueryContext(ctx, `
		SELECT symbol, reason, timestamp FROM reoptimization_triggers WHERE handled = 0 ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("persistence: find pending reoptimization triggers: %w", err)
	}
	defer rows.Close()

	var out []ports.ReoptimizationTrigger
	for rows.Next() {
		var t ports.ReoptimizationTrigger
		if err := rows.Scan(&t.Symbol, &t.Reason, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("persistence: scan reoptimization trigger: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("persistence: iterate reoptimization triggers: %w", err)
	}
	return out, nil
}
