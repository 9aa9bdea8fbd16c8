package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/aegis/internal/domain"
)

// RiskStateRepository persists the single global RiskState row (spec §6
// `risk_state` table; id is pinned to 1 by a CHECK constraint since
// there is exactly one session-wide RiskState).
//
// RiskState is msgpack-encoded into a single payload column rather than
// exploded into one SQL column per field: Load and Save always read or
// write the struct whole, so no query benefits from column-level
// access, and one binary blob avoids keeping eight columns and their
// decimal-as-text parsing in lockstep with the struct whenever a field
// is added. reference_date and updated_at stay as plain columns beside
// the blob because the daily rollover check (spec §4.4) compares the
// stored date before deciding whether to touch the rest of the state.
type RiskStateRepository struct {
	db *DB
}

// NewRiskStateRepository builds a RiskStateRepository over db.
func NewRiskStateRepository(db *DB) *RiskStateRepository {
	return &RiskStateRepository{db: db}
}

// Save upserts the single risk_state row.
func (r *RiskStateRepository) Save(ctx context.Context, s domain.RiskState) error {
	payload, err := msgpack.Marshal(&s)
	if err != nil {
		return fmt.Errorf("persistence: encode risk state: %w", err)
	}

	_, err = r.db.conn.ExecContext(ctx, `
		INSERT INTO risk_state (id, payload, reference_date, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload=excluded.payload,
			reference_date=excluded.reference_date,
			updated_at=excluded.updated_at
	`, payload, s.ReferenceDate, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("persistence: save risk state: %w", err)
	}
	return nil
}

// Load reads the persisted RiskState. found is false on a fresh
// database (RiskManager then seeds a new session, spec §4.4).
func (r *RiskStateRepository) Load(ctx context.Context) (domain.RiskState, bool, error) {
	var payload []byte
	err := r.db.conn.QueryRowContext(ctx, `SELECT payload FROM risk_state WHERE id = 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.RiskState{}, false, nil
	}
	if err != nil {
		return domain.RiskState{}, false, fmt.Errorf("persistence: load risk state: %w", err)
	}

	var s domain.RiskState
	if err := msgpack.Unmarshal(payload, &s); err != nil {
		return domain.RiskState{}, false, fmt.Errorf("persistence: decode risk state: %w", err)
	}
	return s, true, nil
}
