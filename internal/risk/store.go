package risk

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/ports"
)

// Store wraps the RiskStateRepository with the in-memory RiskState the
// RiskManager mutates every proposal, persisting on every change so a
// restart resumes from the last known halted/HWM/daily-start state
// (spec §4.4, §6).
type Store struct {
	repo  ports.RiskStateRepository
	state domain.RiskState
}

// Load reads the persisted RiskState, or seeds a fresh one from
// startingEquity if none exists yet.
func Load(ctx context.Context, repo ports.RiskStateRepository, startingEquity decimal.Decimal, referenceDate string, now int64) (*Store, error) {
	state, found, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if !found {
		state = domain.NewRiskState(startingEquity, referenceDate, now)
	}
	return &Store{repo: repo, state: state}, nil
}

// State returns the current in-memory RiskState snapshot.
func (s *Store) State() domain.RiskState { return s.state }

// Update applies mutator to the in-memory state and persists the result.
func (s *Store) Update(ctx context.Context, mutator func(*domain.RiskState)) error {
	mutator(&s.state)
	return s.repo.Save(ctx, s.state)
}
