package persistence

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/domain"
)

func TestRiskStateRepositoryLoadOnEmptyDatabaseReturnsNotFound(t *testing.T) {
	db := openTestDB(t)
	repo := NewRiskStateRepository(db)

	_, found, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestRiskStateRepositorySaveAndLoadRoundTrips(t *testing.T) {
	db := openTestDB(t)
	repo := NewRiskStateRepository(db)
	ctx := context.Background()

	s := domain.NewRiskState(decimal.NewFromInt(100000), "2026-07-31", 1753900800)
	s.ConsecutiveLosses = 2
	s.DailyDrawdownReset = true
	s.UpdateHWM(decimal.NewFromInt(101500))
	require.NoError(t, repo.Save(ctx, s))

	loaded, found, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, loaded.SessionStartEquity.Equal(s.SessionStartEquity))
	assert.True(t, loaded.EquityHighWaterMark.Equal(decimal.NewFromInt(101500)))
	assert.Equal(t, 2, loaded.ConsecutiveLosses)
	assert.Equal(t, "2026-07-31", loaded.ReferenceDate)
	assert.True(t, loaded.DailyDrawdownReset)
	assert.False(t, loaded.Halted)
}

func TestRiskStateRepositorySaveUpsertsSingleRow(t *testing.T) {
	db := openTestDB(t)
	repo := NewRiskStateRepository(db)
	ctx := context.Background()

	first := domain.NewRiskState(decimal.NewFromInt(100000), "2026-07-30", 1753814400)
	require.NoError(t, repo.Save(ctx, first))

	second := first
	second.RolloverIfNewDay("2026-07-31", decimal.NewFromInt(99000), 1753900800)
	require.NoError(t, repo.Save(ctx, second))

	loaded, found, err := repo.Load(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2026-07-31", loaded.ReferenceDate)
	assert.True(t, loaded.DailyStartEquity.Equal(decimal.NewFromInt(99000)))

	var count int
	require.NoError(t, db.conn.QueryRow(`SELECT COUNT(*) FROM risk_state`).Scan(&count))
	assert.Equal(t, 1, count)
}
