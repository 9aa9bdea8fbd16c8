package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrategyRepositoryFindBySymbolMissingReturnsFalse(t *testing.T) {
	db := openTestDB(t)
	repo := NewStrategyRepository(db)

	mode, cfg, active, err := repo.FindBySymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, mode)
	assert.Empty(t, cfg)
	assert.False(t, active)
}

func TestStrategyRepositorySaveAndFindBySymbol(t *testing.T) {
	db := openTestDB(t)
	repo := NewStrategyRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "AAPL", "trend_following", `{"fast":12,"slow":26}`, true))

	mode, cfg, active, err := repo.FindBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "trend_following", mode)
	assert.Equal(t, `{"fast":12,"slow":26}`, cfg)
	assert.True(t, active)
}

func TestStrategyRepositorySaveUpsertsBySymbol(t *testing.T) {
	db := openTestDB(t)
	repo := NewStrategyRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "AAPL", "mean_reversion", `{}`, true))
	require.NoError(t, repo.Save(ctx, "AAPL", "trend_following", `{"fast":12}`, false))

	mode, cfg, active, err := repo.FindBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "trend_following", mode)
	assert.Equal(t, `{"fast":12}`, cfg)
	assert.False(t, active)
}
