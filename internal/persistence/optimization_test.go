package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizationHistoryRepositorySaveAndFindBySymbolNewestFirst(t *testing.T) {
	db := openTestDB(t)
	repo := NewOptimizationHistoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "AAPL", `{"run":1}`, 1000))
	require.NoError(t, repo.Save(ctx, "AAPL", `{"run":2}`, 2000))

	found, err := repo.FindBySymbol(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, `{"run":2}`, found[0])
	assert.Equal(t, `{"run":1}`, found[1])
}

func TestOptimizationHistoryRepositoryFindBySymbolRespectsLimit(t *testing.T) {
	db := openTestDB(t)
	repo := NewOptimizationHistoryRepository(db)
	ctx := context.Background()

	for i := int64(0); i < 5; i++ {
		require.NoError(t, repo.Save(ctx, "AAPL", "{}", i))
	}

	found, err := repo.FindBySymbol(ctx, "AAPL", 2)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
