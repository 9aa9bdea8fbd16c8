package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/domain"
)

func TestTradeRepositorySaveAndFindBySymbol(t *testing.T) {
	db := openTestDB(t)
	repo := NewTradeRepository(db)
	ctx := context.Background()

	order := domain.Order{
		ID: "o1", Symbol: "AAPL", Side: domain.Buy, OrderType: domain.Market,
		Price: decimal.NewFromFloat(150.25), Quantity: decimal.NewFromInt(10),
		Status: domain.OrderFilled, Timestamp: time.Now().Unix(),
	}
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindBySymbol(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].Price.Equal(order.Price))
	assert.True(t, found[0].Quantity.Equal(order.Quantity))
	assert.Equal(t, domain.Buy, found[0].Side)
	assert.Equal(t, domain.OrderFilled, found[0].Status)
}

func TestTradeRepositorySaveUpsertsByID(t *testing.T) {
	db := openTestDB(t)
	repo := NewTradeRepository(db)
	ctx := context.Background()

	order := domain.Order{
		ID: "o1", Symbol: "AAPL", Side: domain.Buy, OrderType: domain.Market,
		Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(10),
		Status: domain.OrderNew, Timestamp: 1000,
	}
	require.NoError(t, repo.Save(ctx, order))

	order.Status = domain.OrderFilled
	order.Timestamp = 2000
	require.NoError(t, repo.Save(ctx, order))

	found, err := repo.FindBySymbol(ctx, "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, domain.OrderFilled, found[0].Status)
	assert.Equal(t, int64(2000), found[0].Timestamp)
}

func TestTradeRepositoryGetRange(t *testing.T) {
	db := openTestDB(t)
	repo := NewTradeRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 7, 1, 9, 30, 0, 0, time.UTC)
	for i, ts := range []time.Time{base, base.Add(time.Hour), base.Add(48 * time.Hour)} {
		require.NoError(t, repo.Save(ctx, domain.Order{
			ID: "o" + string(rune('a'+i)), Symbol: "AAPL", Side: domain.Buy, OrderType: domain.Market,
			Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1),
			Status: domain.OrderFilled, Timestamp: ts.Unix(),
		}))
	}

	found, err := repo.GetRange(ctx, "AAPL", base, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Len(t, found, 2)
}
