package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/aegis/internal/domain"
)

func TestPaperBrokerExecuteIsIdempotentByOrderID(t *testing.T) {
	b := NewPaperBroker(decimal.NewFromInt(100000))
	order := domain.Order{ID: "o1", Symbol: "AAPL", Side: domain.Buy, Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1)}

	require.NoError(t, b.Execute(context.Background(), order))
	require.NoError(t, b.Execute(context.Background(), order))

	filled, err := b.GetTodayOrders(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, filled, 1)
}

func TestPaperBrokerRejectSymbolFailsExecute(t *testing.T) {
	b := NewPaperBroker(decimal.NewFromInt(100000))
	b.RejectSymbol("AAPL", errors.New("insufficient buying power"))

	err := b.Execute(context.Background(), domain.Order{ID: "o1", Symbol: "AAPL"})
	assert.Error(t, err)
}

func TestPaperBrokerSubscribeOrderUpdatesReceivesFill(t *testing.T) {
	b := NewPaperBroker(decimal.NewFromInt(100000))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, err := b.SubscribeOrderUpdates(ctx)
	require.NoError(t, err)

	order := domain.Order{ID: "o1", Symbol: "AAPL", Side: domain.Buy, Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1)}
	require.NoError(t, b.Execute(ctx, order))

	select {
	case u := <-updates:
		assert.Equal(t, "o1", u.OrderID)
		assert.Equal(t, domain.OrderFilled, u.Status)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for order update")
	}
}

func TestPaperBrokerGetOpenOrdersAlwaysEmpty(t *testing.T) {
	b := NewPaperBroker(decimal.NewFromInt(100000))
	require.NoError(t, b.Execute(context.Background(), domain.Order{ID: "o1", Symbol: "AAPL"}))

	open, err := b.GetOpenOrders(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, open)
}
