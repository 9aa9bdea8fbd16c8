package broker

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticFeedSubscribeEmitsQuotes(t *testing.T) {
	f := NewSyntheticFeed(zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	stream, err := f.Subscribe(ctx, []string{"AAPL"})
	require.NoError(t, err)

	select {
	case evt := <-stream:
		assert.Equal(t, "AAPL", evt.Symbol)
	case <-time.After(1500 * time.Millisecond):
		t.Fatal("timed out waiting for synthetic quote")
	}
}

func TestSyntheticFeedGetHistoricalBarsReturnsBackfill(t *testing.T) {
	f := NewSyntheticFeed(zerolog.Nop())
	bars, err := f.GetHistoricalBars(context.Background(), "AAPL", time.Now().Add(-time.Hour), time.Now(), "1m")
	require.NoError(t, err)
	assert.NotEmpty(t, bars)
}
