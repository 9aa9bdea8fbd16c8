package broker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"

	"github.com/aristath/aegis/internal/domain"
)

func startQuoteServer(t *testing.T, messages []quoteMessage) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "done")

		for _, m := range messages {
			data, _ := json.Marshal(m)
			if err := conn.Write(r.Context(), websocket.MessageText, data); err != nil {
				return
			}
		}
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestWebSocketFeedSubscribeForwardsQuotes(t *testing.T) {
	srv := startQuoteServer(t, []quoteMessage{
		{Symbol: "AAPL", Price: 150.25, TimestampMs: 1000},
		{Symbol: "MSFT", Price: 310.10, TimestampMs: 1000}, // filtered out, not subscribed
	})

	feed := NewWebSocketFeed(wsURL(srv.URL), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := feed.Subscribe(ctx, []string{"AAPL"})
	require.NoError(t, err)

	select {
	case evt := <-stream:
		assert.Equal(t, domain.MarketEventQuote, evt.Kind)
		assert.Equal(t, "AAPL", evt.Symbol)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for quote event")
	}
}

func TestWebSocketFeedGetPricesReflectsLastQuote(t *testing.T) {
	srv := startQuoteServer(t, []quoteMessage{
		{Symbol: "AAPL", Price: 150.25, TimestampMs: 1000},
	})

	feed := NewWebSocketFeed(wsURL(srv.URL), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := feed.Subscribe(ctx, []string{"AAPL"})
	require.NoError(t, err)
	<-stream

	require.Eventually(t, func() bool {
		prices, err := feed.GetPrices(ctx, []string{"AAPL"})
		return err == nil && !prices["AAPL"].IsZero()
	}, time.Second, 10*time.Millisecond)
}

func TestWebSocketFeedGetHistoricalBarsUnsupported(t *testing.T) {
	feed := NewWebSocketFeed("ws://unused", zerolog.Nop())
	_, err := feed.GetHistoricalBars(context.Background(), "AAPL", time.Now(), time.Now(), "1m")
	assert.Error(t, err)
}
