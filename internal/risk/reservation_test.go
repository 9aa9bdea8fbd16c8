package risk

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// TestReservationTTLReleasesToZero mirrors spec §8 boundary scenario 5:
// pending_order_ttl_ms=100; after a valuation tick past the TTL, total
// reserved exposure returns to zero.
func TestReservationTTLReleasesToZero(t *testing.T) {
	l := NewLedger(100 * time.Millisecond)
	start := time.Unix(0, 0)
	l.Reserve("order-1", "AAPL", decimal.NewFromInt(1000), start)

	assert.True(t, decimal.NewFromInt(1000).Equal(l.TotalReserved()))

	released := l.SweepExpired(start.Add(150 * time.Millisecond))
	assert.Equal(t, 1, released)
	assert.True(t, l.TotalReserved().IsZero())
}

func TestReservationReleaseOnFill(t *testing.T) {
	l := NewLedger(5 * time.Second)
	now := time.Unix(0, 0)
	l.Reserve("order-1", "AAPL", decimal.NewFromInt(500), now)
	l.Release("order-1")
	assert.True(t, l.TotalReserved().IsZero())
}
