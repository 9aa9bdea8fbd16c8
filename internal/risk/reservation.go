package risk

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Reservation is a pending order's locally reserved cash, released on
// fill, cancellation, or TTL expiry (spec §4.4 step 14; glossary
// "Reservation"). Supplemented from original_source/'s equivalent
// exposure-reservation ledger, absent from the distilled spec's step
// list but required to keep step 13's available-funds check correct
// across multiple concurrently pending orders.
type Reservation struct {
	OrderID   string
	Symbol    string
	Amount    decimal.Decimal
	CreatedAt time.Time
	TTL       time.Duration
}

// Expired reports whether the reservation has outlived its TTL as of now.
func (r Reservation) Expired(now time.Time) bool {
	return now.Sub(r.CreatedAt) >= r.TTL
}

// Ledger tracks outstanding reservations so the RiskManager's
// available-funds check (step 13) can subtract every live reservation
// from cash, not just the proposal currently being validated.
type Ledger struct {
	mu           sync.Mutex
	reservations map[string]Reservation // keyed by OrderID
	ttl          time.Duration
}

// NewLedger builds an empty ledger at the configured TTL (spec §4.4
// step 14 default: 5s).
func NewLedger(ttl time.Duration) *Ledger {
	return &Ledger{reservations: make(map[string]Reservation), ttl: ttl}
}

// Reserve records a new pending-order reservation.
func (l *Ledger) Reserve(orderID, symbol string, amount decimal.Decimal, now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reservations[orderID] = Reservation{OrderID: orderID, Symbol: symbol, Amount: amount, CreatedAt: now, TTL: l.ttl}
}

// Release drops a reservation on fill, cancellation, or rejection.
func (l *Ledger) Release(orderID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.reservations, orderID)
}

// SweepExpired releases every reservation older than its TTL as of now
// and returns how many were released (spec §8 boundary scenario 5:
// "exposure reservation returns to zero" after a valuation tick).
func (l *Ledger) SweepExpired(now time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var released int
	for id, r := range l.reservations {
		if r.Expired(now) {
			delete(l.reservations, id)
			released++
		}
	}
	return released
}

// TotalReserved sums every currently outstanding reservation.
func (l *Ledger) TotalReserved() decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := decimal.Zero
	for _, r := range l.reservations {
		total = total.Add(r.Amount)
	}
	return total
}
