package market

import (
	"sync"

	"github.com/shopspring/decimal"
)

// SpreadCache is the concurrent bid/ask-spread map shared across the
// engine: single writer (the quote path); its reader is the RiskManager's
// cost-aware profitability check. The Analyst does not read it, and
// liquidation pricing does not use it (spec §3, §5: "SpreadCache
// (concurrent map): single-writer / multi-reader").
type SpreadCache struct {
	mu      sync.RWMutex
	spreads map[string]decimal.Decimal
}

// NewSpreadCache returns an empty cache.
func NewSpreadCache() *SpreadCache {
	return &SpreadCache{spreads: make(map[string]decimal.Decimal)}
}

// Update records the latest observed spread for symbol. Only the quote
// path should call this.
func (c *SpreadCache) Update(symbol string, spread decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.spreads[symbol] = spread
}

// Get returns the last known spread for symbol, or false if never observed.
func (c *SpreadCache) Get(symbol string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.spreads[symbol]
	return s, ok
}
