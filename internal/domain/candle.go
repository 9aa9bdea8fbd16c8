package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Candle is an immutable OHLCV bar, aligned to a minute boundary.
//
// Volume here is a tick count, not exchange-reported volume: the
// CandleAggregator increments it once per quote because true trade
// volume is not part of the streamed quote data. Strategies that
// expect exchange volume (VWAP, Breakout's volume multiplier) consume
// this approximation as-is.
type Candle struct {
	Symbol    string
	Timestamp int64 // epoch seconds, aligned to the minute boundary
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    int64
}

// Validate enforces the candle well-formedness invariant (spec §8):
// low <= min(open,close) <= max(open,close) <= high, and the timestamp
// lands on a minute boundary.
func (c Candle) Validate() error {
	minOC := decimal.Min(c.Open, c.Close)
	maxOC := decimal.Max(c.Open, c.Close)
	if c.Low.GreaterThan(minOC) {
		return fmt.Errorf("candle %s@%d: low %s > min(open,close) %s", c.Symbol, c.Timestamp, c.Low, minOC)
	}
	if minOC.GreaterThan(maxOC) {
		return fmt.Errorf("candle %s@%d: min(open,close) %s > max(open,close) %s", c.Symbol, c.Timestamp, minOC, maxOC)
	}
	if maxOC.GreaterThan(c.High) {
		return fmt.Errorf("candle %s@%d: max(open,close) %s > high %s", c.Symbol, c.Timestamp, maxOC, c.High)
	}
	if c.Timestamp%60 != 0 {
		return fmt.Errorf("candle %s@%d: timestamp not aligned to minute boundary", c.Symbol, c.Timestamp)
	}
	return nil
}
