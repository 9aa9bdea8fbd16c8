package domain

import "github.com/shopspring/decimal"

// StopKind discriminates the StopState tagged variant (spec §3, §9).
type StopKind int

const (
	NoPosition StopKind = iota
	ActiveStop
	Triggered
)

// StopState models the trailing-stop lifecycle as an explicit, total
// three-variant sum type rather than an inheritance hierarchy (spec §9:
// "Trailing-stop as tagged variant"). Transitions: Buy-fill -> ActiveStop;
// a price tick may raise Peak and recompute Stop = Peak - ATR*multiplier;
// price below Stop -> Triggered; Sell-fill -> NoPosition.
type StopState struct {
	Kind  StopKind
	Entry decimal.Decimal
	Peak  decimal.Decimal
	Stop  decimal.Decimal
	ATR   decimal.Decimal
	Exit  decimal.Decimal // meaningful only when Kind == Triggered
}

// NewNoPosition returns the zero (no stop tracked) state.
func NewNoPosition() StopState {
	return StopState{Kind: NoPosition}
}

// NewActiveStop initializes a trailing stop at entry using atr*multiplier.
func NewActiveStop(entry, atr, multiplier decimal.Decimal) StopState {
	stop := entry.Sub(atr.Mul(multiplier))
	return StopState{Kind: ActiveStop, Entry: entry, Peak: entry, Stop: stop, ATR: atr}
}

// Advance feeds a new price+atr into an ActiveStop, raising Peak/Stop
// monotonically (spec §8: "Trailing-stop monotonicity"), and transitions
// to Triggered if price has fallen to or below Stop. No-op outside
// ActiveStop.
func (s StopState) Advance(price, atr, multiplier decimal.Decimal) StopState {
	if s.Kind != ActiveStop {
		return s
	}
	if price.GreaterThan(s.Peak) {
		s.Peak = price
		candidate := s.Peak.Sub(atr.Mul(multiplier))
		if candidate.GreaterThan(s.Stop) {
			s.Stop = candidate
		}
		s.ATR = atr
	}
	if price.LessThanOrEqual(s.Stop) {
		return StopState{Kind: Triggered, Entry: s.Entry, Peak: s.Peak, Stop: s.Stop, ATR: s.ATR, Exit: price}
	}
	return s
}

// Raise lifts Stop to newStop, never lowering it (used by the news
// handler's tighten-on-bearish-signal path, spec §4.8).
func (s StopState) Raise(newStop decimal.Decimal) StopState {
	if s.Kind != ActiveStop {
		return s
	}
	if newStop.GreaterThan(s.Stop) {
		s.Stop = newStop
	}
	return s
}

// Closed returns the NoPosition state, used on Sell-fill.
func (s StopState) Closed() StopState {
	return StopState{Kind: NoPosition}
}
