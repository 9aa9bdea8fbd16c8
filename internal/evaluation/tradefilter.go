package evaluation

import "github.com/aristath/aegis/internal/domain"

// TradeFilter implements the TradeEvaluator's signal-validation and
// minimum-hold-time pre-checks (spec §4.7 steps 1-2), ahead of
// expectancy evaluation and sizing.
type TradeFilter struct {
	OrderCooldownSeconds int64
	MinHoldTimeMinutes   int64
}

func NewTradeFilter(cooldownSeconds, minHoldMinutes int64) *TradeFilter {
	return &TradeFilter{OrderCooldownSeconds: cooldownSeconds, MinHoldTimeMinutes: minHoldMinutes}
}

// Allow reports whether a signal on symbol at timestamp (epoch seconds)
// passes the long-only / duplicate-pending / cooldown / min-hold checks.
// hasPosition and hasPending describe current PositionManager state;
// lastSignalTime and lastEntryTime are its tracked timestamps.
func (f *TradeFilter) Allow(side domain.Side, hasPosition, hasPending bool, timestamp, lastSignalTime, lastEntryTime int64) (bool, string) {
	if side == domain.Sell && !hasPosition {
		return false, "long_only_violation"
	}
	if hasPending {
		return false, "duplicate_pending"
	}
	if lastSignalTime != 0 && timestamp-lastSignalTime < f.OrderCooldownSeconds {
		return false, "cooldown"
	}
	if side == domain.Sell {
		minHoldSeconds := f.MinHoldTimeMinutes * 60
		if timestamp-lastEntryTime < minHoldSeconds {
			return false, "min_hold_time"
		}
	}
	return true, ""
}
