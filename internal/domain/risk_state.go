package domain

import "github.com/shopspring/decimal"

// RiskState is RiskManager's persisted session/daily/HWM bookkeeping
// (spec §3, §4.4). ReferenceDate is YYYY-MM-DD in the exchange's trading
// calendar; when it advances, daily fields reset.
type RiskState struct {
	SessionStartEquity  decimal.Decimal
	DailyStartEquity    decimal.Decimal
	EquityHighWaterMark decimal.Decimal
	ConsecutiveLosses   int
	ReferenceDate       string // YYYY-MM-DD
	UpdatedAt           int64
	DailyDrawdownReset  bool
	Halted              bool
}

// NewRiskState seeds a fresh session at startingEquity.
func NewRiskState(startingEquity decimal.Decimal, referenceDate string, now int64) RiskState {
	return RiskState{
		SessionStartEquity:  startingEquity,
		DailyStartEquity:    startingEquity,
		EquityHighWaterMark: startingEquity,
		ReferenceDate:       referenceDate,
		UpdatedAt:           now,
	}
}

// RolloverIfNewDay resets daily fields when today has advanced past
// ReferenceDate (spec §4.4 "Session lifecycle").
func (r *RiskState) RolloverIfNewDay(today string, currentEquity decimal.Decimal, now int64) {
	if today == r.ReferenceDate {
		return
	}
	r.ReferenceDate = today
	r.DailyStartEquity = currentEquity
	r.DailyDrawdownReset = true
	r.ConsecutiveLosses = 0
	r.Halted = false
	r.UpdatedAt = now
}

// UpdateHWM raises the high-water mark to equity if equity is higher.
func (r *RiskState) UpdateHWM(equity decimal.Decimal) {
	if equity.GreaterThan(r.EquityHighWaterMark) {
		r.EquityHighWaterMark = equity
	}
}

// RecordFillOutcome applies a fill's realized P&L, which the RiskManager
// computes against the position's average entry price (there is no FIFO
// lot matching), to the consecutive-loss counter (spec §4.4: "On Filled: ... if P&L > 0
// reset consecutive_losses := 0; else increment").
func (r *RiskState) RecordFillOutcome(realizedPnL decimal.Decimal) {
	if realizedPnL.IsPositive() {
		r.ConsecutiveLosses = 0
	} else {
		r.ConsecutiveLosses++
	}
}
