// Package news implements the trend/overbought/unrealized-P&L decision
// logic the Analyst applies to an inbound NewsSignal (spec §4.8). It is
// pure decision logic, not a goroutine: the Analyst owns the per-symbol
// SymbolContext and portfolio reads, and calls Decide with the values it
// already has in hand, the same separation evaluation/risk use for the
// RiskManager's pipeline.
package news

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/decimalx"
	"github.com/aristath/aegis/internal/domain"
)

// TrendSMAPeriod is the fixed SMA window the news trend filter uses
// (spec §4.8: "price > SMA_50"), independent of the strategy-configured
// SMATrend period.
const TrendSMAPeriod = 50

// RSIOverboughtThreshold blocks a bullish news Buy above this RSI (the
// "anti-FOMO" check).
const RSIOverboughtThreshold = 75.0

// UnrealizedPnLTightenThreshold is the unrealized-gain fraction above
// which a bearish signal tightens the stop instead of closing outright.
const UnrealizedPnLTightenThreshold = 0.05

// Action is the decision Decide reaches for one NewsSignal.
type Action int

const (
	// Reject means the signal fails its trend/overbought filter and
	// produces no action.
	Reject Action = iota
	// Buy means a Market Buy should be emitted with reason "News".
	Buy
	// TightenStop means the position's trailing stop should be raised
	// to NewStop (never lowered; apply via StopState.Raise).
	TightenStop
	// SellFull means a Market Sell for the entire held quantity should
	// be emitted with reason "News".
	SellFull
)

// Decision is Decide's result.
type Decision struct {
	Action  Action
	NewStop decimal.Decimal // meaningful only when Action == TightenStop
}

// Decide applies spec §4.8's bullish/bearish handling. sma50 and rsi are
// the symbol's current SMA-50 and RSI reads; atr is the current ATR in
// price units; unrealizedPnLPct is (price-avgEntry)/avgEntry for the
// held position (ignored when hasPosition is false).
func Decide(signal domain.NewsSignal, price decimal.Decimal, sma50, rsi, atr float64, hasPosition bool, unrealizedPnLPct float64) Decision {
	switch signal.Direction {
	case domain.Bullish:
		priceF := decimalx.ToFloat(price)
		if priceF > sma50 && rsi <= RSIOverboughtThreshold {
			return Decision{Action: Buy}
		}
		return Decision{Action: Reject}

	case domain.Bearish:
		if !hasPosition {
			return Decision{Action: Reject}
		}
		if unrealizedPnLPct > UnrealizedPnLTightenThreshold {
			return Decision{Action: TightenStop, NewStop: tightenedStop(price, atr)}
		}
		return Decision{Action: SellFull}

	default:
		return Decision{Action: Reject}
	}
}

// tightenedStop computes price - ATR*k with k = max(0.5, 0.005*price/ATR)
// (spec §4.8). A zero or negative ATR degenerates to price itself
// (k undefined, so no tightening beyond the current price level).
func tightenedStop(price decimal.Decimal, atr float64) decimal.Decimal {
	priceF := decimalx.ToFloat(price)
	if atr <= 0 {
		return price
	}
	k := 0.005 * priceF / atr
	if k < 0.5 {
		k = 0.5
	}
	return decimalx.FromFloat(priceF - atr*k)
}
