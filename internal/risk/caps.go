package risk

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
	"github.com/aristath/aegis/internal/ports"
)

// PositionSizeExceeds implements step 7: position_value/equity must not
// exceed max_position_size_pct.
func PositionSizeExceeds(positionValue, equity decimal.Decimal, maxPositionSizePct float64) bool {
	if equity.IsZero() || equity.IsNegative() {
		return true
	}
	ratio, _ := positionValue.Div(equity).Float64()
	return ratio > maxPositionSizePct
}

// SectorExposureExceeds implements step 8: adding addedValue to symbol's
// sector must not push that sector's total exposure above
// max_sector_exposure_pct of equity.
func SectorExposureExceeds(symbol string, addedValue decimal.Decimal, positions map[string]*domain.Position, prices map[string]decimal.Decimal, sectors ports.SectorProvider, equity decimal.Decimal, maxSectorExposurePct float64) bool {
	if equity.IsZero() || equity.IsNegative() {
		return true
	}
	targetSector, ok := sectors.SectorOf(symbol)
	if !ok {
		return false
	}

	exposure := addedValue
	for sym, pos := range positions {
		if sym == symbol {
			continue
		}
		sector, ok := sectors.SectorOf(sym)
		if !ok || sector != targetSector {
			continue
		}
		price, ok := prices[sym]
		if !ok {
			continue
		}
		exposure = exposure.Add(pos.Quantity.Mul(price))
	}

	ratio, _ := exposure.Div(equity).Float64()
	return ratio > maxSectorExposurePct
}

// VolatilityBand reports whether symbol's realized volatility requires
// the proposal to be rejected (above reject threshold) or scaled down
// (above soft threshold, below reject threshold) per step 10.
type VolatilityBand int

const (
	VolatilityOK VolatilityBand = iota
	VolatilityScale
	VolatilityReject
)

// VolatilityFilter classifies realizedVol against configured bands.
// softPct and rejectPct are fractions (e.g. 0.03, 0.08).
func VolatilityFilter(realizedVol, softPct, rejectPct float64) VolatilityBand {
	switch {
	case realizedVol > rejectPct:
		return VolatilityReject
	case realizedVol > softPct:
		return VolatilityScale
	default:
		return VolatilityOK
	}
}

// IsSameDayRoundTrip implements step 12's PDT protection: in Stock mode
// with non_pdt_mode enabled, a Sell must be rejected if the symbol was
// also bought during today's session (same calendar day).
func IsSameDayRoundTrip(assetClass config.AssetClass, nonPDTMode bool, todayOrders []domain.Order, side domain.Side) bool {
	if assetClass != config.AssetStock || !nonPDTMode || side != domain.Sell {
		return false
	}
	for _, o := range todayOrders {
		if o.Side == domain.Buy {
			return true
		}
	}
	return false
}
