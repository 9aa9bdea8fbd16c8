package strategies

import (
	"github.com/shopspring/decimal"

	"github.com/aristath/aegis/internal/domain"
)

// VWAPStrategy enters long when price crosses above the session VWAP
// with rising volume and exits on a cross back below (spec §4.3 "vwap"
// mode, glossary "VWAP").
type VWAPStrategy struct{}

func NewVWAP() *VWAPStrategy { return &VWAPStrategy{} }

func (s *VWAPStrategy) Name() string { return "vwap" }

func (s *VWAPStrategy) Warmup(ctx AnalysisContext) {}

func (s *VWAPStrategy) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) {
		return nil
	}
	n := len(ctx.CandleHistory)
	typicalPrices := make([]decimal.Decimal, n)
	volumes := make([]decimal.Decimal, n)
	for i, c := range ctx.CandleHistory {
		typicalPrices[i] = c.High.Add(c.Low).Add(c.Close).Div(decimal.NewFromInt(3))
		volumes[i] = decimal.NewFromInt(c.Volume)
	}

	vwap, ok := VWAP(typicalPrices, volumes)
	if !ok {
		return nil
	}

	if ctx.Price.GreaterThan(vwap) && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "above_vwap", Confidence: 0.55}
	}
	if ctx.Price.LessThan(vwap) && ctx.HasPosition {
		return &Signal{Side: domain.Sell, Reason: "below_vwap", Confidence: 0.5}
	}
	return nil
}
