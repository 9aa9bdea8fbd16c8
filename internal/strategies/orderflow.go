package strategies

import (
	"github.com/aristath/aegis/internal/config"
	"github.com/aristath/aegis/internal/domain"
)

// OrderFlow trades the sign of the order-flow imbalance feed once it
// exceeds a configured threshold, the only variant that reads OFI
// directly rather than through the indicator feature set (spec §4.3
// "order_flow" mode, §6 "order_flow OFI threshold").
type OrderFlow struct {
	params config.StrategyParams
}

func NewOrderFlow(params config.StrategyParams) *OrderFlow {
	return &OrderFlow{params: params}
}

func (s *OrderFlow) Name() string { return "order_flow" }

func (s *OrderFlow) Warmup(ctx AnalysisContext) {}

func (s *OrderFlow) Analyze(ctx AnalysisContext) *Signal {
	if coldStart(ctx) || len(ctx.OFIHistory) == 0 {
		return nil
	}
	ofi := ctx.OFIHistory[len(ctx.OFIHistory)-1]

	if ofi > s.params.OrderFlowOFIThreshold && !ctx.HasPosition {
		return &Signal{Side: domain.Buy, Reason: "ofi_buy_pressure", Confidence: ofi}
	}
	if ctx.HasPosition && ofi < -s.params.OrderFlowOFIThreshold {
		return &Signal{Side: domain.Sell, Reason: "ofi_sell_pressure", Confidence: -ofi}
	}
	return nil
}
