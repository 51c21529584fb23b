package options

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"options-strategizer/internal/models"
)

// ComputeMetrics builds the aggregate summary for a leg list.
//
// Net Greeks sum the per-leg values supplied by the market data feed; legs
// without a Greek contribute nothing. Max profit and loss are the extremes of
// the expiration payoff over the configured sampling window, so strategies
// with unlimited payoff report a finite, window-bounded figure. Bounds tells
// callers when that is the case.
func (e *Engine) ComputeMetrics(legs []models.StrategyLeg, market models.MarketContext) models.StrategyMetrics {
	m := models.StrategyMetrics{
		Breakevens: []float64{},
	}
	if len(legs) == 0 {
		return m
	}

	m.NetCost = e.NetCost(legs)
	for _, leg := range legs {
		scale := leg.Side.Sign() * float64(leg.Quantity) * e.settings.Multiplier
		m.NetDelta += optional(leg.Delta) * scale
		m.NetGamma += optional(leg.Gamma) * scale
		m.NetTheta += optional(leg.Theta) * scale
		m.NetVega += optional(leg.Vega) * scale
	}

	grid := SpotRange(market.CurrentSpot, e.settings.MetricsRangePercent, e.settings.MetricsSteps)
	if len(grid) > 0 {
		payoff := e.PayoffAtExpiration(legs, grid)
		m.MaxProfitInRange = floats.Max(payoff)
		m.MaxLossInRange = floats.Min(payoff)
	}

	m.Breakevens = e.Breakevens(legs, market.CurrentSpot)
	m.ProbabilityOfProfit = e.ProbabilityOfProfit(legs, market, e.AverageIV(legs))

	m.CapitalAtRisk = math.Abs(m.NetCost)
	if m.NetCost != 0 {
		m.ReturnOnRisk = m.MaxProfitInRange / math.Abs(m.NetCost) * 100
	}
	if m.MaxLossInRange != 0 {
		m.RiskRewardRatio = m.MaxProfitInRange / math.Abs(m.MaxLossInRange)
	}
	m.Bounds = ClassifyBounds(legs)

	return m
}

func optional(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
