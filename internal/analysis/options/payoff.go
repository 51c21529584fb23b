package options

import (
	"gonum.org/v1/gonum/floats"

	"options-strategizer/internal/models"
)

// SpotRange returns steps evenly spaced prices from center*(1-rangePercent/100)
// to center*(1+rangePercent/100), both ends included. A non-positive center
// or step count yields an empty grid; a single step yields the center.
func SpotRange(center, rangePercent float64, steps int) []float64 {
	if !(center > 0) || steps <= 0 {
		return []float64{}
	}
	if steps == 1 {
		return []float64{center}
	}
	lo := center * (1 - rangePercent/100)
	hi := center * (1 + rangePercent/100)
	return floats.Span(make([]float64, steps), lo, hi)
}

// LegPayoff is the expiration P&L of one leg at spot, at contract scale.
func (e *Engine) LegPayoff(leg models.StrategyLeg, spot float64) float64 {
	intrinsic := Intrinsic(spot, leg.Strike, leg.Type)
	return leg.Side.Sign() * (intrinsic - leg.Premium) * float64(leg.Quantity) * e.settings.Multiplier
}

// StrategyPayoff is the expiration P&L of the whole strategy at spot.
func (e *Engine) StrategyPayoff(legs []models.StrategyLeg, spot float64) float64 {
	total := 0.0
	for _, leg := range legs {
		total += e.LegPayoff(leg, spot)
	}
	return total
}

// PayoffAtExpiration returns the strategy P&L at each spot price, in input order.
func (e *Engine) PayoffAtExpiration(legs []models.StrategyLeg, spotPrices []float64) []float64 {
	legs = canonical(legs)
	out := make([]float64, len(spotPrices))
	for i, spot := range spotPrices {
		out[i] = e.StrategyPayoff(legs, spot)
	}
	return out
}

// NetCost is the premium outlay at contract scale: positive for a net
// debit, negative for a net credit.
func (e *Engine) NetCost(legs []models.StrategyLeg) float64 {
	total := 0.0
	for _, leg := range legs {
		total += leg.Side.Sign() * leg.Premium * float64(leg.Quantity) * e.settings.Multiplier
	}
	return total
}

// canonical returns legs with type and side in canonical form so grid loops
// never reparse them. Already canonical input is returned as is; otherwise
// a normalised copy is made and the caller's slice is left untouched.
func canonical(legs []models.StrategyLeg) []models.StrategyLeg {
	for i, leg := range legs {
		if leg.Type == leg.Type.Normalize() && leg.Side == leg.Side.Normalize() {
			continue
		}
		out := make([]models.StrategyLeg, len(legs))
		copy(out, legs)
		for j := i; j < len(out); j++ {
			out[j].Type = out[j].Type.Normalize()
			out[j].Side = out[j].Side.Normalize()
		}
		return out
	}
	return legs
}
