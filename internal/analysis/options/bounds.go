package options

import "options-strategizer/internal/models"

// ClassifyBounds reports whether the expiration payoff grows without limit
// as the underlying rises.
//
// Above the highest strike only calls are in the money, so the payoff slope
// per unit of underlying is the signed call quantity. Below the lowest strike
// the slope comes from puts alone, but the price cannot fall below zero, so
// the downside is always finite.
func ClassifyBounds(legs []models.StrategyLeg) models.PayoffBounds {
	var up, down float64
	for _, leg := range legs {
		q := leg.Side.Sign() * float64(leg.Quantity)
		if leg.Type.IsCall() {
			up += q
		} else {
			down -= q
		}
	}
	return models.PayoffBounds{
		UnlimitedProfit: up > 0,
		UnlimitedLoss:   up < 0,
		UpsideSlope:     up,
		DownsideSlope:   down,
	}
}
