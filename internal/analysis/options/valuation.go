package options

import "options-strategizer/internal/models"

// TheoreticalValue prices one unit of a leg now, using the leg's IV or
// DefaultIV when it has none.
func (e *Engine) TheoreticalValue(leg models.StrategyLeg, market models.MarketContext) models.GreeksResult {
	t := market.TimeToExpiry(e.settings.MinTimeToExpiry)
	return Price(market.CurrentSpot, leg.Strike, t, market.RiskFreeRate, leg.IV(e.settings.DefaultIV), leg.Type)
}

// WithModelGreeks returns copies of legs whose missing Greeks are filled
// from the pricing model. Greeks already present are kept.
func (e *Engine) WithModelGreeks(legs []models.StrategyLeg, market models.MarketContext) []models.StrategyLeg {
	out := models.CloneLegs(legs)
	for i := range out {
		g := e.TheoreticalValue(out[i], market)
		if out[i].Delta == nil {
			out[i].Delta = models.Float(g.Delta)
		}
		if out[i].Gamma == nil {
			out[i].Gamma = models.Float(g.Gamma)
		}
		if out[i].Theta == nil {
			out[i].Theta = models.Float(g.Theta)
		}
		if out[i].Vega == nil {
			out[i].Vega = models.Float(g.Vega)
		}
	}
	return out
}
