package options

import (
	"math"

	"options-strategizer/internal/models"
)

// SensitivityTable prices the strategy across a spot grid at three horizons:
// now, half the remaining time, and expiration.
//
// The now and half-life columns price each leg with its own IV (DefaultIV
// when absent). This is deliberately not the averaged IV that
// ProbabilityOfProfit uses.
func (e *Engine) SensitivityTable(legs []models.StrategyLeg, market models.MarketContext, rangePercent float64, steps int) []models.SensitivityScenario {
	spot := market.CurrentSpot
	grid := SpotRange(spot, rangePercent, steps)
	if len(grid) == 0 {
		return []models.SensitivityScenario{}
	}

	current := nearestToSpot(grid, spot)
	if current >= 0 {
		grid[current] = spot
	}

	t := market.TimeToExpiry(e.settings.MinTimeToExpiry)
	rows := make([]models.SensitivityScenario, len(grid))
	e.parallelFor(len(grid), func(i int) {
		rows[i] = e.scenario(legs, grid[i], spot, t, market.RiskFreeRate)
		rows[i].IsCurrentPrice = i == current
	})
	return rows
}

// DefaultSensitivityTable uses the configured range and step count.
func (e *Engine) DefaultSensitivityTable(legs []models.StrategyLeg, market models.MarketContext) []models.SensitivityScenario {
	return e.SensitivityTable(legs, market, e.settings.SensitivityRangePercent, e.settings.SensitivitySteps)
}

func (e *Engine) scenario(legs []models.StrategyLeg, price, spot, t, r float64) models.SensitivityScenario {
	row := models.SensitivityScenario{
		SpotPrice:         price,
		SpotChangePercent: (price - spot) / spot * 100,
	}
	for _, leg := range legs {
		iv := leg.IV(e.settings.DefaultIV)
		scale := leg.Side.Sign() * float64(leg.Quantity) * e.settings.Multiplier

		now := Price(price, leg.Strike, t, r, iv, leg.Type).Price
		half := Price(price, leg.Strike, t/2, r, iv, leg.Type).Price

		row.PnLNow += (now - leg.Premium) * scale
		row.PnLHalfLife += (half - leg.Premium) * scale
		row.PnLExpiration += e.LegPayoff(leg, price)
	}
	row.IsNearBreakeven = math.Abs(row.PnLExpiration) < e.settings.NearBreakevenThreshold
	return row
}

// nearestToSpot returns the index of the grid point closest to spot if it
// lies within half a step, or -1. On a symmetric grid with an even point
// count spot sits between two points and the first equally near one wins.
func nearestToSpot(grid []float64, spot float64) int {
	if len(grid) == 1 {
		return 0
	}
	halfStep := (grid[1] - grid[0]) / 2
	best, bestDist := -1, math.Inf(1)
	for i, p := range grid {
		if d := math.Abs(p - spot); d < bestDist {
			best, bestDist = i, d
		}
	}
	if bestDist > halfStep*(1+1e-9) {
		return -1
	}
	return best
}
