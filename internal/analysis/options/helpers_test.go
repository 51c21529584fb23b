package options

import (
	"math"

	"options-strategizer/internal/models"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultSettings())
}

func testMarket(spot float64, days int) models.MarketContext {
	return models.MarketContext{CurrentSpot: spot, DaysToExpiry: days, RiskFreeRate: 0.26}
}

func leg(t models.OptionType, side models.PositionSide, strike, premium float64, qty int) models.StrategyLeg {
	return models.StrategyLeg{Type: t, Side: side, Strike: strike, Premium: premium, Quantity: qty}
}

func longCall(strike, premium float64) models.StrategyLeg {
	return leg(models.OptionCall, models.SideLong, strike, premium, 1)
}

func shortCall(strike, premium float64) models.StrategyLeg {
	return leg(models.OptionCall, models.SideShort, strike, premium, 1)
}

func longPut(strike, premium float64) models.StrategyLeg {
	return leg(models.OptionPut, models.SideLong, strike, premium, 1)
}

func bullCallSpread() []models.StrategyLeg {
	return []models.StrategyLeg{longCall(100, 5), shortCall(110, 2)}
}

func straddle() []models.StrategyLeg {
	return []models.StrategyLeg{longCall(100, 5), longPut(100, 4)}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
