package options

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"options-strategizer/internal/models"
)

// probeAboveFactor is how far above a lone breakeven the payoff is sampled
// to find which side is profitable.
const probeAboveFactor = 1.01

// Breakevens scans a wide grid around spot and returns every sign change of
// the expiration payoff, located by linear interpolation, in ascending order.
// A curve that never crosses zero yields an empty slice.
func (e *Engine) Breakevens(legs []models.StrategyLeg, spot float64) []float64 {
	grid := SpotRange(spot, e.settings.BreakevenRangePercent, e.settings.BreakevenSteps)
	payoff := e.PayoffAtExpiration(legs, grid)
	return zeroCrossings(grid, payoff)
}

// zeroCrossings walks adjacent (x, y) pairs and interpolates each strict
// sign change. xs must be ascending.
func zeroCrossings(xs, ys []float64) []float64 {
	out := []float64{}
	for i := 1; i < len(xs); i++ {
		x1, y1 := xs[i-1], ys[i-1]
		x2, y2 := xs[i], ys[i]
		if (y1 > 0 && y2 < 0) || (y1 < 0 && y2 > 0) {
			out = append(out, x1+(0-y1)*(x2-x1)/(y2-y1))
		}
	}
	return out
}

// probBelow is P(S_T < k) for a lognormal terminal price with risk-neutral
// drift. It is 1 - N(d2(k)).
func probBelow(spot, k, r, sigma, t float64) float64 {
	return 1 - NormalCDF(d2(spot, k, r, sigma, t))
}

func d2(spot, k, r, sigma, t float64) float64 {
	return (math.Log(spot/k) + (r-0.5*sigma*sigma)*t) / (sigma * math.Sqrt(t))
}

// ProbabilityOfProfit estimates the chance the strategy expires profitable,
// using a single strategy-wide volatility iv. Only the outermost two
// breakevens bound the profit region; interior crossings are ignored.
func (e *Engine) ProbabilityOfProfit(legs []models.StrategyLeg, market models.MarketContext, iv float64) float64 {
	if len(legs) == 0 {
		return 0
	}
	if !(iv > 0) {
		iv = e.settings.MetricsDefaultIV
	}
	spot := market.CurrentSpot
	r := market.RiskFreeRate
	t := market.TimeToExpiry(e.settings.MinTimeToExpiry)

	bes := e.Breakevens(legs, spot)
	switch {
	case len(bes) == 0:
		if e.StrategyPayoff(legs, spot) > 0 {
			return 1
		}
		return 0

	case len(bes) == 1:
		be := bes[0]
		above := e.StrategyPayoff(legs, be*probeAboveFactor)
		switch {
		case above > 0:
			return 1 - probBelow(spot, be, r, iv, t)
		case above < 0:
			return probBelow(spot, be, r, iv, t)
		}

	default:
		lower, upper := bes[0], bes[len(bes)-1]
		inside := probBelow(spot, upper, r, iv, t) - probBelow(spot, lower, r, iv, t)
		mid := e.StrategyPayoff(legs, (lower+upper)/2)
		if mid > 0 {
			return inside
		}
		return 1 - inside
	}

	return 0.5
}

// ProbabilityOfProfitPartitioned splits the price axis at every breakeven
// and sums the probability of each interval whose midpoint is profitable.
// Unlike ProbabilityOfProfit it resolves interior breakevens.
func (e *Engine) ProbabilityOfProfitPartitioned(legs []models.StrategyLeg, market models.MarketContext, iv float64) float64 {
	if len(legs) == 0 {
		return 0
	}
	if !(iv > 0) {
		iv = e.settings.MetricsDefaultIV
	}
	spot := market.CurrentSpot
	r := market.RiskFreeRate
	t := market.TimeToExpiry(e.settings.MinTimeToExpiry)

	bes := e.Breakevens(legs, spot)
	if len(bes) == 0 {
		if e.StrategyPayoff(legs, spot) > 0 {
			return 1
		}
		return 0
	}
	sort.Float64s(bes)

	// Intervals run 0, be1, ..., beN, +inf.
	bounds := make([]float64, 0, len(bes)+2)
	bounds = append(bounds, 0)
	bounds = append(bounds, bes...)
	bounds = append(bounds, math.Inf(1))

	total := 0.0
	for i := 1; i < len(bounds); i++ {
		lo, hi := bounds[i-1], bounds[i]
		var probe float64
		switch {
		case i == 1:
			probe = hi / 2
		case math.IsInf(hi, 1):
			probe = lo * probeAboveFactor
		default:
			probe = (lo + hi) / 2
		}
		if e.StrategyPayoff(legs, probe) <= 0 {
			continue
		}
		pLo := 0.0
		if lo > 0 {
			pLo = probBelow(spot, lo, r, iv, t)
		}
		pHi := 1.0
		if !math.IsInf(hi, 1) {
			pHi = probBelow(spot, hi, r, iv, t)
		}
		total += pHi - pLo
	}
	return total
}

// AverageIV is the mean leg volatility, substituting MetricsDefaultIV for
// legs that carry none. Empty strategies yield MetricsDefaultIV.
func (e *Engine) AverageIV(legs []models.StrategyLeg) float64 {
	if len(legs) == 0 {
		return e.settings.MetricsDefaultIV
	}
	ivs := make([]float64, len(legs))
	for i, leg := range legs {
		ivs[i] = leg.IV(e.settings.MetricsDefaultIV)
	}
	return stat.Mean(ivs, nil)
}
