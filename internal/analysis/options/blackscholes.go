package options

import (
	"math"

	"options-strategizer/internal/models"
)

// Intrinsic returns the exercise value of an option at spot.
func Intrinsic(spot, strike float64, optType models.OptionType) float64 {
	if optType.IsCall() {
		return math.Max(0, spot-strike)
	}
	return math.Max(0, strike-spot)
}

// Price computes the European Black-Scholes price and Greeks.
//
// Theta is per calendar day, vega per one volatility point and rho per one
// rate point. With no time or no volatility left the option is worth its
// intrinsic value and every Greek is zero. Invalid inputs are not rejected;
// NaN propagates to the result.
func Price(spot, strike, timeToExpiry, riskFreeRate, volatility float64, optType models.OptionType) models.GreeksResult {
	if timeToExpiry <= 0 || volatility <= 0 {
		return models.GreeksResult{Price: Intrinsic(spot, strike, optType)}
	}

	sqrtT := math.Sqrt(timeToExpiry)
	volSqrtT := volatility * sqrtT
	d1 := (math.Log(spot/strike) + (riskFreeRate+0.5*volatility*volatility)*timeToExpiry) / volSqrtT
	d2 := d1 - volSqrtT

	discount := strike * math.Exp(-riskFreeRate*timeToExpiry)
	pdf := NormalPDF(d1)
	decay := -spot * pdf * volatility / (2 * sqrtT)

	res := models.GreeksResult{
		Gamma: pdf / (spot * volSqrtT),
		Vega:  spot * pdf * sqrtT / 100,
	}

	if optType.IsCall() {
		nd2 := NormalCDF(d2)
		res.Price = spot*NormalCDF(d1) - discount*nd2
		res.Delta = NormalCDF(d1)
		res.Theta = (decay - riskFreeRate*discount*nd2) / 365
		res.Rho = timeToExpiry * discount * nd2 / 100
	} else {
		nmd2 := NormalCDF(-d2)
		res.Price = discount*nmd2 - spot*NormalCDF(-d1)
		res.Delta = NormalCDF(d1) - 1
		res.Theta = (decay + riskFreeRate*discount*nmd2) / 365
		res.Rho = -timeToExpiry * discount * nmd2 / 100
	}

	return res
}
