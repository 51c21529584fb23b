package options

import "math"

// Abramowitz & Stegun 7.1.26 coefficients. |erf error| <= 1.5e-7.
const (
	erfP  = 0.3275911
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
)

var invSqrt2Pi = 1 / math.Sqrt(2*math.Pi)

// erf is evaluated on |x| and the sign restored. The polynomial sums to
// 1 - 1e-9 at zero, so zero is returned directly.
func erf(x float64) float64 {
	if x == 0 {
		return 0
	}
	sign := 1.0
	if x < 0 {
		sign = -1
		x = -x
	}
	t := 1 / (1 + erfP*x)
	poly := ((((erfA5*t+erfA4)*t+erfA3)*t+erfA2)*t + erfA1) * t
	return sign * (1 - poly*math.Exp(-x*x))
}

// NormalCDF returns the standard normal cumulative distribution at x.
// Negative arguments reflect through 1 - NormalCDF(-x), so the two sides
// of the distribution agree exactly.
func NormalCDF(x float64) float64 {
	switch {
	case math.IsInf(x, 1):
		return 1
	case math.IsInf(x, -1):
		return 0
	case x < 0:
		return 1 - NormalCDF(-x)
	}
	return 0.5 * (1 + erf(x/math.Sqrt2))
}

// NormalPDF returns the standard normal density at x.
func NormalPDF(x float64) float64 {
	if math.IsInf(x, 0) {
		return 0
	}
	return invSqrt2Pi * math.Exp(-0.5*x*x)
}
