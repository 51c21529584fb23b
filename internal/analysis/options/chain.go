package options

import (
	"math"
	"sort"

	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

// maxPlausibleIV is the upper bound on a quoted volatility (500%).
const maxPlausibleIV = 5.0

// VolatilitySmile lists every positive call and put IV in the chain,
// ordered by strike. At a shared strike the call comes first.
func VolatilitySmile(chain models.OptionChain) []models.SmilePoint {
	points := []models.SmilePoint{}
	for _, s := range chain.Strikes {
		if q := s.Call; q != nil && q.IV > 0 && !math.IsInf(q.IV, 0) {
			points = append(points, models.SmilePoint{Strike: s.Strike, IV: q.IV, Type: models.OptionCall})
		}
		if q := s.Put; q != nil && q.IV > 0 && !math.IsInf(q.IV, 0) {
			points = append(points, models.SmilePoint{Strike: s.Strike, IV: q.IV, Type: models.OptionPut})
		}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].Strike < points[j].Strike })
	return points
}

// ValidateGreeks checks the feed-supplied volatility and Greeks of a quote
// for plausibility: 0 < IV < 5, gamma and vega not negative, call delta in
// [0, 1] and put delta in [-1, 0]. Zero values count as not supplied and
// are not checked.
func ValidateGreeks(q models.OptionQuote, t models.OptionType) error {
	var errs []error
	check := func(ok bool, field string, v float64, msg string) {
		if !ok {
			errs = append(errs, apperrors.NewValidationError(field, v, msg))
		}
	}

	g := q.Greeks
	if q.IV != 0 {
		check(q.IV > 0 && q.IV < maxPlausibleIV, "iv", q.IV, "must be in (0, 5)")
	}
	if g.Gamma != 0 {
		check(g.Gamma > 0, "gamma", g.Gamma, "must not be negative")
	}
	if g.Vega != 0 {
		check(g.Vega > 0, "vega", g.Vega, "must not be negative")
	}
	if g.Delta != 0 {
		if t.IsCall() {
			check(g.Delta > 0 && g.Delta <= 1, "delta", g.Delta, "call delta must be in [0, 1]")
		} else {
			check(g.Delta >= -1 && g.Delta < 0, "delta", g.Delta, "put delta must be in [-1, 0]")
		}
	}
	return apperrors.Join(errs...)
}
