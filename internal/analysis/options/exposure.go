package options

import (
	"math"
	"sort"

	"options-strategizer/internal/models"
)

// Exposure scaling: GEX and VEX in millions, CEX in thousands.
const (
	gexScale = 1_000_000
	vexScale = 1_000_000
	cexScale = 1_000

	localGEXBand = 0.05
)

// SingleGEX is gamma * OI * multiplier * S^2 * 1%, signed +1 for calls and
// -1 for puts (dealers assumed short both), in millions.
func (e *Engine) SingleGEX(gamma float64, openInterest int64, spot float64, isCall bool) float64 {
	if gamma == 0 || openInterest == 0 {
		return 0
	}
	return gamma * float64(openInterest) * e.settings.Multiplier * spot * spot * 0.01 * direction(isCall) / gexScale
}

// SingleVEX is the delta change per 1% IV move, in millions.
func (e *Engine) SingleVEX(vanna float64, openInterest int64, spot float64, isCall bool) float64 {
	if vanna == 0 || openInterest == 0 {
		return 0
	}
	return vanna * float64(openInterest) * e.settings.Multiplier * spot * 0.01 * direction(isCall) / vexScale
}

// SingleCEX is the daily delta decay, in thousands.
func (e *Engine) SingleCEX(charm float64, openInterest int64, spot float64, isCall bool) float64 {
	if charm == 0 || openInterest == 0 {
		return 0
	}
	return charm * float64(openInterest) * e.settings.Multiplier * spot / 365 * direction(isCall) / cexScale
}

func direction(isCall bool) float64 {
	if isCall {
		return 1
	}
	return -1
}

// ClassifyMoneyness buckets strike/spot: below 0.95 ITM, above 1.05 OTM.
func ClassifyMoneyness(strike, spot float64) models.Moneyness {
	ratio := strike / spot
	switch {
	case ratio < 0.95:
		return models.ITM
	case ratio > 1.05:
		return models.OTM
	}
	return models.ATM
}

// ExposureProfile computes per-strike dealer exposure, the gamma flip point
// and max pain for a chain snapshot. Quotes failing ValidateGreeks add
// open interest but no exposure.
func (e *Engine) ExposureProfile(chain models.OptionChain) models.ExposureProfile {
	spot := chain.SpotPrice
	byStrike := make(map[float64]*models.StrikeExposure)
	invalid := 0

	for _, s := range chain.Strikes {
		if !(s.Strike > 0) {
			continue
		}
		ex, ok := byStrike[s.Strike]
		if !ok {
			ex = &models.StrikeExposure{Strike: s.Strike}
			byStrike[s.Strike] = ex
		}
		if q := s.Call; q != nil {
			ex.CallOI = q.OpenInterest
			if ValidateGreeks(*q, models.OptionCall) != nil {
				invalid++
			} else {
				ex.CallGamma = q.Greeks.Gamma
				ex.CallGEX = e.SingleGEX(q.Greeks.Gamma, q.OpenInterest, spot, true)
				ex.VEX += e.SingleVEX(q.Greeks.Vanna, q.OpenInterest, spot, true)
				ex.CEX += e.SingleCEX(q.Greeks.Charm, q.OpenInterest, spot, true)
			}
		}
		if q := s.Put; q != nil {
			ex.PutOI = q.OpenInterest
			if ValidateGreeks(*q, models.OptionPut) != nil {
				invalid++
			} else {
				ex.PutGamma = q.Greeks.Gamma
				ex.PutGEX = e.SingleGEX(q.Greeks.Gamma, q.OpenInterest, spot, false)
				ex.VEX += e.SingleVEX(q.Greeks.Vanna, q.OpenInterest, spot, false)
				ex.CEX += e.SingleCEX(q.Greeks.Charm, q.OpenInterest, spot, false)
			}
		}
	}

	strikes := make([]models.StrikeExposure, 0, len(byStrike))
	for _, ex := range byStrike {
		ex.TotalGEX = ex.CallGEX + ex.PutGEX
		ex.Moneyness = ClassifyMoneyness(ex.Strike, spot)
		strikes = append(strikes, *ex)
	}
	sort.Slice(strikes, func(i, j int) bool { return strikes[i].Strike < strikes[j].Strike })

	p := models.ExposureProfile{
		SpotPrice:     spot,
		Strikes:       strikes,
		Regime:        models.RegimeNeutral,
		InvalidQuotes: invalid,
	}
	for _, s := range strikes {
		p.TotalCallGEX += s.CallGEX
		p.TotalPutGEX += s.PutGEX
		p.TotalVEX += s.VEX
		p.TotalCEX += s.CEX
		if s.Strike >= spot*(1-localGEXBand) && s.Strike <= spot*(1+localGEXBand) {
			p.LocalGEX += s.TotalGEX
		}
	}
	p.NetGEX = p.TotalCallGEX + p.TotalPutGEX
	p.FlipPoint = flipPoint(strikes, spot)
	p.MaxPain = maxPain(strikes)

	if p.FlipPoint != nil {
		switch {
		case spot < *p.FlipPoint:
			p.Regime = models.RegimeNegative
		case spot > *p.FlipPoint:
			p.Regime = models.RegimePositive
		}
	}
	return p
}

// flipPoint finds where cumulative GEX changes sign, choosing the crossing
// nearest spot. Without a crossing it falls back to the strike with the
// smallest absolute cumulative GEX.
func flipPoint(strikes []models.StrikeExposure, spot float64) *float64 {
	if len(strikes) == 0 {
		return nil
	}

	var crossings []float64
	cum := 0.0
	for i, s := range strikes {
		prev := cum
		cum += s.TotalGEX
		if i == 0 || prev*cum >= 0 {
			continue
		}
		flip := s.Strike
		if math.Abs(cum-prev) > 0.0001 {
			prevStrike := strikes[i-1].Strike
			ratio := math.Abs(prev) / math.Abs(cum-prev)
			flip = prevStrike + ratio*(s.Strike-prevStrike)
		}
		crossings = append(crossings, flip)
	}

	if len(crossings) > 0 {
		best := crossings[0]
		for _, c := range crossings[1:] {
			if math.Abs(c-spot) < math.Abs(best-spot) {
				best = c
			}
		}
		return &best
	}

	best, bestAbs := strikes[0].Strike, math.Inf(1)
	cum = 0
	for _, s := range strikes {
		cum += s.TotalGEX
		if math.Abs(cum) < bestAbs {
			best, bestAbs = s.Strike, math.Abs(cum)
		}
	}
	return &best
}

// maxPain is the strike carrying the most total open interest.
func maxPain(strikes []models.StrikeExposure) *float64 {
	var best *float64
	var bestOI int64
	for _, s := range strikes {
		if oi := s.CallOI + s.PutOI; oi > bestOI {
			strike := s.Strike
			best, bestOI = &strike, oi
		}
	}
	return best
}
