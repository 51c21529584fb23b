package marketdata

import (
	"fmt"

	"options-strategizer/internal/analysis/options"
	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

// EntryPrice is the fill a new position would get: long positions lift the
// ask, short positions hit the bid. A zero side falls back to the last trade.
func EntryPrice(q models.OptionQuote, side models.PositionSide) float64 {
	price := q.Bid
	if side.IsLong() {
		price = q.Ask
	}
	if price <= 0 {
		price = q.Last
	}
	return price
}

// LegFromQuote builds a leg priced at the entry price of the selected
// contract. IV and any Greeks the feed supplied are copied onto the leg
// unless they fail options.ValidateGreeks, in which case none are copied
// and the model fills them in later.
func LegFromQuote(chain models.OptionChain, strike float64, t models.OptionType, side models.PositionSide, quantity int) (models.StrategyLeg, error) {
	if quantity <= 0 {
		return models.StrategyLeg{}, apperrors.NewValidationError("quantity", quantity, "must be positive")
	}

	s, ok := FindStrike(chain, strike)
	if !ok {
		return models.StrategyLeg{}, fmt.Errorf("%w: %s %.2f", apperrors.ErrStrikeNotFound, chain.Ticker, strike)
	}
	q := s.Quote(t)
	if q == nil {
		return models.StrategyLeg{}, fmt.Errorf("%w: %s %.2f %s", apperrors.ErrNoQuote, chain.Ticker, strike, t)
	}
	premium := EntryPrice(*q, side)
	if premium <= 0 {
		return models.StrategyLeg{}, fmt.Errorf("%w: %s %.2f %s has no bid, ask or last", apperrors.ErrNoQuote, chain.Ticker, strike, t)
	}

	leg := models.StrategyLeg{
		Type:     t,
		Side:     side,
		Strike:   s.Strike,
		Premium:  premium,
		Quantity: quantity,
	}
	if options.ValidateGreeks(*q, t) != nil {
		return leg, nil
	}
	if q.IV > 0 {
		leg.ImpliedVolatility = models.Float(q.IV)
	}
	leg.Delta = nonZero(q.Greeks.Delta)
	leg.Gamma = nonZero(q.Greeks.Gamma)
	leg.Theta = nonZero(q.Greeks.Theta)
	leg.Vega = nonZero(q.Greeks.Vega)
	return leg, nil
}

// nonZero treats a zero Greek as not supplied.
func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return models.Float(v)
}
