package cli

import (
	"fmt"
	"strings"

	"options-strategizer/internal/models"
	"options-strategizer/pkg/utils"
)

// FormatPrice formats an underlying or strike price.
func FormatPrice(v float64) string {
	return utils.FormatNumber(v, 2)
}

// FormatGreek formats a Greek with four decimals.
func FormatGreek(v float64) string {
	return utils.FormatNumber(v, 4)
}

// FormatOptional formats an optional leg field, "-" when absent.
func FormatOptional(v *float64, places int32) string {
	if v == nil {
		return "-"
	}
	return utils.FormatNumber(*v, places)
}

// FormatIV formats an optional implied volatility as a percentage.
func FormatIV(iv *float64) string {
	if iv == nil || *iv <= 0 {
		return "-"
	}
	return utils.FormatNumber(*iv*100, 1) + "%"
}

// FormatLeg renders a leg on one line, e.g. "long 2x 100.00 call @ $5.00".
func FormatLeg(leg models.StrategyLeg) string {
	return fmt.Sprintf("%s %dx %s %s @ %s",
		leg.Side, leg.Quantity, FormatPrice(leg.Strike), leg.Type.Normalize(), utils.FormatMoney(leg.Premium))
}

// FormatBreakevens joins breakeven prices, or "none".
func FormatBreakevens(bes []float64) string {
	if len(bes) == 0 {
		return "none"
	}
	parts := make([]string, len(bes))
	for i, be := range bes {
		parts[i] = FormatPrice(be)
	}
	return strings.Join(parts, ", ")
}

// FormatBound renders a window-bounded extreme, flagged when the true
// payoff is unbounded in that direction.
func FormatBound(value float64, unlimited bool) string {
	s := utils.FormatMoney(value)
	if unlimited {
		return s + " (unlimited)"
	}
	return s
}

// FormatRatio formats a ratio with two decimals.
func FormatRatio(v float64) string {
	return utils.FormatNumber(v, 2)
}

// FormatMillions formats an exposure figure already scaled to millions.
func FormatMillions(v float64) string {
	return utils.FormatNumber(v, 3) + "M"
}

// FormatOptionalPrice formats an optional price, "n/a" when absent.
func FormatOptionalPrice(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatPrice(*v)
}
