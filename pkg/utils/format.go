// Package utils provides shared formatting helpers.
package utils

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every money figure.
const CurrencySymbol = "$"

// Round rounds v half away from zero to places decimals using exact
// decimal arithmetic, so 2.675 becomes 2.68 rather than 2.67.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatNumber renders v with places decimals and comma thousands
// separators, e.g. 1234567.891 -> "1,234,567.89".
func FormatNumber(v float64, places int32) string {
	if math.IsNaN(v) {
		return "NaN"
	}
	if math.IsInf(v, 1) {
		return "+Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}

	d := decimal.NewFromFloat(v).Round(places)
	s := d.Abs().StringFixed(places)
	intPart, fracPart := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i:]
	}

	out := groupThousands(intPart) + fracPart
	if d.Sign() < 0 {
		return "-" + out
	}
	return out
}

func groupThousands(s string) string {
	n := len(s)
	if n <= 3 {
		return s
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatMoney formats an amount as currency with two decimals,
// e.g. -1234.5 -> "-$1,234.50".
func FormatMoney(amount float64) string {
	s := FormatNumber(amount, 2)
	if strings.HasPrefix(s, "-") {
		return "-" + CurrencySymbol + s[1:]
	}
	return CurrencySymbol + s
}

// FormatPnL formats a profit or loss with an explicit sign for gains.
func FormatPnL(pnl float64) string {
	s := FormatMoney(pnl)
	if decimal.NewFromFloat(pnl).Round(2).Sign() > 0 {
		return "+" + s
	}
	return s
}

// FormatPercent formats a percentage with sign, e.g. 12.5 -> "+12.50%".
func FormatPercent(value float64) string {
	s := FormatNumber(value, 2) + "%"
	if Round(value, 2) > 0 {
		return "+" + s
	}
	return s
}

// FormatProbability renders a probability in [0, 1] as a percentage.
func FormatProbability(p float64) string {
	return FormatNumber(p*100, 1) + "%"
}
