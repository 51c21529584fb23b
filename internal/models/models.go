// Package models provides domain models for the options strategy engine.
package models

import (
	"fmt"
	"strings"

	apperrors "options-strategizer/internal/errors"
)

// ContractMultiplier is the number of underlying units per option contract.
const ContractMultiplier = 100

// OptionType represents the right carried by an option.
type OptionType string

const (
	OptionCall OptionType = "call"
	OptionPut  OptionType = "put"
)

// ParseOptionType normalises user or upstream input into an OptionType.
// "V"/"venta" is the put marker used by some upstream tickers.
func ParseOptionType(s string) (OptionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "call", "ce":
		return OptionCall, nil
	case "p", "put", "v", "venta", "pe":
		return OptionPut, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidOptionType, s)
}

// IsCall reports whether t denotes a call. Any value that does not parse as
// a call is priced as a put.
func (t OptionType) IsCall() bool {
	switch t {
	case OptionCall:
		return true
	case OptionPut:
		return false
	}
	parsed, err := ParseOptionType(string(t))
	return err == nil && parsed == OptionCall
}

// Normalize returns the canonical form of t.
func (t OptionType) Normalize() OptionType {
	if t.IsCall() {
		return OptionCall
	}
	return OptionPut
}

// PositionSide is long (holder) or short (writer).
type PositionSide string

const (
	SideLong  PositionSide = "long"
	SideShort PositionSide = "short"
)

// ParseSide normalises user input into a PositionSide.
func ParseSide(s string) (PositionSide, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "long", "buy", "b", "l":
		return SideLong, nil
	case "short", "sell", "s", "write":
		return SideShort, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidSide, s)
}

// IsLong reports whether s denotes a long position.
func (s PositionSide) IsLong() bool {
	switch s {
	case SideLong:
		return true
	case SideShort:
		return false
	}
	parsed, err := ParseSide(string(s))
	return err == nil && parsed == SideLong
}

// Normalize returns the canonical form of s.
func (s PositionSide) Normalize() PositionSide {
	if s.IsLong() {
		return SideLong
	}
	return SideShort
}

// Sign is +1 for long and -1 for short.
func (s PositionSide) Sign() float64 {
	if s.IsLong() {
		return 1
	}
	return -1
}

// MarketContext is the market state shared by all calculations of a session.
type MarketContext struct {
	Ticker       string  `json:"ticker,omitempty"`
	CurrentSpot  float64 `json:"current_spot"`
	DaysToExpiry int     `json:"days_to_expiry"`
	RiskFreeRate float64 `json:"risk_free_rate"`
}

// TimeToExpiry returns the time to expiry in years, floored at minYears.
func (m MarketContext) TimeToExpiry(minYears float64) float64 {
	t := float64(m.DaysToExpiry) / 365.0
	if t < minYears {
		return minYears
	}
	return t
}
