// Package options implements the strategy analytics engine: Black-Scholes
// pricing and Greeks, expiration payoff curves, breakevens, probability of
// profit, sensitivity surfaces and aggregate strategy metrics.
//
// Every function is pure. Callers pass snapshots of their leg list and get
// fresh results with no references back into their state.
package options

// Settings is the single configuration surface of the engine.
type Settings struct {
	// RiskFreeRate seeds MarketContext values built by the engine.
	RiskFreeRate float64
	// DefaultIV is substituted for legs without IV when pricing the
	// sensitivity surface.
	DefaultIV float64
	// MetricsDefaultIV is substituted for legs without IV when averaging
	// the strategy-wide volatility for probability of profit.
	MetricsDefaultIV float64
	// Multiplier scales every money figure per contract.
	Multiplier float64
	// NearBreakevenThreshold flags sensitivity rows whose expiration P&L
	// is within this many currency units of zero.
	NearBreakevenThreshold float64
	// MinTimeToExpiry floors time to expiry in years.
	MinTimeToExpiry float64

	MetricsRangePercent     float64
	MetricsSteps            int
	BreakevenRangePercent   float64
	BreakevenSteps          int
	SensitivityRangePercent float64
	SensitivitySteps        int
}

// DefaultSettings returns the engine defaults.
func DefaultSettings() Settings {
	return Settings{
		RiskFreeRate:            0.26,
		DefaultIV:               0.40,
		MetricsDefaultIV:        0.50,
		Multiplier:              100,
		NearBreakevenThreshold:  50,
		MinTimeToExpiry:         0.001,
		MetricsRangePercent:     50,
		MetricsSteps:            100,
		BreakevenRangePercent:   100,
		BreakevenSteps:          400,
		SensitivityRangePercent: 20,
		SensitivitySteps:        21,
	}
}
