package models

// StrategyLeg represents one option position within a strategy.
// Strike, side, type and premium are fixed once created; only quantity changes.
type StrategyLeg struct {
	ID                int64        `json:"id,omitempty"`
	Type              OptionType   `json:"option_type"`
	Side              PositionSide `json:"side"`
	Strike            float64      `json:"strike"`
	Premium           float64      `json:"premium"`
	Quantity          int          `json:"quantity"`
	ImpliedVolatility *float64     `json:"implied_volatility,omitempty"`
	Delta             *float64     `json:"delta,omitempty"`
	Gamma             *float64     `json:"gamma,omitempty"`
	Theta             *float64     `json:"theta,omitempty"`
	Vega              *float64     `json:"vega,omitempty"`
}

// IV returns the leg's implied volatility or fallback when absent.
func (l StrategyLeg) IV(fallback float64) float64 {
	if l.ImpliedVolatility == nil || *l.ImpliedVolatility <= 0 {
		return fallback
	}
	return *l.ImpliedVolatility
}

// Clone returns a deep copy of the leg.
func (l StrategyLeg) Clone() StrategyLeg {
	c := l
	c.ImpliedVolatility = clonePtr(l.ImpliedVolatility)
	c.Delta = clonePtr(l.Delta)
	c.Gamma = clonePtr(l.Gamma)
	c.Theta = clonePtr(l.Theta)
	c.Vega = clonePtr(l.Vega)
	return c
}

// CloneLegs returns a deep copy of legs. A nil input yields an empty slice.
func CloneLegs(legs []StrategyLeg) []StrategyLeg {
	out := make([]StrategyLeg, len(legs))
	for i, l := range legs {
		out[i] = l.Clone()
	}
	return out
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v, for populating optional leg fields.
func Float(v float64) *float64 {
	return &v
}

// GreeksResult is the output of the pricing calculator.
type GreeksResult struct {
	Price float64 `json:"price"`
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

// SensitivityScenario is one row of the sensitivity surface.
type SensitivityScenario struct {
	SpotPrice         float64 `json:"spot_price"`
	SpotChangePercent float64 `json:"spot_change_percent"`
	PnLNow            float64 `json:"pnl_now"`
	PnLHalfLife       float64 `json:"pnl_half_life"`
	PnLExpiration     float64 `json:"pnl_expiration"`
	IsCurrentPrice    bool    `json:"is_current_price"`
	IsNearBreakeven   bool    `json:"is_near_breakeven"`
}

// PayoffBounds classifies whether a strategy's expiration payoff is
// unbounded as the underlying rises. The payoff is always finite at zero.
type PayoffBounds struct {
	UnlimitedProfit bool    `json:"unlimited_profit"`
	UnlimitedLoss   bool    `json:"unlimited_loss"`
	UpsideSlope     float64 `json:"upside_slope"`
	DownsideSlope   float64 `json:"downside_slope"`
}

// StrategyMetrics is the aggregate summary of a leg list.
// Max profit and loss are taken over the sampled spot window only.
type StrategyMetrics struct {
	NetCost             float64      `json:"net_cost"`
	MaxProfitInRange    float64      `json:"max_profit_in_range"`
	MaxLossInRange      float64      `json:"max_loss_in_range"`
	Breakevens          []float64    `json:"breakevens"`
	ProbabilityOfProfit float64      `json:"probability_of_profit"`
	NetDelta            float64      `json:"net_delta"`
	NetGamma            float64      `json:"net_gamma"`
	NetTheta            float64      `json:"net_theta"`
	NetVega             float64      `json:"net_vega"`
	CapitalAtRisk       float64      `json:"capital_at_risk"`
	ReturnOnRisk        float64      `json:"return_on_risk"`
	RiskRewardRatio     float64      `json:"risk_reward_ratio"`
	Bounds              PayoffBounds `json:"bounds"`
}

// OptionChain is a market snapshot for one underlying and expiry.
type OptionChain struct {
	Ticker       string         `json:"ticker"`
	SpotPrice    float64        `json:"spot_price"`
	DaysToExpiry int            `json:"days_to_expiry"`
	Strikes      []OptionStrike `json:"strikes"`
}

// OptionStrike holds both sides of one strike in the chain.
type OptionStrike struct {
	Strike float64      `json:"strike"`
	Call   *OptionQuote `json:"call,omitempty"`
	Put    *OptionQuote `json:"put,omitempty"`
}

// Quote returns the quote for the given side of the strike, or nil.
func (s OptionStrike) Quote(t OptionType) *OptionQuote {
	if t.IsCall() {
		return s.Call
	}
	return s.Put
}

// OptionQuote represents market data for a single contract.
type OptionQuote struct {
	Bid          float64      `json:"bid"`
	Ask          float64      `json:"ask"`
	Last         float64      `json:"last"`
	Volume       int64        `json:"volume"`
	OpenInterest int64        `json:"open_interest"`
	IV           float64      `json:"iv,omitempty"`
	Greeks       OptionGreeks `json:"greeks"`
}

// OptionGreeks represents option Greeks as supplied by the market data feed.
type OptionGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Vanna float64 `json:"vanna,omitempty"`
	Charm float64 `json:"charm,omitempty"`
}

// Moneyness buckets a strike relative to spot.
type Moneyness string

const (
	ITM Moneyness = "ITM"
	ATM Moneyness = "ATM"
	OTM Moneyness = "OTM"
)

// GammaRegime describes the dealer hedging regime implied by spot vs the flip point.
type GammaRegime string

const (
	RegimePositive GammaRegime = "POSITIVE"
	RegimeNegative GammaRegime = "NEGATIVE"
	RegimeNeutral  GammaRegime = "NEUTRAL"
)

// StrikeExposure holds dealer exposure figures for one strike.
type StrikeExposure struct {
	Strike    float64   `json:"strike"`
	CallGEX   float64   `json:"call_gex"`
	PutGEX    float64   `json:"put_gex"`
	TotalGEX  float64   `json:"total_gex"`
	CallOI    int64     `json:"call_oi"`
	PutOI     int64     `json:"put_oi"`
	CallGamma float64   `json:"call_gamma"`
	PutGamma  float64   `json:"put_gamma"`
	VEX       float64   `json:"vex"`
	CEX       float64   `json:"cex"`
	Moneyness Moneyness `json:"moneyness"`
}

// ExposureProfile is the chain-wide gamma/vanna/charm exposure summary.
type ExposureProfile struct {
	SpotPrice    float64          `json:"spot_price"`
	FlipPoint    *float64         `json:"flip_point,omitempty"`
	TotalCallGEX float64          `json:"total_call_gex"`
	TotalPutGEX  float64          `json:"total_put_gex"`
	NetGEX       float64          `json:"net_gex"`
	TotalVEX     float64          `json:"total_vex"`
	TotalCEX     float64          `json:"total_cex"`
	LocalGEX     float64          `json:"local_gex"`
	MaxPain      *float64         `json:"max_pain,omitempty"`
	Regime       GammaRegime      `json:"regime"`
	Strikes      []StrikeExposure `json:"strikes"`

	// InvalidQuotes counts quotes whose Greeks failed validation and were
	// left out of the exposure sums. Their open interest still counts.
	InvalidQuotes int `json:"invalid_quotes,omitempty"`
}

// SmilePoint is one implied volatility observation on the chain.
type SmilePoint struct {
	Strike float64    `json:"strike"`
	IV     float64    `json:"iv"`
	Type   OptionType `json:"option_type"`
}
