package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/models"
)

// Strategy is a strategy file: a market snapshot and its legs.
type Strategy struct {
	Market models.MarketContext
	Legs   []models.StrategyLeg
}

type strategyFile struct {
	Market struct {
		Ticker       string   `mapstructure:"ticker"`
		Spot         float64  `mapstructure:"spot"`
		DaysToExpiry *int     `mapstructure:"days_to_expiry"`
		RiskFreeRate *float64 `mapstructure:"risk_free_rate"`
	} `mapstructure:"market"`
	Legs []legEntry `mapstructure:"legs"`
}

type legEntry struct {
	Type     string   `mapstructure:"type"`
	Side     string   `mapstructure:"side"`
	Strike   float64  `mapstructure:"strike"`
	Premium  float64  `mapstructure:"premium"`
	Quantity int      `mapstructure:"quantity"`
	IV       *float64 `mapstructure:"iv"`
	Delta    *float64 `mapstructure:"delta"`
	Gamma    *float64 `mapstructure:"gamma"`
	Theta    *float64 `mapstructure:"theta"`
	Vega     *float64 `mapstructure:"vega"`
}

var strategyFormats = map[string]bool{".toml": true, ".yaml": true, ".yml": true, ".json": true}

// LoadStrategy reads a TOML, YAML or JSON strategy file. Market fields the
// file omits come from the [market] and [engine] sections of c.
func (c *Config) LoadStrategy(path string) (*Strategy, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !strategyFormats[ext] {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnsupportedFormat, ext)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading strategy %s: %w", path, err)
	}

	var raw strategyFile
	if err := v.Unmarshal(&raw); err != nil {
		return nil, fmt.Errorf("decoding strategy %s: %w", path, err)
	}

	s := &Strategy{
		Market: models.MarketContext{
			Ticker:       strings.ToUpper(raw.Market.Ticker),
			CurrentSpot:  raw.Market.Spot,
			DaysToExpiry: c.Market.DaysToExpiry,
			RiskFreeRate: c.Engine.RiskFreeRate,
		},
		Legs: make([]models.StrategyLeg, 0, len(raw.Legs)),
	}
	if s.Market.Ticker == "" {
		s.Market.Ticker = strings.ToUpper(c.Market.Ticker)
	}
	if s.Market.CurrentSpot == 0 {
		s.Market.CurrentSpot = c.Market.Spot
	}
	if raw.Market.DaysToExpiry != nil {
		s.Market.DaysToExpiry = *raw.Market.DaysToExpiry
	}
	if raw.Market.RiskFreeRate != nil {
		s.Market.RiskFreeRate = *raw.Market.RiskFreeRate
	}

	for i, e := range raw.Legs {
		leg, err := e.toLeg()
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", path, apperrors.NewLegError(0, i, err))
		}
		s.Legs = append(s.Legs, leg)
	}
	return s, nil
}

func (e legEntry) toLeg() (models.StrategyLeg, error) {
	t, err := models.ParseOptionType(e.Type)
	if err != nil {
		return models.StrategyLeg{}, err
	}
	side, err := models.ParseSide(e.Side)
	if err != nil {
		return models.StrategyLeg{}, err
	}
	qty := e.Quantity
	if qty == 0 {
		qty = 1
	}
	return models.StrategyLeg{
		Type:              t,
		Side:              side,
		Strike:            e.Strike,
		Premium:           e.Premium,
		Quantity:          qty,
		ImpliedVolatility: e.IV,
		Delta:             e.Delta,
		Gamma:             e.Gamma,
		Theta:             e.Theta,
		Vega:              e.Vega,
	}, nil
}
