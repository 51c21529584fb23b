// Package config provides configuration management for the strategy analyzer.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"options-strategizer/internal/analysis/options"
	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/logging"
)

// FileName is the configuration file inside the config directory.
const FileName = "config.toml"

// Config holds all application configuration.
type Config struct {
	Engine      EngineConfig      `mapstructure:"engine" json:"engine"`
	Grid        GridConfig        `mapstructure:"grid" json:"grid"`
	Market      MarketConfig      `mapstructure:"market" json:"market"`
	Log         LogConfig         `mapstructure:"log" json:"log"`
	Performance PerformanceConfig `mapstructure:"performance" json:"performance"`
	UI          UIConfig          `mapstructure:"ui" json:"ui"`

	// Dir is the directory the configuration was loaded from.
	Dir string `mapstructure:"-" json:"-"`
}

// EngineConfig holds pricing and analytics parameters.
type EngineConfig struct {
	RiskFreeRate           float64 `mapstructure:"risk_free_rate" json:"risk_free_rate"`
	DefaultIV              float64 `mapstructure:"default_iv" json:"default_iv"`
	MetricsDefaultIV       float64 `mapstructure:"metrics_default_iv" json:"metrics_default_iv"`
	ContractMultiplier     float64 `mapstructure:"contract_multiplier" json:"contract_multiplier"`
	NearBreakevenThreshold float64 `mapstructure:"near_breakeven_threshold" json:"near_breakeven_threshold"`
}

// GridConfig holds the spot grids used by each analysis.
type GridConfig struct {
	MetricsRangePercent     float64 `mapstructure:"metrics_range_percent" json:"metrics_range_percent"`
	MetricsSteps            int     `mapstructure:"metrics_steps" json:"metrics_steps"`
	BreakevenRangePercent   float64 `mapstructure:"breakeven_range_percent" json:"breakeven_range_percent"`
	BreakevenSteps          int     `mapstructure:"breakeven_steps" json:"breakeven_steps"`
	SensitivityRangePercent float64 `mapstructure:"sensitivity_range_percent" json:"sensitivity_range_percent"`
	SensitivitySteps        int     `mapstructure:"sensitivity_steps" json:"sensitivity_steps"`
}

// MarketConfig holds fallbacks for strategy files without a market section.
type MarketConfig struct {
	Ticker       string  `mapstructure:"ticker" json:"ticker"`
	Spot         float64 `mapstructure:"spot" json:"spot"`
	DaysToExpiry int     `mapstructure:"days_to_expiry" json:"days_to_expiry"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	Console    bool   `mapstructure:"console" json:"console"`
	File       bool   `mapstructure:"file" json:"file"`
	FilePath   string `mapstructure:"file_path" json:"file_path"`
	MaxSize    int    `mapstructure:"max_size" json:"max_size"`
	MaxBackups int    `mapstructure:"max_backups" json:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" json:"max_age"`
}

// PerformanceConfig holds concurrency settings.
type PerformanceConfig struct {
	// Workers sizes the grid worker pool. 0 means runtime.NumCPU(); a
	// negative value disables the pool.
	Workers int `mapstructure:"workers" json:"workers"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled" json:"color_enabled"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/options-strategizer"
	}
	return filepath.Join(home, ".config", "options-strategizer")
}

// Default returns the built-in configuration.
func Default() *Config {
	s := options.DefaultSettings()
	l := logging.DefaultLogConfig()
	return &Config{
		Engine: EngineConfig{
			RiskFreeRate:           s.RiskFreeRate,
			DefaultIV:              s.DefaultIV,
			MetricsDefaultIV:       s.MetricsDefaultIV,
			ContractMultiplier:     s.Multiplier,
			NearBreakevenThreshold: s.NearBreakevenThreshold,
		},
		Grid: GridConfig{
			MetricsRangePercent:     s.MetricsRangePercent,
			MetricsSteps:            s.MetricsSteps,
			BreakevenRangePercent:   s.BreakevenRangePercent,
			BreakevenSteps:          s.BreakevenSteps,
			SensitivityRangePercent: s.SensitivityRangePercent,
			SensitivitySteps:        s.SensitivitySteps,
		},
		Market: MarketConfig{DaysToExpiry: 30},
		Log: LogConfig{
			Level:      l.Level,
			Console:    l.Console,
			File:       l.File,
			MaxSize:    l.MaxSize,
			MaxBackups: l.MaxBackups,
			MaxAge:     l.MaxAge,
		},
		UI: UIConfig{ColorEnabled: true},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory. A missing
// config.toml is replaced by a commented template and defaults are used.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()
	cfg.Dir = configDir

	if err := loadConfigFile(configDir, "config", cfg); err != nil {
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadConfigFile(configDir, name string, target *Config) error {
	v := viper.New()
	v.SetConfigName(name)
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v, target)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found, create template. Defaults stand.
			return createTemplateConfig(configDir, name)
		}
		return err
	}

	return v.Unmarshal(target)
}

// setDefaults registers every key so that partial files keep the
// defaults of the keys they omit.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("engine.risk_free_rate", d.Engine.RiskFreeRate)
	v.SetDefault("engine.default_iv", d.Engine.DefaultIV)
	v.SetDefault("engine.metrics_default_iv", d.Engine.MetricsDefaultIV)
	v.SetDefault("engine.contract_multiplier", d.Engine.ContractMultiplier)
	v.SetDefault("engine.near_breakeven_threshold", d.Engine.NearBreakevenThreshold)

	v.SetDefault("grid.metrics_range_percent", d.Grid.MetricsRangePercent)
	v.SetDefault("grid.metrics_steps", d.Grid.MetricsSteps)
	v.SetDefault("grid.breakeven_range_percent", d.Grid.BreakevenRangePercent)
	v.SetDefault("grid.breakeven_steps", d.Grid.BreakevenSteps)
	v.SetDefault("grid.sensitivity_range_percent", d.Grid.SensitivityRangePercent)
	v.SetDefault("grid.sensitivity_steps", d.Grid.SensitivitySteps)

	v.SetDefault("market.ticker", d.Market.Ticker)
	v.SetDefault("market.spot", d.Market.Spot)
	v.SetDefault("market.days_to_expiry", d.Market.DaysToExpiry)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.console", d.Log.Console)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.file_path", d.Log.FilePath)
	v.SetDefault("log.max_size", d.Log.MaxSize)
	v.SetDefault("log.max_backups", d.Log.MaxBackups)
	v.SetDefault("log.max_age", d.Log.MaxAge)

	v.SetDefault("performance.workers", d.Performance.Workers)
	v.SetDefault("ui.color_enabled", d.UI.ColorEnabled)
}

func applyEnvOverrides(cfg *Config) error {
	floats := []struct {
		name   string
		target *float64
	}{
		{"STRATEGIZER_RISK_FREE_RATE", &cfg.Engine.RiskFreeRate},
		{"STRATEGIZER_DEFAULT_IV", &cfg.Engine.DefaultIV},
	}
	for _, f := range floats {
		raw := os.Getenv(f.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return fmt.Errorf("%w: %s=%q is not a number", apperrors.ErrConfigInvalid, f.name, raw)
		}
		*f.target = v
	}

	if v := os.Getenv("STRATEGIZER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("NO_COLOR"); v != "" {
		cfg.UI.ColorEnabled = false
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, field string, value interface{}, msg string) {
		if !ok {
			errs = append(errs, apperrors.NewValidationError(field, value, msg))
		}
	}

	e := c.Engine
	check(!math.IsNaN(e.RiskFreeRate) && !math.IsInf(e.RiskFreeRate, 0), "engine.risk_free_rate", e.RiskFreeRate, "must be finite")
	check(e.DefaultIV > 0, "engine.default_iv", e.DefaultIV, "must be positive")
	check(e.MetricsDefaultIV > 0, "engine.metrics_default_iv", e.MetricsDefaultIV, "must be positive")
	check(e.ContractMultiplier > 0, "engine.contract_multiplier", e.ContractMultiplier, "must be positive")
	check(e.NearBreakevenThreshold > 0, "engine.near_breakeven_threshold", e.NearBreakevenThreshold, "must be positive")

	g := c.Grid
	check(ValidRange(g.MetricsRangePercent), "grid.metrics_range_percent", g.MetricsRangePercent, "must be in (0, 100]")
	check(ValidRange(g.BreakevenRangePercent), "grid.breakeven_range_percent", g.BreakevenRangePercent, "must be in (0, 100]")
	check(ValidRange(g.SensitivityRangePercent), "grid.sensitivity_range_percent", g.SensitivityRangePercent, "must be in (0, 100]")
	check(g.MetricsSteps >= 2, "grid.metrics_steps", g.MetricsSteps, "must be at least 2")
	check(g.BreakevenSteps >= 2, "grid.breakeven_steps", g.BreakevenSteps, "must be at least 2")
	check(g.SensitivitySteps >= 2, "grid.sensitivity_steps", g.SensitivitySteps, "must be at least 2")

	check(c.Market.Spot >= 0, "market.spot", c.Market.Spot, "must not be negative")
	check(c.Market.DaysToExpiry >= 0, "market.days_to_expiry", c.Market.DaysToExpiry, "must not be negative")

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", apperrors.ErrConfigInvalid, apperrors.Join(errs...))
}

// ValidRange reports whether a grid half-width percentage is in (0, 100].
// Wider windows would put negative spots on the grid.
func ValidRange(pct float64) bool {
	return pct > 0 && pct <= 100
}

// Path returns the configuration file path.
func (c *Config) Path() string {
	return filepath.Join(c.Dir, FileName)
}

// EngineSettings maps the configuration onto the engine's settings.
func (c *Config) EngineSettings() options.Settings {
	s := options.DefaultSettings()
	s.RiskFreeRate = c.Engine.RiskFreeRate
	s.DefaultIV = c.Engine.DefaultIV
	s.MetricsDefaultIV = c.Engine.MetricsDefaultIV
	s.Multiplier = c.Engine.ContractMultiplier
	s.NearBreakevenThreshold = c.Engine.NearBreakevenThreshold
	s.MetricsRangePercent = c.Grid.MetricsRangePercent
	s.MetricsSteps = c.Grid.MetricsSteps
	s.BreakevenRangePercent = c.Grid.BreakevenRangePercent
	s.BreakevenSteps = c.Grid.BreakevenSteps
	s.SensitivityRangePercent = c.Grid.SensitivityRangePercent
	s.SensitivitySteps = c.Grid.SensitivitySteps
	return s
}

// LogSettings maps the [log] section onto the logger configuration.
func (c *Config) LogSettings() logging.LogConfig {
	path := c.Log.FilePath
	if path == "" {
		path = filepath.Join(c.Dir, "logs", "strategizer.log")
	}
	return logging.LogConfig{
		Level:      c.Log.Level,
		Console:    c.Log.Console,
		File:       c.Log.File,
		FilePath:   path,
		MaxSize:    c.Log.MaxSize,
		MaxBackups: c.Log.MaxBackups,
		MaxAge:     c.Log.MaxAge,
		NoColor:    !c.UI.ColorEnabled,
	}
}
