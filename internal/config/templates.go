package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# Options Strategizer Configuration

[engine]
# Annual risk-free rate used for pricing (0.26 = 26%)
risk_free_rate = 0.26
# IV assumed by the sensitivity table for legs without one
default_iv = 0.40
# IV assumed by probability of profit for legs without one
metrics_default_iv = 0.50
# Underlying units per contract
contract_multiplier = 100
# Sensitivity rows within this many currency units of zero P&L are flagged
near_breakeven_threshold = 50.0

[grid]
# Spot window and resolution for max profit / max loss
metrics_range_percent = 50.0
metrics_steps = 100
# Breakeven search window and resolution
breakeven_range_percent = 100.0
breakeven_steps = 400
# Sensitivity table window and rows
sensitivity_range_percent = 20.0
sensitivity_steps = 21

[market]
# Fallbacks for strategy files without a [market] section
ticker = ""
spot = 0.0
days_to_expiry = 30

[log]
# debug, info, warn, error
level = "warn"
console = true
file = false
# Defaults to logs/strategizer.log in the config directory
# file_path = "/var/log/strategizer.log"
# Rotation: megabytes per file, files kept, days kept
max_size = 20
max_backups = 5
max_age = 30

[performance]
# Grid worker pool size. 0 = number of CPUs, -1 = evaluate sequentially
workers = 0

[ui]
# Enable colored output
color_enabled = true
`

const strategyTemplate = `# Example strategy: bull call spread

[market]
ticker = "GGAL"
spot = 100
days_to_expiry = 30
# risk_free_rate = 0.26

[[legs]]
type = "call"
side = "long"
strike = 100
premium = 5
quantity = 1
iv = 0.40

[[legs]]
type = "call"
side = "short"
strike = 110
premium = 2
quantity = 1
iv = 0.38
`

func createTemplateConfig(configDir, name string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, name+".toml")
	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}

// WriteStrategyTemplate writes an example strategy file to path. An existing
// file is left untouched.
func WriteStrategyTemplate(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating strategy directory: %w", err)
	}
	return os.WriteFile(path, []byte(strategyTemplate), 0644)
}
