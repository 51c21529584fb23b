// Package cli provides the command-line interface for the strategy analyzer.
package cli

import (
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-strategizer/internal/analysis/options"
	"options-strategizer/internal/config"
	"options-strategizer/internal/logging"
	"options-strategizer/internal/performance"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2026-10-14"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Engine *options.Engine
	Pool   *performance.WorkerPool
}

// NewRootCmd creates the root command for the CLI. Configuration is loaded
// once flags are parsed, so --config applies to every subcommand.
func NewRootCmd(logger zerolog.Logger) *cobra.Command {
	app := &App{Logger: logger}

	rootCmd := &cobra.Command{
		Use:   "strategizer",
		Short: "Options Strategizer - multi-leg options strategy analytics",
		Long: `Options Strategizer prices European options with Black-Scholes and analyzes
multi-leg strategies: expiration payoff, breakevens, probability of profit,
sensitivity tables and aggregate metrics.

Strategies are read from TOML, YAML or JSON files, or built interactively
with 'strategizer session'. Option chains can be loaded from CSV or JSON
snapshots to build legs and to compute dealer exposure.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			app.close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-strategizer)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addAnalysisCommands(rootCmd, app)
	addChainCommands(rootCmd, app)
	addSessionCommands(rootCmd, app)
	addHelpCommands(rootCmd)

	return rootCmd
}

// init loads configuration and builds the logger, engine and worker pool.
func (a *App) init(cmd *cobra.Command) error {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(dir)
	if err != nil {
		return err
	}
	a.Config = cfg

	if !cfg.UI.ColorEnabled {
		color.NoColor = true
	}

	logCfg := cfg.LogSettings()
	logCfg.Output = cmd.ErrOrStderr()
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logCfg.Level = "debug"
	}
	a.Logger = logging.NewLoggerWithConfig(logCfg)

	var opts []options.EngineOption
	if cfg.Performance.Workers >= 0 {
		a.Pool = performance.NewWorkerPool(cfg.Performance.Workers)
		a.Pool.Start()
		opts = append(opts, options.WithExecutor(a.Pool))
	}
	a.Engine = options.NewEngine(cfg.EngineSettings(), opts...)

	workers := 0
	if a.Pool != nil {
		workers = a.Pool.Workers()
	}
	a.Logger.Debug().
		Str("config", cfg.Path()).
		Int("workers", workers).
		Msg("Strategizer initialized")
	return nil
}

func (a *App) close() {
	if a.Pool == nil {
		return
	}
	a.Pool.Stop()
	stats := a.Pool.Stats()
	a.Logger.Debug().
		Uint64("tasks_total", stats.TasksTotal).
		Uint64("tasks_done", stats.TasksDone).
		Msg("Worker pool stopped")
	a.Pool = nil
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			}
			output.Printf("Options Strategizer v%s\n", Version)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.Config.Path()})
			}
			output.Println(app.Config.Path())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "example [path]",
		Short: "Write an example strategy file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "strategy.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := config.WriteStrategyTemplate(path); err != nil {
				return err
			}
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Success("✓ Wrote %s", path)
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Engine")
	output.Printf("  Risk-free rate:     %s\n", FormatRatio(cfg.Engine.RiskFreeRate))
	output.Printf("  Default IV:         %s\n", FormatRatio(cfg.Engine.DefaultIV))
	output.Printf("  Metrics default IV: %s\n", FormatRatio(cfg.Engine.MetricsDefaultIV))
	output.Printf("  Multiplier:         %.0f\n", cfg.Engine.ContractMultiplier)
	output.Printf("  Near breakeven:     %s\n", FormatRatio(cfg.Engine.NearBreakevenThreshold))
	output.Println()

	output.Bold("Grids")
	output.Printf("  Metrics:     ±%.1f%% x %d\n", cfg.Grid.MetricsRangePercent, cfg.Grid.MetricsSteps)
	output.Printf("  Breakeven:   ±%.1f%% x %d\n", cfg.Grid.BreakevenRangePercent, cfg.Grid.BreakevenSteps)
	output.Printf("  Sensitivity: ±%.1f%% x %d\n", cfg.Grid.SensitivityRangePercent, cfg.Grid.SensitivitySteps)
	output.Println()

	output.Bold("Market fallbacks")
	output.Printf("  Ticker:         %s\n", cfg.Market.Ticker)
	output.Printf("  Spot:           %s\n", FormatPrice(cfg.Market.Spot))
	output.Printf("  Days to expiry: %d\n", cfg.Market.DaysToExpiry)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:   %s\n", cfg.Log.Level)
	output.Printf("  Console: %v\n", cfg.Log.Console)
	output.Printf("  File:    %v\n", cfg.Log.File)
	output.Println()

	output.Bold("Performance")
	output.Printf("  Workers: %d\n", cfg.Performance.Workers)
}
