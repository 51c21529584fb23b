package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"options-strategizer/internal/analysis/options"
	"options-strategizer/internal/config"
	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/logging"
	"options-strategizer/internal/models"
	"options-strategizer/pkg/utils"
)

// addAnalysisCommands adds pricing and strategy analysis commands.
func addAnalysisCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newPriceCmd(app))
	rootCmd.AddCommand(newPayoffCmd(app))
	rootCmd.AddCommand(newBreakevensCmd(app))
	rootCmd.AddCommand(newPopCmd(app))
	rootCmd.AddCommand(newSensitivityCmd(app))
	rootCmd.AddCommand(newMetricsCmd(app))
}

func addStrategyFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "strategy file (TOML, YAML or JSON)")
	cmd.Flags().Float64("spot", 0, "override the strategy's spot price")
	cmd.Flags().Int("days", 0, "override the strategy's days to expiry")
	_ = cmd.MarkFlagRequired("file")
}

// loadStrategy reads the strategy named by --file and applies the market
// overrides. Degenerate input is logged but never blocks the computation.
func (a *App) loadStrategy(cmd *cobra.Command) (*config.Strategy, error) {
	path, _ := cmd.Flags().GetString("file")
	s, err := a.Config.LoadStrategy(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("spot") {
		s.Market.CurrentSpot, _ = cmd.Flags().GetFloat64("spot")
	}
	if cmd.Flags().Changed("days") {
		s.Market.DaysToExpiry, _ = cmd.Flags().GetInt("days")
	}
	a.warnDegenerate(s.Legs, s.Market)
	return s, nil
}

func (a *App) warnDegenerate(legs []models.StrategyLeg, market models.MarketContext) {
	if err := a.Engine.Validate(legs, market); err != nil {
		logger := logging.WithTicker(a.Logger, market.Ticker)
		for _, line := range strings.Split(err.Error(), "\n") {
			logger.Warn().Str("event", "degenerate_input").Msg(line)
		}
	}
}

// timed runs fn and logs it as a finished computation.
func (a *App) timed(op string, legs int, market models.MarketContext, fn func()) {
	start := time.Now()
	fn()
	logger := logging.WithTicker(a.Logger, market.Ticker)
	logging.LogComputation(logger, op, legs, market.CurrentSpot, time.Since(start))
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a single option with Black-Scholes",
		Example: `  strategizer price --spot 100 --strike 105 --days 30 --iv 0.35 --type call
  strategizer price --spot 100 --strike 95 --days 0 --type put --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			spot, _ := cmd.Flags().GetFloat64("spot")
			strike, _ := cmd.Flags().GetFloat64("strike")
			days, _ := cmd.Flags().GetInt("days")
			typeStr, _ := cmd.Flags().GetString("type")

			optType, err := models.ParseOptionType(typeStr)
			if err != nil {
				return err
			}
			iv := app.Engine.Settings().DefaultIV
			if cmd.Flags().Changed("iv") {
				iv, _ = cmd.Flags().GetFloat64("iv")
			}
			rate := app.Engine.Settings().RiskFreeRate
			if cmd.Flags().Changed("rate") {
				rate, _ = cmd.Flags().GetFloat64("rate")
			}

			market := models.MarketContext{CurrentSpot: spot, DaysToExpiry: days, RiskFreeRate: rate}
			var g models.GreeksResult
			app.timed("price", 1, market, func() {
				g = options.Price(spot, strike, float64(days)/365.0, rate, iv, optType)
			})

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(g)
			}
			output.Box(fmt.Sprintf("%s %s  spot %s  %dd  iv %.1f%%",
				strings.ToUpper(string(optType)), FormatPrice(strike), FormatPrice(spot), days, iv*100),
				[]string{
					"Price: " + utils.FormatMoney(g.Price),
					"Delta: " + FormatGreek(g.Delta),
					"Gamma: " + FormatGreek(g.Gamma),
					"Theta: " + FormatGreek(g.Theta) + " /day",
					"Vega:  " + FormatGreek(g.Vega) + " /vol pt",
					"Rho:   " + FormatGreek(g.Rho) + " /rate pt",
				})
			return nil
		},
	}

	cmd.Flags().Float64("spot", 0, "underlying price")
	cmd.Flags().Float64("strike", 0, "strike price")
	cmd.Flags().Int("days", 30, "calendar days to expiry")
	cmd.Flags().Float64("iv", 0, "implied volatility as a decimal (default from config)")
	cmd.Flags().String("type", "call", "option type: call or put")
	cmd.Flags().Float64("rate", 0, "annual risk-free rate (default from config)")
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("strike")

	return cmd
}

type payoffPoint struct {
	Spot          float64 `json:"spot"`
	ChangePercent float64 `json:"change_percent"`
	PnL           float64 `json:"pnl"`
}

func newPayoffCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Expiration payoff curve of a strategy",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadStrategy(cmd)
			if err != nil {
				return err
			}
			rangePct, steps, err := gridFlags(cmd, app.Engine.Settings().MetricsRangePercent, app.Engine.Settings().MetricsSteps)
			if err != nil {
				return err
			}

			spot := s.Market.CurrentSpot
			var grid, pnl []float64
			app.timed("payoff", len(s.Legs), s.Market, func() {
				grid = options.SpotRange(spot, rangePct, steps)
				pnl = app.Engine.PayoffAtExpiration(s.Legs, grid)
			})

			points := make([]payoffPoint, len(grid))
			for i, price := range grid {
				points[i] = payoffPoint{Spot: price, ChangePercent: (price - spot) / spot * 100, PnL: pnl[i]}
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(points)
			}
			table := NewTable(output, "SPOT", "CHANGE", "P&L AT EXPIRY")
			for _, p := range points {
				table.AddRow(FormatPrice(p.Spot), output.FormatPercent(p.ChangePercent), output.FormatPnL(p.PnL))
			}
			table.Render()
			return nil
		},
	}

	addStrategyFlags(cmd)
	cmd.Flags().Float64("range", 0, "spot window in percent around spot (default from config)")
	cmd.Flags().Int("steps", 0, "number of grid points (default from config)")
	return cmd
}

func newBreakevensCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breakevens",
		Short: "Spot prices where the expiration P&L crosses zero",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadStrategy(cmd)
			if err != nil {
				return err
			}
			var bes []float64
			app.timed("breakevens", len(s.Legs), s.Market, func() {
				bes = app.Engine.Breakevens(s.Legs, s.Market.CurrentSpot)
			})

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string][]float64{"breakevens": bes})
			}
			output.Printf("Breakevens: %s\n", FormatBreakevens(bes))
			return nil
		},
	}
	addStrategyFlags(cmd)
	return cmd
}

type popResult struct {
	ProbabilityOfProfit float64 `json:"probability_of_profit"`
	IV                  float64 `json:"iv"`
	Partitioned         bool    `json:"partitioned"`
}

func newPopCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pop",
		Short: "Probability of profit at expiration",
		Long: `Probability that the strategy finishes profitable under a lognormal model.

By default the probability is derived from the lowest and highest
breakeven only. --partitioned sums every profitable interval between
breakevens instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadStrategy(cmd)
			if err != nil {
				return err
			}
			iv := app.Engine.AverageIV(s.Legs)
			if cmd.Flags().Changed("iv") {
				iv, _ = cmd.Flags().GetFloat64("iv")
			}
			partitioned, _ := cmd.Flags().GetBool("partitioned")

			res := popResult{IV: iv, Partitioned: partitioned}
			app.timed("pop", len(s.Legs), s.Market, func() {
				if partitioned {
					res.ProbabilityOfProfit = app.Engine.ProbabilityOfProfitPartitioned(s.Legs, s.Market, iv)
				} else {
					res.ProbabilityOfProfit = app.Engine.ProbabilityOfProfit(s.Legs, s.Market, iv)
				}
			})

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Printf("Probability of profit: %s (iv %.1f%%)\n", utils.FormatProbability(res.ProbabilityOfProfit), iv*100)
			return nil
		},
	}
	addStrategyFlags(cmd)
	cmd.Flags().Float64("iv", 0, "volatility to assume (default: average leg IV)")
	cmd.Flags().Bool("partitioned", false, "resolve interior breakevens")
	return cmd
}

// gridFlags resolves --range and --steps against their configured defaults.
func gridFlags(cmd *cobra.Command, rangePct float64, steps int) (float64, int, error) {
	if cmd.Flags().Changed("range") {
		rangePct, _ = cmd.Flags().GetFloat64("range")
	}
	if cmd.Flags().Changed("steps") {
		steps, _ = cmd.Flags().GetInt("steps")
	}
	if !config.ValidRange(rangePct) {
		return 0, 0, apperrors.NewValidationError("range", rangePct, "must be in (0, 100]")
	}
	if steps < 1 {
		return 0, 0, apperrors.NewValidationError("steps", steps, "must be at least 1")
	}
	return rangePct, steps, nil
}

func newSensitivityCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensitivity",
		Short: "P&L across spot now, at half life and at expiration",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadStrategy(cmd)
			if err != nil {
				return err
			}
			rangePct, steps, err := gridFlags(cmd, app.Engine.Settings().SensitivityRangePercent, app.Engine.Settings().SensitivitySteps)
			if err != nil {
				return err
			}

			var rows []models.SensitivityScenario
			app.timed("sensitivity", len(s.Legs), s.Market, func() {
				rows = app.Engine.SensitivityTable(s.Legs, s.Market, rangePct, steps)
			})

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(rows)
			}
			renderSensitivity(output, rows)
			return nil
		},
	}
	addStrategyFlags(cmd)
	cmd.Flags().Float64("range", 0, "spot window in percent around spot (default from config)")
	cmd.Flags().Int("steps", 0, "number of rows (default from config)")
	return cmd
}

func renderSensitivity(output *Output, rows []models.SensitivityScenario) {
	table := NewTable(output, "SPOT", "CHANGE", "NOW", "HALF LIFE", "EXPIRY", "")
	for _, r := range rows {
		marker := ""
		switch {
		case r.IsCurrentPrice:
			marker = output.Cyan("◀ spot")
		case r.IsNearBreakeven:
			marker = output.Yellow("≈ breakeven")
		}
		table.AddRow(
			FormatPrice(r.SpotPrice),
			output.FormatPercent(r.SpotChangePercent),
			output.FormatPnL(r.PnLNow),
			output.FormatPnL(r.PnLHalfLife),
			output.FormatPnL(r.PnLExpiration),
			marker,
		)
	}
	table.Render()
}

func newMetricsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "metrics",
		Short: "Aggregate strategy metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.loadStrategy(cmd)
			if err != nil {
				return err
			}
			legs := s.Legs
			if recompute, _ := cmd.Flags().GetBool("recompute-greeks"); recompute {
				legs = app.Engine.WithModelGreeks(legs, s.Market)
			}

			var m models.StrategyMetrics
			app.timed("metrics", len(legs), s.Market, func() {
				m = app.Engine.ComputeMetrics(legs, s.Market)
			})

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(m)
			}
			renderLegs(output, legs)
			output.Println()
			renderMetrics(output, m)
			return nil
		},
	}
	addStrategyFlags(cmd)
	cmd.Flags().Bool("recompute-greeks", false, "fill missing leg Greeks from the pricing model")
	return cmd
}

func renderLegs(output *Output, legs []models.StrategyLeg) {
	table := NewTable(output, "ID", "SIDE", "QTY", "TYPE", "STRIKE", "PREMIUM", "IV", "DELTA", "GAMMA", "THETA", "VEGA")
	for i, leg := range legs {
		id := leg.ID
		if id == 0 {
			id = int64(i + 1)
		}
		side := output.Green(string(leg.Side))
		if !leg.Side.IsLong() {
			side = output.Red(string(leg.Side))
		}
		table.AddRow(
			fmt.Sprintf("%d", id),
			side,
			fmt.Sprintf("%d", leg.Quantity),
			string(leg.Type.Normalize()),
			FormatPrice(leg.Strike),
			utils.FormatMoney(leg.Premium),
			FormatIV(leg.ImpliedVolatility),
			FormatOptional(leg.Delta, 4),
			FormatOptional(leg.Gamma, 4),
			FormatOptional(leg.Theta, 4),
			FormatOptional(leg.Vega, 4),
		)
	}
	table.Render()
}

func renderMetrics(output *Output, m models.StrategyMetrics) {
	costLabel := "Net debit"
	if m.NetCost < 0 {
		costLabel = "Net credit"
	}
	output.Box("Strategy metrics", []string{
		fmt.Sprintf("%-22s %s", costLabel+":", utils.FormatMoney(math.Abs(m.NetCost))),
		fmt.Sprintf("%-22s %s", "Max profit (range):", FormatBound(m.MaxProfitInRange, m.Bounds.UnlimitedProfit)),
		fmt.Sprintf("%-22s %s", "Max loss (range):", FormatBound(m.MaxLossInRange, m.Bounds.UnlimitedLoss)),
		fmt.Sprintf("%-22s %s", "Breakevens:", FormatBreakevens(m.Breakevens)),
		fmt.Sprintf("%-22s %s", "Probability of profit:", utils.FormatProbability(m.ProbabilityOfProfit)),
		fmt.Sprintf("%-22s %s", "Capital at risk:", utils.FormatMoney(m.CapitalAtRisk)),
		fmt.Sprintf("%-22s %s", "Return on risk:", utils.FormatPercent(m.ReturnOnRisk)),
		fmt.Sprintf("%-22s %s", "Risk/reward:", FormatRatio(m.RiskRewardRatio)),
		fmt.Sprintf("%-22s %s", "Net delta:", FormatGreek(m.NetDelta)),
		fmt.Sprintf("%-22s %s", "Net gamma:", FormatGreek(m.NetGamma)),
		fmt.Sprintf("%-22s %s", "Net theta:", FormatGreek(m.NetTheta)),
		fmt.Sprintf("%-22s %s", "Net vega:", FormatGreek(m.NetVega)),
	})
}
