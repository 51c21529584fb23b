package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-strategizer/internal/analysis/options"
	"options-strategizer/internal/marketdata"
	"options-strategizer/internal/models"
	"options-strategizer/pkg/utils"
)

// addChainCommands adds option chain commands.
func addChainCommands(rootCmd *cobra.Command, app *App) {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Option chain snapshot commands",
		Long: `Commands working on an option chain snapshot loaded from a CSV or JSON file.

CSV columns: strike,type,bid,ask,last,volume,open_interest,iv,delta,gamma,theta,vega,vanna,charm`,
	}

	cmd.PersistentFlags().String("chain", "", "chain snapshot file (.csv or .json)")
	cmd.PersistentFlags().String("ticker", "", "underlying ticker")
	cmd.PersistentFlags().Float64("spot", 0, "underlying price (required for CSV)")
	_ = cmd.MarkPersistentFlagRequired("chain")

	cmd.AddCommand(newChainExposureCmd(app))
	cmd.AddCommand(newChainLegCmd(app))
	cmd.AddCommand(newChainSmileCmd(app))

	rootCmd.AddCommand(cmd)
}

func (a *App) loadChain(cmd *cobra.Command) (models.OptionChain, error) {
	path, _ := cmd.Flags().GetString("chain")
	ticker, _ := cmd.Flags().GetString("ticker")
	spot, _ := cmd.Flags().GetFloat64("spot")

	chain, err := marketdata.LoadChainFile(path, ticker, spot)
	if err != nil {
		return chain, err
	}
	a.Logger.Debug().
		Str("chain", path).
		Str("ticker", chain.Ticker).
		Int("strikes", len(chain.Strikes)).
		Msg("Option chain loaded")
	return chain, nil
}

func newChainExposureCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "exposure",
		Short:   "Dealer gamma, vanna and charm exposure by strike",
		Example: `  strategizer chain exposure --chain ggal.csv --spot 100 --ticker GGAL`,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := app.loadChain(cmd)
			if err != nil {
				return err
			}
			market := models.MarketContext{Ticker: chain.Ticker, CurrentSpot: chain.SpotPrice}

			var p models.ExposureProfile
			app.timed("exposure", len(chain.Strikes), market, func() {
				p = app.Engine.ExposureProfile(chain)
			})

			if p.InvalidQuotes > 0 {
				app.Logger.Warn().
					Str("event", "implausible_greeks").
					Str("ticker", chain.Ticker).
					Int("quotes", p.InvalidQuotes).
					Msg("Quotes left out of exposure")
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(p)
			}

			regime := string(p.Regime)
			switch p.Regime {
			case models.RegimePositive:
				regime = output.Green(regime)
			case models.RegimeNegative:
				regime = output.Red(regime)
			}
			output.Box(fmt.Sprintf("%s exposure  spot %s", chain.Ticker, FormatPrice(p.SpotPrice)), []string{
				"Net GEX:    " + FormatMillions(p.NetGEX),
				"Call GEX:   " + FormatMillions(p.TotalCallGEX),
				"Put GEX:    " + FormatMillions(p.TotalPutGEX),
				"Local GEX:  " + FormatMillions(p.LocalGEX),
				"Total VEX:  " + FormatMillions(p.TotalVEX),
				"Total CEX:  " + utils.FormatNumber(p.TotalCEX, 3) + "K",
				"Flip point: " + FormatOptionalPrice(p.FlipPoint),
				"Max pain:   " + FormatOptionalPrice(p.MaxPain),
				"Regime:     " + regime,
			})
			if p.InvalidQuotes > 0 {
				output.Warning("%d quote(s) with implausible Greeks left out of exposure", p.InvalidQuotes)
			}
			output.Println()

			table := NewTable(output, "STRIKE", "", "CALL OI", "PUT OI", "CALL GEX", "PUT GEX", "TOTAL GEX", "VEX", "CEX")
			for _, s := range p.Strikes {
				table.AddRow(
					FormatPrice(s.Strike),
					string(s.Moneyness),
					utils.FormatNumber(float64(s.CallOI), 0),
					utils.FormatNumber(float64(s.PutOI), 0),
					utils.FormatNumber(s.CallGEX, 3),
					utils.FormatNumber(s.PutGEX, 3),
					output.paint(utils.FormatNumber(s.TotalGEX, 3), pnlAttr(s.TotalGEX)),
					utils.FormatNumber(s.VEX, 3),
					utils.FormatNumber(s.CEX, 3),
				)
			}
			table.Render()
			return nil
		},
	}
}

func newChainLegCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leg",
		Short: "Build a strategy leg from a chain quote",
		Long: `Build a strategy leg priced from the chain. Long legs enter at the ask and
short legs at the bid; a missing side falls back to the last trade.

The text output is a [[legs]] entry ready to paste into a strategy file.`,
		Example: `  strategizer chain leg --chain ggal.csv --spot 100 --strike 105 --type call --side short`,
		RunE: func(cmd *cobra.Command, args []string) error {
			strike, _ := cmd.Flags().GetFloat64("strike")
			typeStr, _ := cmd.Flags().GetString("type")
			sideStr, _ := cmd.Flags().GetString("side")
			qty, _ := cmd.Flags().GetInt("qty")

			optType, err := models.ParseOptionType(typeStr)
			if err != nil {
				return err
			}
			side, err := models.ParseSide(sideStr)
			if err != nil {
				return err
			}
			chain, err := app.loadChain(cmd)
			if err != nil {
				return err
			}
			leg, err := marketdata.LegFromQuote(chain, strike, optType, side, qty)
			if err != nil {
				return err
			}
			if s, ok := marketdata.FindStrike(chain, strike); ok {
				if q := s.Quote(optType); q != nil {
					if err := options.ValidateGreeks(*q, optType); err != nil {
						app.warnImplausible(chain.Ticker, strike, optType, err)
					}
				}
			}

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(leg)
			}
			writeLegTOML(output, leg)
			return nil
		},
	}

	cmd.Flags().Float64("strike", 0, "strike price")
	cmd.Flags().String("type", "call", "option type: call or put")
	cmd.Flags().String("side", "long", "position side: long or short")
	cmd.Flags().Int("qty", 1, "number of contracts")
	_ = cmd.MarkFlagRequired("strike")
	return cmd
}

func (a *App) warnImplausible(ticker string, strike float64, t models.OptionType, err error) {
	a.Logger.Warn().
		Str("event", "implausible_greeks").
		Str("ticker", ticker).
		Float64("strike", strike).
		Str("type", string(t)).
		Err(err).
		Msg("Feed Greeks dropped, the model will supply them")
}

func newChainSmileCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "smile",
		Short:   "Implied volatility by strike for calls and puts",
		Example: `  strategizer chain smile --chain ggal.csv --spot 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			chain, err := app.loadChain(cmd)
			if err != nil {
				return err
			}
			points := options.VolatilitySmile(chain)

			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(points)
			}
			if len(points) == 0 {
				output.Dim("No implied volatility in the chain.")
				return nil
			}

			table := NewTable(output, "STRIKE", "", "CALL IV", "PUT IV")
			for i := 0; i < len(points); {
				strike := points[i].Strike
				callIV, putIV := "-", "-"
				for ; i < len(points) && points[i].Strike == strike; i++ {
					if points[i].Type == models.OptionCall {
						callIV = FormatIV(&points[i].IV)
					} else {
						putIV = FormatIV(&points[i].IV)
					}
				}
				table.AddRow(FormatPrice(strike), string(options.ClassifyMoneyness(strike, chain.SpotPrice)), callIV, putIV)
			}
			table.Render()
			return nil
		},
	}
}

func writeLegTOML(output *Output, leg models.StrategyLeg) {
	output.Println("[[legs]]")
	output.Printf("type = %q\n", leg.Type)
	output.Printf("side = %q\n", leg.Side)
	output.Printf("strike = %g\n", leg.Strike)
	output.Printf("premium = %g\n", leg.Premium)
	output.Printf("quantity = %d\n", leg.Quantity)
	optional := []struct {
		key string
		v   *float64
	}{
		{"iv", leg.ImpliedVolatility},
		{"delta", leg.Delta},
		{"gamma", leg.Gamma},
		{"theta", leg.Theta},
		{"vega", leg.Vega},
	}
	for _, f := range optional {
		if f.v != nil {
			output.Printf("%s = %g\n", f.key, *f.v)
		}
	}
}
