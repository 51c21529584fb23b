package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	apperrors "options-strategizer/internal/errors"
	"options-strategizer/internal/logging"
	"options-strategizer/internal/marketdata"
	"options-strategizer/internal/models"
	"options-strategizer/internal/store"
)

const sessionHelp = `Commands:
  market <spot> <days> [rate]                    set the market context
  add <call|put> <long|short> <strike> <premium> [qty] [iv]
  quote <strike> <call|put> <long|short> [qty]   add a leg priced from --chain
  qty <id> <quantity>                            change a leg's quantity
  remove <id>                                    delete a leg
  clear                                          delete every leg
  list                                           show the legs
  metrics                                        aggregate strategy metrics
  table                                          sensitivity table
  help                                           show this help
  quit                                           leave the session`

// addSessionCommands adds the interactive strategy builder.
func addSessionCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newSessionCmd(app))
}

func newSessionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Build a strategy interactively",
		Long: `Read line commands from stdin and maintain a leg list in memory.
Metrics and sensitivity are recomputed from a fresh snapshot of the legs
every time they are requested. Missing leg Greeks are filled from the
pricing model.

` + sessionHelp,
		Example: `  strategizer session --spot 100 --days 30
  strategizer session --chain ggal.csv --spot 100 < script.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.NewSessionStore()
			if err != nil {
				return err
			}
			defer st.Close()

			s := &session{
				app:    app,
				store:  st,
				output: NewOutput(cmd),
				logger: logging.WithOperation(app.Logger, "session"),
			}
			ctx := logging.WithLogger(cmd.Context(), s.logger)

			spot, _ := cmd.Flags().GetFloat64("spot")
			if path, _ := cmd.Flags().GetString("chain"); path != "" {
				chain, err := app.loadChain(cmd)
				if err != nil {
					return err
				}
				s.chain = &chain
				spot = chain.SpotPrice
			}
			if spot <= 0 {
				spot = app.Config.Market.Spot
			}
			days := app.Config.Market.DaysToExpiry
			if cmd.Flags().Changed("days") {
				days, _ = cmd.Flags().GetInt("days")
			}
			ticker, _ := cmd.Flags().GetString("ticker")
			if ticker == "" && s.chain != nil {
				ticker = s.chain.Ticker
			}
			if ticker == "" {
				ticker = app.Config.Market.Ticker
			}
			s.ticker = strings.ToUpper(ticker)

			if spot > 0 {
				if err := s.setMarket(ctx, spot, days, app.Engine.Settings().RiskFreeRate); err != nil {
					return err
				}
			}
			return s.run(ctx, cmd.InOrStdin())
		},
	}

	cmd.Flags().Float64("spot", 0, "initial spot price")
	cmd.Flags().Int("days", 0, "initial days to expiry (default from config)")
	cmd.Flags().String("ticker", "", "underlying ticker")
	cmd.Flags().String("chain", "", "chain snapshot for the quote command (.csv or .json)")
	return cmd
}

type session struct {
	app    *App
	store  store.SessionStore
	output *Output
	logger zerolog.Logger
	chain  *models.OptionChain
	ticker string
}

var errQuit = errors.New("quit")

func (s *session) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err := s.exec(ctx, strings.Fields(line))
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.output.Error("✗ %v", err)
		}
	}
	return scanner.Err()
}

func (s *session) exec(ctx context.Context, fields []string) error {
	cmd, args := strings.ToLower(fields[0]), fields[1:]
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		s.output.Println(sessionHelp)
		return nil
	case "market":
		return s.market(ctx, args)
	case "add":
		return s.add(ctx, args)
	case "quote":
		return s.quote(ctx, args)
	case "qty":
		return s.quantity(ctx, args)
	case "remove", "rm":
		return s.remove(ctx, args)
	case "clear":
		err := s.store.Clear(ctx)
		logging.LogSessionChange(s.logger, "clear", 0, err)
		if err == nil {
			s.output.Success("✓ Cleared all legs")
		}
		return err
	case "list", "ls":
		return s.list(ctx)
	case "metrics":
		return s.metrics(ctx)
	case "table":
		return s.table(ctx)
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

func (s *session) setMarket(ctx context.Context, spot float64, days int, rate float64) error {
	m := models.MarketContext{Ticker: s.ticker, CurrentSpot: spot, DaysToExpiry: days, RiskFreeRate: rate}
	if err := s.store.SetMarket(ctx, m); err != nil {
		return err
	}
	s.logger.Debug().Float64("spot", spot).Int("days", days).Msg("Session market set")
	return nil
}

func (s *session) market(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return usage("market <spot> <days> [rate]")
	}
	spot, err := parseFloat("spot", args[0])
	if err != nil {
		return err
	}
	days, err := parseInt("days", args[1])
	if err != nil {
		return err
	}
	rate := s.app.Engine.Settings().RiskFreeRate
	if len(args) > 2 {
		if rate, err = parseFloat("rate", args[2]); err != nil {
			return err
		}
	}
	if err := s.setMarket(ctx, spot, days, rate); err != nil {
		return err
	}
	s.output.Success("✓ Market: spot %s, %d days, rate %s", FormatPrice(spot), days, FormatRatio(rate))
	return nil
}

func (s *session) add(ctx context.Context, args []string) error {
	if len(args) < 4 || len(args) > 6 {
		return usage("add <call|put> <long|short> <strike> <premium> [qty] [iv]")
	}
	optType, err := models.ParseOptionType(args[0])
	if err != nil {
		return err
	}
	side, err := models.ParseSide(args[1])
	if err != nil {
		return err
	}
	leg := models.StrategyLeg{Type: optType, Side: side, Quantity: 1}
	if leg.Strike, err = parseFloat("strike", args[2]); err != nil {
		return err
	}
	if leg.Premium, err = parseFloat("premium", args[3]); err != nil {
		return err
	}
	if len(args) > 4 {
		if leg.Quantity, err = parseInt("quantity", args[4]); err != nil {
			return err
		}
	}
	if len(args) > 5 {
		iv, err := parseFloat("iv", args[5])
		if err != nil {
			return err
		}
		leg.ImpliedVolatility = models.Float(iv)
	}
	return s.insert(ctx, leg)
}

func (s *session) quote(ctx context.Context, args []string) error {
	if s.chain == nil {
		return fmt.Errorf("%w: start the session with --chain to use quote", apperrors.ErrDataNotFound)
	}
	if len(args) < 3 || len(args) > 4 {
		return usage("quote <strike> <call|put> <long|short> [qty]")
	}
	strike, err := parseFloat("strike", args[0])
	if err != nil {
		return err
	}
	optType, err := models.ParseOptionType(args[1])
	if err != nil {
		return err
	}
	side, err := models.ParseSide(args[2])
	if err != nil {
		return err
	}
	qty := 1
	if len(args) > 3 {
		if qty, err = parseInt("quantity", args[3]); err != nil {
			return err
		}
	}
	leg, err := marketdata.LegFromQuote(*s.chain, strike, optType, side, qty)
	if err != nil {
		return err
	}
	return s.insert(ctx, leg)
}

func (s *session) insert(ctx context.Context, leg models.StrategyLeg) error {
	id, err := s.store.AddLeg(ctx, leg)
	logging.LogSessionChange(s.logger, "add", id, err)
	if err != nil {
		return err
	}
	leg.ID = id
	s.output.Success("✓ Added leg %d: %s", id, FormatLeg(leg))
	return nil
}

func (s *session) quantity(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("qty <id> <quantity>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	qty, err := parseInt("quantity", args[1])
	if err != nil {
		return err
	}
	err = s.store.UpdateQuantity(ctx, id, qty)
	logging.LogSessionChange(s.logger, "quantity", id, err)
	if err != nil {
		return err
	}
	s.output.Success("✓ Leg %d quantity set to %d", id, qty)
	return nil
}

func (s *session) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("remove <id>")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	err = s.store.RemoveLeg(ctx, id)
	logging.LogSessionChange(s.logger, "remove", id, err)
	if err != nil {
		return err
	}
	s.output.Success("✓ Removed leg %d", id)
	return nil
}

func (s *session) list(ctx context.Context) error {
	legs, err := s.store.Legs(ctx)
	if err != nil {
		return err
	}
	if s.output.IsJSON() {
		return s.output.JSON(legs)
	}
	if len(legs) == 0 {
		s.output.Dim("No legs. Use add or quote.")
		return nil
	}
	renderLegs(s.output, legs)
	return nil
}

// snapshot returns the current legs with model Greeks filled in, and the
// market they are evaluated against.
func (s *session) snapshot(ctx context.Context) ([]models.StrategyLeg, models.MarketContext, error) {
	market, err := s.store.Market(ctx)
	if errors.Is(err, apperrors.ErrDataNotFound) {
		return nil, market, fmt.Errorf("%w: set one with market <spot> <days>", err)
	}
	if err != nil {
		return nil, market, err
	}
	legs, err := s.store.Legs(ctx)
	if err != nil {
		return nil, market, err
	}
	s.app.warnDegenerate(legs, market)
	return s.app.Engine.WithModelGreeks(legs, market), market, nil
}

func (s *session) metrics(ctx context.Context) error {
	legs, market, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	var m models.StrategyMetrics
	s.app.timed("metrics", len(legs), market, func() {
		m = s.app.Engine.ComputeMetrics(legs, market)
	})
	if s.output.IsJSON() {
		return s.output.JSON(m)
	}
	renderMetrics(s.output, m)
	return nil
}

func (s *session) table(ctx context.Context) error {
	legs, market, err := s.snapshot(ctx)
	if err != nil {
		return err
	}
	var rows []models.SensitivityScenario
	s.app.timed("sensitivity", len(legs), market, func() {
		rows = s.app.Engine.DefaultSensitivityTable(legs, market)
	})
	if s.output.IsJSON() {
		return s.output.JSON(rows)
	}
	renderSensitivity(s.output, rows)
	return nil
}

func usage(syntax string) error {
	return fmt.Errorf("%w: usage: %s", apperrors.ErrInputValidation, syntax)
}

func parseFloat(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperrors.NewValidationError(field, s, "must be a number")
	}
	return v, nil
}

func parseInt(field, s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, apperrors.NewValidationError(field, s, "must be an integer")
	}
	return v, nil
}

func parseID(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, apperrors.NewValidationError("id", s, "must be a leg id")
	}
	return v, nil
}
