package cli

import (
	"github.com/spf13/cobra"
)

// addHelpCommands adds documentation commands.
func addHelpCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newExamplesCmd())
}

type workflow struct {
	title string
	steps []string
}

var workflows = []workflow{
	{
		title: "Price a single option",
		steps: []string{
			"strategizer price --spot 100 --strike 105 --days 30 --iv 0.35 --type call",
			"strategizer price --spot 100 --strike 95 --days 0 --type put --json",
		},
	},
	{
		title: "Analyze a strategy file",
		steps: []string{
			"strategizer config example spread.toml",
			"strategizer metrics -f spread.toml",
			"strategizer sensitivity -f spread.toml --range 15 --steps 31",
			"strategizer pop -f spread.toml --partitioned",
			"strategizer breakevens -f spread.toml --spot 102",
		},
	},
	{
		title: "Work from an option chain",
		steps: []string{
			"strategizer chain exposure --chain ggal.csv --spot 100 --ticker GGAL",
			"strategizer chain smile --chain ggal.csv --spot 100",
			"strategizer chain leg --chain ggal.csv --spot 100 --strike 110 --type call --side short >> spread.toml",
		},
	},
	{
		title: "Build a strategy interactively",
		steps: []string{
			"strategizer session --chain ggal.csv --spot 100 --days 30",
			"> quote 100 call long",
			"> quote 110 call short",
			"> metrics",
			"> table",
		},
	},
}

func newExamplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "examples",
		Short: "Show common workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			for i, w := range workflows {
				if i > 0 {
					output.Println()
				}
				output.Bold(w.title)
				for _, step := range w.steps {
					output.Printf("  %s\n", output.Cyan(step))
				}
			}
			return nil
		},
	}
}
