package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/config"
	"github.com/theirongolddev/allot/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagNewTotal       string
	flagNewEmpty       bool
	flagNewForce       bool
	flagNewInteractive bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a budget from the configured template",
	Args:  cobra.NoArgs,
	RunE:  runNew,
}

func init() {
	newCmd.Flags().StringVar(&flagNewTotal, "total", "", "Grand total (default from config)")
	newCmd.Flags().BoolVar(&flagNewEmpty, "empty", false, "Start without template categories")
	newCmd.Flags().BoolVar(&flagNewForce, "force", false, "Overwrite an existing budget")
	newCmd.Flags().BoolVarP(&flagNewInteractive, "interactive", "i", false, "Ask for the basics in a form")
	rootCmd.AddCommand(newCmd)
}

func runNew(_ *cobra.Command, _ []string) error {
	path := budgetPath()
	if _, err := os.Stat(path); err == nil && !flagNewForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	snap, err := newSnapshot()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Cancelled, nothing written.")
			return nil
		}
		return err
	}

	e := budget.New(decimal.Zero)
	if err := e.Load(snap); err != nil {
		return err
	}
	if err := saveEngine(e, "created"); err != nil {
		return err
	}
	printProjection(e)
	return nil
}

func newSnapshot() (budget.Snapshot, error) {
	if flagNewInteractive {
		v := tui.NewSetupValues(cfg)
		if flagNewTotal != "" {
			v.GrandTotal = flagNewTotal
		}
		v.UseTemplate = !flagNewEmpty
		if err := tui.NewSetupForm(v).Run(); err != nil {
			return budget.Snapshot{}, err
		}
		return v.Snapshot()
	}

	total := decimal.Zero
	if flagNewTotal != "" {
		var err error
		if total, err = budget.ParseDecimal(flagNewTotal); err != nil {
			return budget.Snapshot{}, fmt.Errorf("--total: %w", err)
		}
	}
	return config.NewBudget(cfg, total, !flagNewEmpty)
}
