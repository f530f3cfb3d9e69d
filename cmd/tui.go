package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/tui"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Edit the budget interactively",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	opts := tui.Options{
		Path: budgetPath(),
		Save: func(e *budget.Engine) error { return saveEngine(e, "tui") },
		Copy: clipboard.WriteAll,
	}

	e, err := loadEngine()
	if err != nil {
		if _, statErr := os.Stat(budgetPath()); !errors.Is(statErr, fs.ErrNotExist) {
			return err
		}
		// No document yet: start from the new-budget form.
		e = budget.New(decimal.Zero)
		opts.Setup = tui.NewSetupValues(cfg)
	}

	p := tea.NewProgram(tui.NewApp(e, opts), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	if app, ok := final.(tui.App); ok && app.Dirty() {
		fmt.Println("  Quit with unsaved changes.")
	}
	return nil
}
