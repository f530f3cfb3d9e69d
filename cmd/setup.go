package cmd

import (
	"errors"
	"fmt"

	"github.com/theirongolddev/allot/internal/config"
	"github.com/theirongolddev/allot/internal/tui"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "First-time setup wizard",
	Args:  cobra.NoArgs,
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	v := tui.NewConfigValues(cfg)
	if err := tui.NewConfigForm(v).Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("  Setup cancelled, nothing saved.")
			return nil
		}
		return err
	}
	if err := v.Apply(&cfg); err != nil {
		return err
	}

	if err := saveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Println()
	fmt.Printf("  Saved to %s\n", path)
	fmt.Println("  Run `allot setup` anytime to reconfigure.")
	fmt.Println()
	return nil
}
