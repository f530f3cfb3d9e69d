package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/allot/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	path := flagConfig
	if path == "" {
		path = config.ConfigPath()
	}
	fmt.Printf("  Config file: %s\n", path)
	if flagConfig != "" || config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Budget file: %s\n", budgetPath())
	fmt.Printf("    History:     %v\n", cfg.General.History)
	fmt.Printf("    Data dir:    %s\n", config.DataDir())
	fmt.Println()

	fmt.Println("  [Defaults]")
	fmt.Printf("    Grand total:   %.2f\n", cfg.Defaults.GrandTotal)
	fmt.Printf("    Admin:         %.2f%%\n", cfg.Defaults.AdminPct)
	fmt.Printf("    Contingency:   %.2f%%\n", cfg.Defaults.ContingencyPct)
	fmt.Printf("    Mode:          %s\n", cfg.Defaults.Mode)
	groups := config.GroupTemplates(cfg)
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = fmt.Sprintf("%s (%d)", g.Label, len(g.Categories))
	}
	fmt.Printf("    Groups:        %s\n", strings.Join(labels, ", "))
	if len(cfg.Defaults.Fees) > 0 {
		fees := make([]string, len(cfg.Defaults.Fees))
		for i, f := range cfg.Defaults.Fees {
			fees[i] = f.Name
		}
		fmt.Printf("    Fees:          %s\n", strings.Join(fees, ", "))
	}
	fmt.Println()

	fmt.Println("  [Google]")
	credJSON, credFile := config.GetGoogleCredentials(cfg)
	switch {
	case credJSON != "":
		fmt.Println("    Credentials:    from ALLOT_GOOGLE_CREDENTIALS")
	case credFile != "":
		fmt.Printf("    Credentials:    %s\n", credFile)
	default:
		fmt.Println("    Credentials:    not configured")
	}
	if cfg.Google.SpreadsheetID != "" {
		fmt.Printf("    Spreadsheet ID: %s\n", cfg.Google.SpreadsheetID)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Serve]")
	fmt.Printf("    Address:  %s\n", serveAddr())
	fmt.Printf("    Interval: %s\n", serveInterval())
	fmt.Println()

	fmt.Println("  Run `allot setup` to reconfigure.")
	return nil
}
