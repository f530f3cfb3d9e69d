package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/config"
	"github.com/theirongolddev/allot/internal/sheet"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagImportSheet       string
	flagImportRange       string
	flagImportCredentials string
)

var importCmd = &cobra.Command{
	Use:   "import [file.xlsx|file.csv]",
	Short: "Replace categories and fees from a sheet",
	Long: "Reads Group, Description, Amount and Percentage columns from a local\n" +
		"workbook, a CSV file or a Google spreadsheet (--sheet).",
	Args: cobra.MaximumNArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&flagImportSheet, "sheet", "", "Google spreadsheet ID (default from config when no file is given)")
	importCmd.Flags().StringVar(&flagImportRange, "range", "", "A1 range to read (default "+sheet.DefaultRange+")")
	importCmd.Flags().StringVar(&flagImportCredentials, "credentials", "", "Service account JSON file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	src, name, err := importSource(cmd, args)
	if err != nil {
		return err
	}

	rows, err := src.Rows(cmd.Context())
	if err != nil {
		return err
	}
	log.Debug().Int("rows", len(rows)).Str("source", name).Msg("sheet read")

	e, err := loadEngine()
	if err != nil {
		if _, statErr := os.Stat(budgetPath()); !errors.Is(statErr, fs.ErrNotExist) {
			return err
		}
		snap, err := config.NewBudget(cfg, decimal.Zero, false)
		if err != nil {
			return err
		}
		e = budget.New(decimal.Zero)
		if err := e.Load(snap); err != nil {
			return err
		}
	}

	if err := sheet.Import(e, rows); err != nil {
		return fmt.Errorf("importing %s: %w", name, err)
	}
	if err := saveEngine(e, "imported "+name); err != nil {
		return err
	}
	printProjection(e)
	return nil
}

func importSource(cmd *cobra.Command, args []string) (sheet.Source, string, error) {
	if len(args) == 1 {
		if flagImportSheet != "" {
			return nil, "", errors.New("give either a file or --sheet, not both")
		}
		return sheet.File{Path: args[0]}, args[0], nil
	}

	id := flagImportSheet
	if id == "" {
		id = cfg.Google.SpreadsheetID
	}
	if id == "" {
		return nil, "", errors.New("nothing to import: pass a file or --sheet")
	}
	rng := flagImportRange
	if rng == "" {
		rng = cfg.Google.Range
	}

	credJSON, credFile := config.GetGoogleCredentials(cfg)
	if flagImportCredentials != "" {
		credJSON, credFile = "", flagImportCredentials
	}
	creds, err := sheet.CredentialsOption(credJSON, credFile)
	if err != nil {
		return nil, "", err
	}
	src, err := sheet.NewGoogleSheet(cmd.Context(), id, rng, creds)
	if err != nil {
		return nil, "", err
	}
	return src, "sheet " + id, nil
}
