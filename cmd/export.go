package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/theirongolddev/allot/internal/cli"
	"github.com/theirongolddev/allot/internal/document"
	"github.com/theirongolddev/allot/internal/sheet"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

var copyCmd = &cobra.Command{
	Use:   "copy",
	Short: "Copy the table to the clipboard as tab-separated text",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		e, err := loadEngine()
		if err != nil {
			return err
		}
		p := e.Projection()
		if err := clipboard.WriteAll(cli.TSV(p)); err != nil {
			return fmt.Errorf("clipboard: %w", err)
		}
		fmt.Printf("  Copied %d rows\n", len(p.Rows))
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file.xlsx|file.csv|file.json>",
	Short: "Write the budget in the import layout, or as a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	rootCmd.AddCommand(copyCmd, exportCmd)
}

func runExport(_ *cobra.Command, args []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}
	path := args[0]
	snap := e.Snapshot()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		err = sheet.WriteXLSX(path, sheet.ExportRows(snap))
	case ".csv":
		err = writeCSV(path, sheet.ExportRows(snap))
	case ".json":
		err = document.Save(path, snap)
	default:
		return fmt.Errorf("unsupported export format %q (want .xlsx, .csv or .json)", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	fmt.Printf("  Wrote %s\n", path)
	return nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path) //nolint:gosec // export path is given by the local user
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
