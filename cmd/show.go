package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/cli"

	"github.com/spf13/cobra"
)

var (
	flagShowJSON bool
	flagShowTSV  bool
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the budget table",
	Args:  cobra.NoArgs,
	RunE:  runShow,
}

func init() {
	for _, c := range []*cobra.Command{rootCmd, showCmd} {
		c.Flags().BoolVar(&flagShowJSON, "json", false, "Print the projection as JSON")
		c.Flags().BoolVar(&flagShowTSV, "tsv", false, "Print tab-separated rows")
	}
	rootCmd.AddCommand(showCmd)
}

func runShow(_ *cobra.Command, _ []string) error {
	e, err := loadEngine()
	if err != nil {
		return err
	}

	switch {
	case flagShowJSON:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(e.Projection())
	case flagShowTSV:
		fmt.Println(cli.TSV(e.Projection()))
		return nil
	}
	printProjection(e)
	return nil
}

// printProjection renders the table and the locked/remaining summary.
func printProjection(e *budget.Engine) {
	p := e.Projection()
	title := fmt.Sprintf("BUDGET  %s  (%s mode)", budgetPath(), p.Mode)

	fmt.Println()
	fmt.Println(cli.RenderTitle(title))
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.ProjectionTable("", p)))
	fmt.Println()
	fmt.Print(cli.RenderSummary(p.Summary))
	if !e.ComputedGrandTotal().Equal(e.GrandTotal()) {
		fmt.Printf("  Target grand total %s, computed %s (%s)\n",
			cli.FormatAmount(e.GrandTotal()),
			cli.FormatAmount(e.ComputedGrandTotal()),
			cli.FormatDelta(e.ComputedGrandTotal(), e.GrandTotal()))
	}
}
