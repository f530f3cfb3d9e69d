package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/cli"
	"github.com/theirongolddev/allot/internal/document"
	"github.com/theirongolddev/allot/internal/store"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	flagHistoryLimit int
	flagPruneKeep    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved revisions of the budget",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var restoreCmd = &cobra.Command{
	Use:   "restore <revision>",
	Short: "Restore a saved revision",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Drop all but the newest revisions",
	Args:  cobra.NoArgs,
	RunE:  runPrune,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Revisions to show (0 for all)")
	pruneCmd.Flags().IntVar(&flagPruneKeep, "keep", 50, "Revisions to keep")
	historyCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(historyCmd, restoreCmd)
}

func requireHistory() (*store.History, error) {
	h, err := openHistory()
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, errors.New("history is disabled (general.history = false or --no-history)")
	}
	return h, nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	h, err := requireHistory()
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	path := budgetPath()
	revs, err := h.List(path, flagHistoryLimit)
	if err != nil {
		return err
	}
	if len(revs) == 0 {
		fmt.Printf("  No revisions for %s\n", path)
		return nil
	}
	count, err := h.Count(path)
	if err != nil {
		return err
	}

	t := cli.Table{
		Title:   fmt.Sprintf("%d of %d revisions", len(revs), count),
		Headers: []string{"#", "Saved", "Mode", "Grand Total", "Subtotal", "Cats", "Fees", "Note"},
	}
	for _, r := range revs {
		note := r.Note
		if r.OverBudget {
			note = "OVER " + note
		}
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.SavedAt.Local().Format("2006-01-02 15:04"),
			r.Mode,
			amountString(r.GrandTotal),
			amountString(r.Subtotal),
			strconv.Itoa(r.Categories),
			strconv.Itoa(r.Fees),
			note,
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HISTORY  " + path))
	fmt.Println()
	fmt.Print(cli.RenderTable(t))
	return nil
}

func amountString(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return cli.FormatAmount(d)
}

func runRestore(_ *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid revision %q", args[0])
	}

	h, err := requireHistory()
	if err != nil {
		return err
	}
	rev, err := h.Get(id)
	_ = h.Close()
	if err != nil {
		return err
	}
	if abs, err := filepath.Abs(budgetPath()); err == nil && rev.BudgetPath != abs {
		return fmt.Errorf("revision %d belongs to %s (use --file)", id, rev.BudgetPath)
	}

	snap, err := document.Unmarshal(rev.Document)
	if err != nil {
		return fmt.Errorf("revision %d: %w", id, err)
	}
	e := budget.New(decimal.Zero)
	if err := e.Load(snap); err != nil {
		return fmt.Errorf("revision %d: %w", id, err)
	}
	if err := saveEngine(e, fmt.Sprintf("restored from #%d", id)); err != nil {
		return err
	}
	printProjection(e)
	return nil
}

func runPrune(_ *cobra.Command, _ []string) error {
	h, err := requireHistory()
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	n, err := h.Prune(budgetPath(), flagPruneKeep)
	if err != nil {
		return err
	}
	fmt.Printf("  Removed %d revisions\n", n)
	return nil
}
