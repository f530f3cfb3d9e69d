package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/charmbracelet/lipgloss"
)

// ProjectionHeaders are the columns of the budget table.
var ProjectionHeaders = []string{"Description", "Amount", "%", "Lock"}

// ProjectionCells returns the text of one projection row, in ProjectionHeaders
// order. The subtotal always reads 100,00 and the grand total has no
// percentage.
func ProjectionCells(r budget.Row) []string {
	switch r := r.(type) {
	case budget.CategoryRow:
		return []string{r.Description, FormatAmount(r.Amount), FormatPercent(r.Percentage), r.Lock.String()}
	case budget.GroupTotalRow:
		return []string{r.Label, FormatAmount(r.Amount), FormatPercent(r.Percentage), ""}
	case budget.SubtotalRow:
		return []string{budget.SubtotalLabel, FormatAmount(r.Amount), "100,00", ""}
	case budget.FeeRow:
		return []string{r.Description, FormatAmount(r.Amount), FormatPercent(r.Percentage), ""}
	case budget.GrandTotalRow:
		return []string{budget.GrandTotalLabel, FormatAmount(r.Amount), "", ""}
	}
	return nil
}

// ProjectionTable lays a projection out as a Table. Categories are numbered
// with the index the set and lock commands expect.
func ProjectionTable(title string, p budget.Projection) Table {
	t := Table{
		Title:   title,
		Headers: append([]string{"#"}, ProjectionHeaders...),
		Styles:  make(map[int]lipgloss.Style),
	}
	for _, r := range p.Rows {
		num := ""
		switch r := r.(type) {
		case budget.CategoryRow:
			num = strconv.Itoa(r.Index)
			if r.OverBudget {
				t.Styles[len(t.Rows)] = overStyle
			} else if r.Lock.Locked() {
				t.Styles[len(t.Rows)] = amountStyle
			}
		case budget.FeeRow:
			num = "f" + strconv.Itoa(r.Index)
		case budget.GroupTotalRow:
			t.Styles[len(t.Rows)] = totalStyle
		case budget.SubtotalRow:
			t.Rows = append(t.Rows, []string{separator})
			t.Styles[len(t.Rows)] = totalStyle
		case budget.GrandTotalRow:
			t.Rows = append(t.Rows, []string{separator})
			t.Styles[len(t.Rows)] = totalStyle
		}
		t.Rows = append(t.Rows, append([]string{num}, ProjectionCells(r)...))
	}
	return t
}

// RenderSummary renders the locked/remaining lines shown under the table.
func RenderSummary(s budget.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s %s (%s%%)\n",
		mutedStyle.Render("Locked:   "),
		amountStyle.Render(FormatAmount(s.LockedAmount)),
		FormatPercent(s.LockedPercentage))
	fmt.Fprintf(&b, "  %s %s (%s%%)\n",
		mutedStyle.Render("Remaining:"),
		valueStyle.Render(FormatAmount(s.RemainingAmount)),
		FormatPercent(s.RemainingPercentage))
	if s.Subtotal.IsPositive() {
		fmt.Fprintf(&b, "  %s\n", RenderProgressBar(s.LockedAmount.IntPart(), s.Subtotal.IntPart(), 30))
	}
	if s.OverBudget {
		fmt.Fprintf(&b, "  %s\n", overStyle.Render("Over budget by "+FormatAmount(s.Shortfall)+"."))
	} else if s.RemainingAmount.IsNegative() {
		fmt.Fprintf(&b, "  %s\n", warnStyle.Render("Remaining is negative by "+FormatAmount(s.Shortfall)+"."))
	}
	return b.String()
}

// TSV renders a projection as tab-separated lines that paste cleanly into a
// spreadsheet.
func TSV(p budget.Projection) string {
	lines := make([]string, 0, len(p.Rows))
	for _, r := range p.Rows {
		lines = append(lines, strings.Join(ProjectionCells(r), "\t"))
	}
	return strings.Join(lines, "\n")
}
