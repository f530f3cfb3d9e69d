package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Flexoki Dark, the default palette of the interactive editor.
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorOrange    = lipgloss.Color("#DA702C")
	ColorRed       = lipgloss.Color("#D14D41")
	ColorBlue      = lipgloss.Color("#4385BE")
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorText).Align(lipgloss.Center)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	valueStyle  = lipgloss.NewStyle().Foreground(ColorText)
	mutedStyle  = lipgloss.NewStyle().Foreground(ColorTextMuted)
	amountStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	totalStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	warnStyle   = lipgloss.NewStyle().Foreground(ColorOrange)
	overStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorRed)
	dimStyle    = lipgloss.NewStyle().Foreground(ColorTextDim)
)

// separator marks a data row that renders as a horizontal rule.
const separator = "---"

// Table represents a bordered text table for CLI output.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	Widths  []int // optional column widths, auto-calculated if nil
	// Styles overrides the cell style of data rows, keyed by row index.
	Styles map[int]lipgloss.Style
}

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)
	return border.Render(titleStyle.Render(title))
}

func (t Table) columnWidths() []int {
	n := len(t.Headers)
	if n == 0 && len(t.Rows) > 0 {
		n = len(t.Rows[0])
	}
	widths := make([]int, n)
	if t.Widths != nil {
		copy(widths, t.Widths)
		return widths
	}
	measure := func(row []string) {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < n && w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(t.Headers)
	for _, row := range t.Rows {
		if len(row) == 1 && row[0] == separator {
			continue
		}
		measure(row)
	}
	return widths
}

// rule draws a horizontal border such as ╭──┬──╮.
func rule(b *strings.Builder, left, mid, right string, widths []int) {
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w+2)
	}
	b.WriteString(dimStyle.Render(left + strings.Join(parts, mid) + right))
	b.WriteByte('\n')
}

// line draws one row of cells. The first column is left-aligned, the rest
// are numbers and right-aligned.
func line(b *strings.Builder, cells []string, widths []int, style lipgloss.Style) {
	bar := dimStyle.Render("│")
	b.WriteString(bar)
	for i, w := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", max(w-lipgloss.Width(cell), 0))
		if i == 0 {
			b.WriteString(style.Render(" " + cell + pad + " "))
		} else {
			b.WriteString(style.Render(" " + pad + cell + " "))
		}
		b.WriteString(bar)
	}
	b.WriteByte('\n')
}

// RenderTable renders a bordered table with headers and rows. A row made of
// the single cell "---" is drawn as a rule.
func RenderTable(t Table) string {
	if len(t.Rows) == 0 && len(t.Headers) == 0 {
		return ""
	}
	widths := t.columnWidths()

	var b strings.Builder
	if t.Title != "" {
		b.WriteString("  " + headerStyle.Render(t.Title) + "\n")
	}

	rule(&b, "╭", "┬", "╮", widths)
	if len(t.Headers) > 0 {
		line(&b, t.Headers, widths, headerStyle)
		rule(&b, "├", "┼", "┤", widths)
	}
	for r, row := range t.Rows {
		if len(row) == 1 && row[0] == separator {
			rule(&b, "├", "┼", "┤", widths)
			continue
		}
		style, ok := t.Styles[r]
		if !ok {
			style = valueStyle
		}
		line(&b, row, widths, style)
	}
	rule(&b, "╰", "┴", "╯", widths)
	return b.String()
}

// RenderProgressBar renders a simple text progress bar.
func RenderProgressBar(current, total int64, width int) string {
	if total <= 0 {
		return ""
	}
	filled := int(float64(current) / float64(total) * float64(width))
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s/%s", mutedStyle.Render(bar), FormatNumber(current), FormatNumber(total))
}
