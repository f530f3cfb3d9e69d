package components

import (
	"fmt"

	"github.com/theirongolddev/allot/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// ColorForShare picks the bar color for a locked share of the subtotal.
func ColorForShare(share float64) lipgloss.Color {
	t := theme.Active
	switch {
	case share > 1:
		return t.Over
	case share >= 0.9:
		return t.Locked
	default:
		return t.Good
	}
}

// AllocationBar shows how much of the subtotal is taken by locked rows.
// Shares above 1 draw a full bar with the real percentage.
func AllocationBar(label string, share float64, width int) string {
	t := theme.Active

	fill := share
	if fill < 0 {
		fill = 0
	}
	if fill > 1 {
		fill = 1
	}

	barW := width - lipgloss.Width(label) - 8
	if barW < 4 {
		barW = 4
	}
	color := ColorForShare(share)
	bar := progress.New(
		progress.WithSolidFill(string(color)),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted)
	pctStyle := lipgloss.NewStyle().Foreground(color).Bold(true)

	return labelStyle.Render(label) + " " + bar.ViewAs(fill) + " " +
		pctStyle.Render(fmt.Sprintf("%3.0f%%", share*100))
}
