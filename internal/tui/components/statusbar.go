package components

import (
	"strings"

	"github.com/theirongolddev/allot/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom bar: key hints on the left, the last
// message on the right. Errors use the over-budget color.
func RenderStatusBar(width int, message string, isErr, dirty bool) string {
	t := theme.Active

	style := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface).
		Width(width)
	msgStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)
	if isErr {
		msgStyle = msgStyle.Foreground(t.Over)
	}

	left := " [?]help  [s]ave  [y]copy  [q]uit"
	if dirty {
		left += "  " + lipgloss.NewStyle().Foreground(t.Locked).Background(t.Surface).Render("● modified")
	}
	right := ""
	if message != "" {
		right = msgStyle.Render(message) + " "
	}

	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return style.Render(left + strings.Repeat(" ", padding) + right)
}
