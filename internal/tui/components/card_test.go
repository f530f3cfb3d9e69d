package components

import (
	"strings"
	"testing"

	"github.com/theirongolddev/allot/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

func TestLayoutRowSumsToWidth(t *testing.T) {
	for _, n := range []int{1, 3, 4, 7} {
		widths := LayoutRow(100, n)
		sum := 0
		for _, w := range widths {
			sum += w
		}
		if sum != 100 {
			t.Fatalf("LayoutRow(100, %d) sums to %d", n, sum)
		}
		if widths[0] < widths[len(widths)-1] {
			t.Fatalf("LayoutRow(100, %d) = %v, remainder should go first", n, widths)
		}
	}
	if LayoutRow(10, 0) != nil {
		t.Fatal("LayoutRow with no items should be nil")
	}
}

func TestMetricRowWidth(t *testing.T) {
	theme.SetActive("flexoki-dark")

	row := MetricRow([]Metric{
		{Label: "Subtotal", Value: "1 000"},
		{Label: "Remaining", Value: "-500", Note: "short by 500", Alert: true},
		{Label: "Locked", Value: "1 500"},
	}, 90)

	lines := strings.Split(row, "\n")
	for i, line := range lines {
		if w := lipgloss.Width(line); w != 90 {
			t.Errorf("line %d width = %d, want 90", i, w)
		}
	}
	if !strings.Contains(row, "short by 500") {
		t.Error("note missing from card")
	}
}

func TestAllocationBarShowsRealShare(t *testing.T) {
	theme.SetActive("terminal")
	defer theme.SetActive("flexoki-dark")

	out := AllocationBar("Locked", 1.5, 40)
	if !strings.Contains(out, "150%") {
		t.Fatalf("bar should print the unclamped share, got %q", out)
	}
	if ColorForShare(1.5) != theme.Terminal.Over {
		t.Error("over-allocated share should use the over color")
	}
	if ColorForShare(0.2) != theme.Terminal.Good {
		t.Error("small share should use the good color")
	}
}

func TestStatusBarFillsWidth(t *testing.T) {
	bar := RenderStatusBar(80, "saved", false, true)
	if w := lipgloss.Width(bar); w != 80 {
		t.Fatalf("status bar width = %d, want 80", w)
	}
	if !strings.Contains(bar, "modified") {
		t.Error("dirty marker missing")
	}
}
