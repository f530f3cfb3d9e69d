package cli

import (
	"strings"
	"testing"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"999", "999"},
		{"1000", "1 000"},
		{"1234567.5", "1 234 568"},
		{"2.5", "2"},
		{"-15000", "-15 000"},
	}
	for _, tt := range tests {
		if got := FormatAmount(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatAmount(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"12.5", "12,50"},
		{"33.333333", "33,33"},
		{"0", "0,00"},
		{"100", "100,00"},
	}
	for _, tt := range tests {
		if got := FormatPercent(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("FormatPercent(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatNumberAndDuration(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatNumber(1234567))
	assert.Equal(t, "45s", FormatDuration(45))
	assert.Equal(t, "1h 2m", FormatDuration(3725))
	assert.Equal(t, "2d 3h", FormatDuration(2*86400+3*3600))
	assert.Equal(t, "+1 500", FormatDelta(decimal.NewFromInt(2500), decimal.NewFromInt(1000)))
	assert.Equal(t, "-500", FormatDelta(decimal.NewFromInt(500), decimal.NewFromInt(1000)))
}

func sampleProjection(t *testing.T) budget.Projection {
	t.Helper()
	e := budget.New(decimal.Zero)
	require.NoError(t, e.Load(budget.Snapshot{
		GrandTotal: decimal.NewFromInt(1100),
		Mode:       budget.ModePercentage,
		Categories: []budget.Category{
			{Name: "Writer", Percentage: decimal.NewFromInt(60)},
			{Name: "Editor", Percentage: decimal.NewFromInt(40), Lock: budget.LockPercentage},
		},
		Fees: []budget.Fee{{Name: "Agency", Type: budget.FeePercentage, Value: decimal.NewFromInt(10)}},
	}))
	return e.Projection()
}

func TestTSV(t *testing.T) {
	got := TSV(sampleProjection(t))
	want := strings.Join([]string{
		"Writer\t600\t60,00\tUnlocked",
		"Editor\t400\t40,00\tLock Percentage",
		"SUBTOTAL\t1 000\t100,00\t",
		"Agency\t100\t10,00\t",
		"GRAND TOTAL\t1 100\t\t",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestProjectionTable(t *testing.T) {
	tbl := ProjectionTable("Budget", sampleProjection(t))
	require.Len(t, tbl.Rows, 7, "two separators are added")
	assert.Equal(t, []string{"0", "Writer", "600", "60,00", "Unlocked"}, tbl.Rows[0])
	assert.Equal(t, []string{"---"}, tbl.Rows[2])
	assert.Equal(t, "f0", tbl.Rows[4][0])
	_, styled := tbl.Styles[1]
	assert.True(t, styled, "locked rows are highlighted")

	out := RenderTable(tbl)
	assert.Contains(t, out, "GRAND TOTAL")
	assert.Contains(t, out, "1 100")
}

func TestRenderSummaryOverBudget(t *testing.T) {
	out := RenderSummary(budget.Summary{
		Subtotal:         decimal.NewFromInt(1000),
		LockedAmount:     decimal.NewFromInt(1500),
		LockedPercentage: decimal.NewFromInt(150),
		RemainingAmount:  decimal.NewFromInt(-500),
		Shortfall:        decimal.NewFromInt(500),
		OverBudget:       true,
	})
	assert.Contains(t, out, "Over budget by 500.")
	assert.Contains(t, out, "1 500")
}

func TestRenderTableLayout(t *testing.T) {
	out := RenderTable(Table{
		Headers: []string{"Name", "Amount"},
		Rows:    [][]string{{"Catering", "12"}, {separator}, {"Total", "1 200"}},
	})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "╭"))
	assert.Contains(t, lines[2], "┼")
	assert.Contains(t, lines[4], "┼", "separator rows become rules")
	assert.True(t, strings.HasPrefix(lines[6], "╰"))
	assert.Contains(t, lines[3], "Catering")
	assert.Contains(t, lines[3], "   12 ", "numbers are right-aligned")

	assert.Empty(t, RenderTable(Table{}))
}

func TestRenderProgressBar(t *testing.T) {
	assert.Empty(t, RenderProgressBar(1, 0, 10))
	assert.Contains(t, RenderProgressBar(2500, 10000, 8), "2,500/10,000")
	assert.Contains(t, RenderProgressBar(20, 10, 4), "████")
}
