package tui

import (
	"errors"
	"strings"
	"testing"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/cli"
	"github.com/theirongolddev/allot/internal/config"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Rows: 0 Editing, 1 Post total, 2 Director, 3 Lighting, 4 Crew total,
// 5 Catering, 6 subtotal, 7 Agency, 8 grand total.
func testEngine(t *testing.T) *budget.Engine {
	t.Helper()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New(), uuid.New()}
	e := budget.New(decimal.Zero)
	require.NoError(t, e.Load(budget.Snapshot{
		GrandTotal: decimal.NewFromInt(2200),
		Mode:       budget.ModePercentage,
		Categories: []budget.Category{
			{ID: ids[0], Name: "Director", Percentage: decimal.NewFromInt(25)},
			{ID: ids[1], Name: "Lighting", Percentage: decimal.NewFromInt(25)},
			{ID: ids[2], Name: "Editing", Percentage: decimal.NewFromInt(40)},
			{ID: ids[3], Name: "Catering", Percentage: decimal.NewFromInt(10)},
		},
		Groups: []budget.Group{
			{Label: "Post", Members: []uuid.UUID{ids[2]}},
			{Label: "Crew", Members: []uuid.UUID{ids[0], ids[1]}},
		},
		Fees: []budget.Fee{{Name: "Agency", Type: budget.FeePercentage, Value: decimal.NewFromInt(10)}},
	}))
	return e
}

func newTestApp(t *testing.T, opts Options) App {
	t.Helper()
	m, _ := NewApp(testEngine(t), opts).Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m.(App)
}

func press(t *testing.T, a App, keys ...string) (App, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var m tea.Model
		m, cmd = a.Update(msg)
		a = m.(App)
	}
	return a, cmd
}

func TestCollapseGroup(t *testing.T) {
	a := newTestApp(t, Options{})
	require.Len(t, a.rows, 9)

	a, _ = press(t, a, "j", "j", "enter") // on Director
	assert.Len(t, a.rows, 7, "Crew members are hidden")
	g, ok := a.current().(budget.GroupTotalRow)
	require.True(t, ok, "cursor moves to the group total")
	assert.Equal(t, "Crew", g.Label)
	assert.Equal(t, "+ Crew", a.rowLabel(g))

	a, _ = press(t, a, "enter")
	assert.Len(t, a.rows, 9)
	assert.Equal(t, "- Crew", a.rowLabel(a.current()))
}

func TestEditPercentage(t *testing.T) {
	a := newTestApp(t, Options{})
	a, _ = press(t, a, "j", "j", "p")
	require.Equal(t, editPercentage, a.editing)
	assert.Equal(t, "25.00", a.input.Value())

	a.input.SetValue("50")
	a, _ = press(t, a, "enter")
	assert.Equal(t, editNone, a.editing)
	assert.True(t, a.Dirty())

	// 50 of a desired 125 is rescaled to 40% of the 2000 subtotal.
	c := a.engine.Categories()[0]
	assert.Equal(t, "800", c.Amount.StringFixed(0))
	assert.Equal(t, "40.00", c.Percentage.StringFixed(2))
}

func TestEditRejectsGarbage(t *testing.T) {
	a := newTestApp(t, Options{})
	a, _ = press(t, a, "t")
	a.input.SetValue("lots")
	a, _ = press(t, a, "enter")
	assert.True(t, a.isErr)
	assert.False(t, a.Dirty())
	assert.Equal(t, "2200", a.engine.GrandTotal().String())
}

func TestEditFeeFromFeeRow(t *testing.T) {
	a := newTestApp(t, Options{})
	a, _ = press(t, a, "G", "k")
	_, ok := a.current().(budget.FeeRow)
	require.True(t, ok)

	a, _ = press(t, a, "a")
	require.Equal(t, editFee, a.editing)
	a.input.SetValue("20")
	a, _ = press(t, a, "enter")
	assert.Equal(t, "20", a.engine.Fees()[0].Value.String())
}

func TestEscCancelsEdit(t *testing.T) {
	a := newTestApp(t, Options{})
	a, _ = press(t, a, "r")
	a.input.SetValue("Renamed")
	a, _ = press(t, a, "esc")
	assert.Equal(t, editNone, a.editing)
	assert.Equal(t, "Editing", a.engine.Categories()[2].Name)
}

func TestCycleLockAndOverBudget(t *testing.T) {
	a := newTestApp(t, Options{})
	a, _ = press(t, a, "j", "j", "l")
	assert.Equal(t, budget.LockAmount, a.engine.Categories()[0].Lock)

	a, _ = press(t, a, "a")
	a.input.SetValue("2500")
	a, _ = press(t, a, "enter")
	assert.True(t, a.engine.OverBudget())
	assert.True(t, a.isErr)
	assert.Contains(t, a.message, "short by 500")
}

func TestSaveAndCopy(t *testing.T) {
	var saved int
	var copied string
	a := newTestApp(t, Options{
		Save: func(*budget.Engine) error { saved++; return nil },
		Copy: func(s string) error { copied = s; return nil },
	})

	a, _ = press(t, a, "U")
	require.True(t, a.Dirty())

	a, cmd := press(t, a, "s")
	require.NotNil(t, cmd)
	m, _ := a.Update(cmd())
	a = m.(App)
	assert.Equal(t, 1, saved)
	assert.False(t, a.Dirty())
	assert.Equal(t, "saved", a.message)

	a, cmd = press(t, a, "y")
	require.NotNil(t, cmd)
	m, _ = a.Update(cmd())
	a = m.(App)
	assert.Equal(t, cli.TSV(a.engine.Projection()), copied)
	assert.Equal(t, "copied to clipboard", a.message)
}

func TestSaveFailureKeepsDirty(t *testing.T) {
	a := newTestApp(t, Options{Save: func(*budget.Engine) error { return errors.New("disk full") }})
	a, _ = press(t, a, "U")
	a, cmd := press(t, a, "s")
	m, _ := a.Update(cmd())
	a = m.(App)
	assert.True(t, a.Dirty())
	assert.Equal(t, "disk full", a.message)
}

func TestMouseSelectsAndToggles(t *testing.T) {
	a := newTestApp(t, Options{})
	first := a.tableTop() + 1
	assert.Equal(t, -1, a.rowAtY(first-1))
	assert.Equal(t, 0, a.rowAtY(first))

	click := tea.MouseMsg{X: 5, Y: first + 2, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
	m, _ := a.Update(click)
	a = m.(App)
	assert.Equal(t, 2, a.cursor)

	m, _ = a.Update(click)
	a = m.(App)
	assert.Len(t, a.rows, 7, "a second click collapses the group")
}

func TestViewRendersTable(t *testing.T) {
	a := newTestApp(t, Options{Path: "film.json"})
	out := a.View()
	assert.Contains(t, out, "film.json")
	assert.Contains(t, out, "GRAND TOTAL")
	assert.Contains(t, out, "Director")

	a, _ = press(t, a, "?")
	assert.Contains(t, a.View(), "Cycle lock")

	narrow, _ := a.Update(tea.WindowSizeMsg{Width: 40, Height: 20})
	assert.True(t, strings.Contains(narrow.View(), "too narrow"))
}

func TestSetupValuesSnapshot(t *testing.T) {
	cfg := config.DefaultConfig()
	v := NewSetupValues(cfg)
	v.GrandTotal = "1 000 000"
	v.UseTemplate = false

	s, err := v.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "1000000", s.GrandTotal.String())
	assert.Equal(t, "5", s.AdminPct.String())
	assert.Empty(t, s.Categories)

	v.AdminPct = "five"
	_, err = v.Snapshot()
	assert.Error(t, err)
}

func TestConfigValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	v := NewConfigValues(cfg)
	v.Theme = "tokyo-night"
	v.ContingencyPct = "12,5"
	v.SpreadsheetID = " sheet-1 "

	require.NoError(t, v.Apply(&cfg))
	assert.Equal(t, "tokyo-night", cfg.Appearance.Theme)
	assert.InDelta(t, 12.5, cfg.Defaults.ContingencyPct, 1e-9)
	assert.Equal(t, "sheet-1", cfg.Google.SpreadsheetID)
}
