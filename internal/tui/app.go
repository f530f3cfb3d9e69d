// Package tui provides the interactive Bubble Tea budget editor.
package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/cli"
	"github.com/theirongolddev/allot/internal/tui/components"
	"github.com/theirongolddev/allot/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SavedMsg reports the outcome of a save.
type SavedMsg struct {
	Err error
}

// CopiedMsg reports the outcome of a clipboard copy.
type CopiedMsg struct {
	Err error
}

// Options wires the editor to its surroundings.
type Options struct {
	// Path is shown in the header.
	Path string
	// Save persists the engine state.
	Save func(*budget.Engine) error
	// Copy places text on the clipboard.
	Copy func(string) error
	// Setup, when non-nil, runs before the editor.
	Setup *SetupValues
}

// editTarget is what the text input currently edits.
type editTarget int

const (
	editNone editTarget = iota
	editPercentage
	editAmount
	editFee
	editGrandTotal
	editName
)

func (e editTarget) prompt() string {
	switch e {
	case editPercentage:
		return "Percentage: "
	case editAmount:
		return "Amount: "
	case editFee:
		return "Fee value: "
	case editGrandTotal:
		return "Grand total: "
	case editName:
		return "Name: "
	}
	return ""
}

// App is the root Bubble Tea model.
type App struct {
	engine *budget.Engine
	opts   Options

	proj      budget.Projection
	rows      []budget.Row
	collapsed map[string]bool
	cursor    int
	offset    int

	editing editTarget
	input   textinput.Model

	dirty    bool
	message  string
	isErr    bool
	showHelp bool

	setupForm *huh.Form

	width  int
	height int
}

const (
	minTerminalWidth = 60
	maxContentWidth  = 140
	// header, cards, bar, table header and status bar
	chromeHeight = 11
)

// NewApp creates the editor over e. The engine is mutated in place.
func NewApp(e *budget.Engine, opts Options) App {
	a := App{
		engine:    e,
		opts:      opts,
		collapsed: make(map[string]bool),
	}
	if opts.Setup != nil {
		a.setupForm = NewSetupForm(opts.Setup)
	}
	a.refresh()
	return a
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnableMouseCellMotion}
	if a.setupForm != nil {
		cmds = append(cmds, a.setupForm.Init())
	}
	return tea.Batch(cmds...)
}

// refresh rebuilds the projection and the visible rows, keeping the cursor
// in range.
func (a *App) refresh() {
	a.proj = a.engine.Projection()
	a.rows = VisibleRows(a.proj, a.collapsed)
	if a.cursor >= len(a.rows) {
		a.cursor = len(a.rows) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

// VisibleRows drops the category rows of collapsed groups.
func VisibleRows(p budget.Projection, collapsed map[string]bool) []budget.Row {
	out := make([]budget.Row, 0, len(p.Rows))
	for _, r := range p.Rows {
		if c, ok := r.(budget.CategoryRow); ok && c.Group != "" && collapsed[c.Group] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func (a App) current() budget.Row {
	if a.cursor < 0 || a.cursor >= len(a.rows) {
		return nil
	}
	return a.rows[a.cursor]
}

func (a *App) setMessage(msg string, err error) {
	if err != nil {
		a.message = err.Error()
		a.isErr = true
		log.Debug().Err(err).Msg("editor action failed")
		return
	}
	a.message = msg
	a.isErr = false
}

// changed records a successful mutation.
func (a *App) changed(msg string) {
	a.dirty = true
	a.refresh()
	a.setMessage(msg, nil)
	if a.engine.OverBudget() {
		a.setMessage("", a.engine.CheckBudget())
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case SavedMsg:
		if msg.Err == nil {
			a.dirty = false
		}
		a.setMessage("saved", msg.Err)
		return a, nil

	case CopiedMsg:
		a.setMessage("copied to clipboard", msg.Err)
		return a, nil

	case tea.MouseMsg:
		if a.setupForm != nil || a.editing != editNone || a.showHelp {
			return a, nil
		}
		return a.updateMouse(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.editing != editNone {
			return a.updateInput(msg)
		}
		return a.updateKey(msg)
	}

	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.editing != editNone {
		var cmd tea.Cmd
		a.input, cmd = a.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}
	switch a.setupForm.State {
	case huh.StateCompleted:
		a.setupForm = nil
		if err := a.opts.Setup.Apply(a.engine); err != nil {
			a.setMessage("", err)
			return a, nil
		}
		a.changed("budget created")
		return a, nil
	case huh.StateAborted:
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q", "esc":
		return a, tea.Quit
	case "j", "down":
		a.move(1)
	case "k", "up":
		a.move(-1)
	case "g", "home":
		a.cursor = 0
	case "G", "end":
		a.cursor = len(a.rows) - 1
	case "enter", " ":
		a.toggleGroup()
	case "p", "%":
		return a.startEdit(editPercentage)
	case "a", "$":
		return a.startEdit(editAmount)
	case "t":
		return a.startEdit(editGrandTotal)
	case "r":
		return a.startEdit(editName)
	case "l":
		a.cycleLock()
	case "L":
		a.setMessage("", a.engine.LockAll(budget.LockAmount))
		if !a.isErr {
			a.changed("all categories locked")
		}
	case "U":
		a.engine.UnlockAll()
		a.changed("all categories unlocked")
	case "m":
		a.cycleMode()
	case "y":
		return a, a.copyCmd()
	case "s", "ctrl+s":
		return a, a.saveCmd()
	}
	a.scrollToCursor()
	return a, nil
}

func (a *App) move(delta int) {
	a.cursor += delta
	if a.cursor < 0 {
		a.cursor = 0
	}
	if a.cursor >= len(a.rows) {
		a.cursor = len(a.rows) - 1
	}
}

func (a *App) scrollToCursor() {
	visible := a.tableHeight()
	if a.cursor < a.offset {
		a.offset = a.cursor
	}
	if a.cursor >= a.offset+visible {
		a.offset = a.cursor - visible + 1
	}
	if a.offset < 0 {
		a.offset = 0
	}
}

func (a App) tableHeight() int {
	h := a.height - chromeHeight
	if h < 3 {
		h = 3
	}
	return h
}

// toggleGroup collapses or expands the group under the cursor.
func (a *App) toggleGroup() {
	var label string
	switch r := a.current().(type) {
	case budget.GroupTotalRow:
		label = r.Label
	case budget.CategoryRow:
		label = r.Group
	}
	if label == "" {
		return
	}
	a.collapsed[label] = !a.collapsed[label]
	a.refresh()
	for i, r := range a.rows {
		if g, ok := r.(budget.GroupTotalRow); ok && g.Label == label {
			a.cursor = i
			break
		}
	}
}

func (a *App) cycleLock() {
	c, ok := a.current().(budget.CategoryRow)
	if !ok {
		return
	}
	next := (c.Lock + 1) % 3
	if err := a.engine.SetLockType(c.Index, next); err != nil {
		a.setMessage("", err)
		return
	}
	a.changed(fmt.Sprintf("%s: %s", c.Description, next))
}

func (a *App) cycleMode() {
	next := (a.engine.Mode() + 1) % 3
	if err := a.engine.SetMode(next); err != nil {
		a.setMessage("", err)
		return
	}
	a.changed("mode: " + next.String())
}

func (a App) startEdit(target editTarget) (tea.Model, tea.Cmd) {
	var value string
	switch r := a.current().(type) {
	case budget.CategoryRow:
		switch target {
		case editPercentage:
			value = r.Percentage.StringFixed(2)
		case editAmount:
			value = r.Amount.StringFixed(0)
		case editName:
			value = r.Description
		}
	case budget.FeeRow:
		if target == editPercentage || target == editAmount {
			target = editFee
			value = r.Value.String()
		}
	}
	if target == editGrandTotal {
		value = a.engine.GrandTotal().StringFixed(0)
	}
	if value == "" && target != editGrandTotal {
		return a, nil
	}

	ti := textinput.New()
	ti.Prompt = target.prompt()
	ti.CharLimit = 64
	ti.Width = 30
	ti.SetValue(value)
	ti.CursorEnd()
	ti.Focus()
	a.input = ti
	a.editing = target
	return a, textinput.Blink
}

func (a App) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.commitEdit(strings.TrimSpace(a.input.Value()))
		a.editing = editNone
		return a, nil
	case "esc":
		a.editing = editNone
		return a, nil
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) commitEdit(raw string) {
	if a.editing == editName {
		c, ok := a.current().(budget.CategoryRow)
		if !ok {
			return
		}
		if err := a.engine.RenameCategory(c.Index, raw); err != nil {
			a.setMessage("", err)
			return
		}
		a.changed("renamed")
		return
	}

	v, err := budget.ParseDecimal(raw)
	if err != nil {
		a.setMessage("", err)
		return
	}

	switch a.editing {
	case editGrandTotal:
		a.engine.SetGrandTotal(v)
		a.changed("grand total " + cli.FormatAmount(v))
	case editFee:
		f, ok := a.current().(budget.FeeRow)
		if !ok {
			return
		}
		if err := a.engine.SetFeeValue(f.Index, v); err != nil {
			a.setMessage("", err)
			return
		}
		a.changed(f.Description + " updated")
	case editPercentage, editAmount:
		c, ok := a.current().(budget.CategoryRow)
		if !ok {
			return
		}
		if a.editing == editPercentage {
			err = a.engine.SetCategoryPercentage(c.Index, v)
		} else {
			err = a.engine.SetCategoryAmount(c.Index, v)
		}
		if err != nil {
			a.setMessage("", err)
			return
		}
		a.changed(c.Description + " updated")
	}
}

func (a App) saveCmd() tea.Cmd {
	save := a.opts.Save
	e := a.engine
	return func() tea.Msg {
		if save == nil {
			return SavedMsg{Err: fmt.Errorf("no budget file to save to")}
		}
		return SavedMsg{Err: save(e)}
	}
}

func (a App) copyCmd() tea.Cmd {
	copyFn := a.opts.Copy
	text := cli.TSV(a.proj)
	return func() tea.Msg {
		if copyFn == nil {
			return CopiedMsg{Err: fmt.Errorf("clipboard unavailable")}
		}
		return CopiedMsg{Err: copyFn(text)}
	}
}

// Dirty reports unsaved changes.
func (a App) Dirty() bool { return a.dirty }

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  allot needs at least %d columns.\n",
			a.width, minTerminalWidth)
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) contentWidth() int {
	if a.width > maxContentWidth {
		return maxContentWidth
	}
	return a.width
}

func (a App) viewMain() string {
	t := theme.Active
	cw := a.contentWidth()

	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)

	header := titleStyle.Render(" ◈ allot") +
		pillStyle.Render(" │ ") + accentStyle.Render(a.proj.Mode.String())
	if a.opts.Path != "" {
		header += pillStyle.Render(" │ " + a.opts.Path)
	}

	s := a.proj.Summary
	remaining := components.Metric{
		Label: "Remaining",
		Value: cli.FormatAmount(s.RemainingAmount),
		Note:  cli.FormatPercent(s.RemainingPercentage) + " %",
	}
	if s.OverBudget {
		remaining.Alert = true
		remaining.Note = "short by " + cli.FormatAmount(s.Shortfall)
	}
	cards := components.MetricRow([]components.Metric{
		{Label: "Grand total", Value: cli.FormatAmount(a.engine.GrandTotal()), Note: "computed " + cli.FormatAmount(s.GrandTotal)},
		{Label: "Subtotal", Value: cli.FormatAmount(s.Subtotal)},
		{Label: "Locked", Value: cli.FormatAmount(s.LockedAmount), Note: cli.FormatPercent(s.LockedPercentage) + " %"},
		remaining,
	}, cw)

	share, _ := s.LockedPercentage.Div(decimal.NewFromInt(100)).Float64()
	bar := " " + components.AllocationBar("Locked share", share, cw-2)

	table := a.renderTable(cw)

	footer := ""
	if a.editing != editNone {
		footer = " " + a.input.View()
	}
	status := components.RenderStatusBar(a.width, a.message, a.isErr, a.dirty)

	body := lipgloss.JoinVertical(lipgloss.Left, header, cards, bar, "", table)
	body = padHeight(truncateHeight(body, a.height-2), a.height-2)
	return lipgloss.JoinVertical(lipgloss.Left, body, footer, status)
}

// rowLabel prefixes collapsed group totals with "+ ".
func (a App) rowLabel(r budget.Row) string {
	switch r := r.(type) {
	case budget.GroupTotalRow:
		if a.collapsed[r.Label] {
			return "+ " + r.Label
		}
		return "- " + r.Label
	case budget.CategoryRow:
		if r.Group != "" {
			return "    " + r.Description
		}
	}
	return cli.ProjectionCells(r)[0]
}

func (a App) rowStyle(r budget.Row) lipgloss.Style {
	t := theme.Active
	st := lipgloss.NewStyle().Foreground(t.TextPrimary)
	switch r := r.(type) {
	case budget.CategoryRow:
		switch {
		case r.OverBudget:
			st = st.Foreground(t.Over)
		case r.Lock.Locked():
			st = st.Foreground(t.Locked)
		}
	case budget.GroupTotalRow:
		st = st.Foreground(t.Group).Bold(true)
	case budget.FeeRow:
		st = st.Foreground(t.Fee)
	case budget.SubtotalRow, budget.GrandTotalRow:
		st = st.Foreground(t.AccentBright).Bold(true)
	}
	return st
}

func (a App) renderTable(width int) string {
	t := theme.Active

	amountW, pctW, lockW := 14, 9, 16
	descW := width - amountW - pctW - lockW - 4
	if descW < 12 {
		descW = 12
	}

	headStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Bold(true)
	line := func(desc, amount, pct, lock string) string {
		return " " + padRight(truncStr(desc, descW), descW) +
			padLeft(amount, amountW) + padLeft(pct, pctW) + "  " + padRight(lock, lockW)
	}

	var b strings.Builder
	b.WriteString(headStyle.Render(line(cli.ProjectionHeaders[0], cli.ProjectionHeaders[1],
		cli.ProjectionHeaders[2], cli.ProjectionHeaders[3])))

	end := a.offset + a.tableHeight()
	if end > len(a.rows) {
		end = len(a.rows)
	}
	for i := a.offset; i < end; i++ {
		r := a.rows[i]
		cells := cli.ProjectionCells(r)
		text := line(a.rowLabel(r), cells[1], cells[2], cells[3])
		st := a.rowStyle(r)
		if i == a.cursor {
			st = st.Background(t.Selected)
		}
		b.WriteString("\n")
		b.WriteString(st.Width(width).Render(text))
	}
	return b.String()
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted)

	bindings := []struct{ key, desc string }{
		{"j k ↑ ↓", "Move"},
		{"Enter", "Collapse / expand group"},
		{"p %", "Edit percentage (or fee value)"},
		{"a $", "Edit amount (or fee value)"},
		{"t", "Edit grand total"},
		{"r", "Rename category"},
		{"l", "Cycle lock"},
		{"L U", "Lock all / unlock all"},
		{"m", "Cycle mode"},
		{"y", "Copy table to clipboard"},
		{"s", "Save"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keys"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-9s", bind.key)), descStyle.Render(bind.desc))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()))
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.move(-1)
	case tea.MouseButtonWheelDown:
		a.move(1)
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		if i := a.rowAtY(msg.Y); i >= 0 {
			if i == a.cursor {
				a.toggleGroup()
			} else {
				a.cursor = i
			}
		}
	}
	a.scrollToCursor()
	return a, nil
}

// rowAtY maps a screen line to a visible row index, or -1. The table
// header sits right above the first row.
func (a App) rowAtY(y int) int {
	first := a.tableTop() + 1
	i := a.offset + y - first
	if y < first || i >= len(a.rows) {
		return -1
	}
	return i
}

// tableTop is the screen line of the table header: title, four card lines,
// the bar and a blank line come first.
func (a App) tableTop() int {
	return 8
}

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func padRight(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return s + strings.Repeat(" ", w-n)
	}
	return s
}

func padLeft(s string, w int) string {
	if n := lipgloss.Width(s); n < w {
		return strings.Repeat(" ", w-n) + s
	}
	return s
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if limit < 1 || len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
