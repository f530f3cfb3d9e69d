package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/allot/internal/budget"
	"github.com/theirongolddev/allot/internal/config"
	"github.com/theirongolddev/allot/internal/tui/theme"

	"github.com/charmbracelet/huh"
	"github.com/shopspring/decimal"
)

// SetupValues collects the answers of the new-budget form.
type SetupValues struct {
	GrandTotal     string
	AdminPct       string
	ContingencyPct string
	UseTemplate    bool

	cfg config.Config
}

// NewSetupValues prefills the form from the configured defaults.
func NewSetupValues(cfg config.Config) *SetupValues {
	return &SetupValues{
		GrandTotal:     decimal.NewFromFloat(cfg.Defaults.GrandTotal).String(),
		AdminPct:       decimal.NewFromFloat(cfg.Defaults.AdminPct).String(),
		ContingencyPct: decimal.NewFromFloat(cfg.Defaults.ContingencyPct).String(),
		UseTemplate:    true,
		cfg:            cfg,
	}
}

func validateNumber(s string) error {
	_, err := budget.ParseDecimal(s)
	return err
}

// NewSetupForm asks for the basics of a new budget.
func NewSetupForm(v *SetupValues) *huh.Form {
	groups := config.GroupTemplates(v.cfg)
	labels := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = g.Label
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("New budget").
				Description("Numbers may use spaces between thousands and a decimal comma."),
			huh.NewInput().
				Title("Grand total").
				Description("Everything, fees included.").
				Value(&v.GrandTotal).
				Validate(validateNumber),
			huh.NewInput().
				Title("Admin %").
				Value(&v.AdminPct).
				Validate(validateNumber),
			huh.NewInput().
				Title("Contingency %").
				Value(&v.ContingencyPct).
				Validate(validateNumber),
			huh.NewConfirm().
				Title("Start from the category template?").
				Description(strings.Join(labels, ", ")).
				Value(&v.UseTemplate),
		),
	).WithShowHelp(false)
}

// Snapshot turns the answers into a starting budget.
func (v *SetupValues) Snapshot() (budget.Snapshot, error) {
	total, err := budget.ParseDecimal(v.GrandTotal)
	if err != nil {
		return budget.Snapshot{}, fmt.Errorf("grand total: %w", err)
	}
	s, err := config.NewBudget(v.cfg, total, v.UseTemplate)
	if err != nil {
		return budget.Snapshot{}, err
	}
	if s.AdminPct, err = budget.ParseDecimal(v.AdminPct); err != nil {
		return budget.Snapshot{}, fmt.Errorf("admin: %w", err)
	}
	if s.ContingencyPct, err = budget.ParseDecimal(v.ContingencyPct); err != nil {
		return budget.Snapshot{}, fmt.Errorf("contingency: %w", err)
	}
	return s, nil
}

// Apply loads the answers into e.
func (v *SetupValues) Apply(e *budget.Engine) error {
	s, err := v.Snapshot()
	if err != nil {
		return err
	}
	return e.Load(s)
}

// ConfigValues collects the answers of the `allot setup` wizard.
type ConfigValues struct {
	BudgetFile      string
	History         bool
	Theme           string
	AdminPct        string
	ContingencyPct  string
	CredentialsFile string
	SpreadsheetID   string
}

// NewConfigValues prefills the wizard from cfg.
func NewConfigValues(cfg config.Config) *ConfigValues {
	return &ConfigValues{
		BudgetFile:      cfg.General.BudgetFile,
		History:         cfg.General.History,
		Theme:           cfg.Appearance.Theme,
		AdminPct:        decimal.NewFromFloat(cfg.Defaults.AdminPct).String(),
		ContingencyPct:  decimal.NewFromFloat(cfg.Defaults.ContingencyPct).String(),
		CredentialsFile: cfg.Google.CredentialsFile,
		SpreadsheetID:   cfg.Google.SpreadsheetID,
	}
}

// NewConfigForm is the first-run wizard.
func NewConfigForm(v *ConfigValues) *huh.Form {
	themes := make([]huh.Option[string], 0, len(theme.All))
	for _, name := range theme.Names() {
		themes = append(themes, huh.NewOption(name, name))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to allot!").
				Description("Let's set up a few things."),
			huh.NewInput().
				Title("Default budget file").
				Value(&v.BudgetFile),
			huh.NewConfirm().
				Title("Keep a revision history of every save?").
				Value(&v.History),
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themes...).
				Value(&v.Theme),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Admin % for new budgets").
				Value(&v.AdminPct).
				Validate(validateNumber),
			huh.NewInput().
				Title("Contingency % for new budgets").
				Value(&v.ContingencyPct).
				Validate(validateNumber),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Google service account file").
				Description("For `allot import --sheet`. Leave blank to skip.").
				Value(&v.CredentialsFile),
			huh.NewInput().
				Title("Default spreadsheet ID").
				Value(&v.SpreadsheetID),
		),
	)
}

// Apply copies the answers into cfg.
func (v *ConfigValues) Apply(cfg *config.Config) error {
	admin, err := budget.ParseDecimal(v.AdminPct)
	if err != nil {
		return fmt.Errorf("admin: %w", err)
	}
	contingency, err := budget.ParseDecimal(v.ContingencyPct)
	if err != nil {
		return fmt.Errorf("contingency: %w", err)
	}

	cfg.General.BudgetFile = strings.TrimSpace(v.BudgetFile)
	cfg.General.History = v.History
	cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	cfg.Defaults.AdminPct = admin.InexactFloat64()
	cfg.Defaults.ContingencyPct = contingency.InexactFloat64()
	cfg.Google.CredentialsFile = strings.TrimSpace(v.CredentialsFile)
	cfg.Google.SpreadsheetID = strings.TrimSpace(v.SpreadsheetID)
	theme.SetActive(cfg.Appearance.Theme)
	return nil
}
