package config

import (
	"fmt"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NewBudget builds the starting state of a budget from the configured
// defaults: template groups with an equal split, fee presets, admin and
// contingency. A zero grandTotal falls back to Defaults.GrandTotal.
func NewBudget(cfg Config, grandTotal decimal.Decimal, withGroups bool) (budget.Snapshot, error) {
	d := cfg.Defaults
	if grandTotal.IsZero() {
		grandTotal = decimal.NewFromFloat(d.GrandTotal)
	}
	mode := budget.ModePercentage
	if d.Mode != "" {
		m, err := budget.ParseMode(d.Mode)
		if err != nil {
			return budget.Snapshot{}, fmt.Errorf("defaults.mode: %w", err)
		}
		mode = m
	}

	s := budget.Snapshot{
		GrandTotal:     grandTotal,
		AdminPct:       decimal.NewFromFloat(d.AdminPct),
		ContingencyPct: decimal.NewFromFloat(d.ContingencyPct),
		Mode:           mode,
	}

	if withGroups {
		for _, tpl := range GroupTemplates(cfg) {
			g := budget.Group{Label: tpl.Label}
			for _, name := range tpl.Categories {
				c := budget.Category{ID: uuid.New(), Name: name}
				s.Categories = append(s.Categories, c)
				g.Members = append(g.Members, c.ID)
			}
			s.Groups = append(s.Groups, g)
		}
	}

	for _, f := range d.Fees {
		typ, err := budget.ParseFeeType(f.Type)
		if err != nil {
			return budget.Snapshot{}, fmt.Errorf("fee preset %q: %w", f.Name, err)
		}
		s.Fees = append(s.Fees, budget.Fee{Name: f.Name, Type: typ, Value: decimal.NewFromFloat(f.Value)})
	}
	return s, nil
}
