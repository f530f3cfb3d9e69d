// Package sheet imports budgets from spreadsheet rows laid out as
// group, description, amount, percentage.
package sheet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	// ErrMixedMode is returned when category rows mix amounts and percentages.
	ErrMixedMode = errors.New("mixed mode: use either amounts or percentages for every category")
	// ErrNoRows is returned by sources that find nothing to read.
	ErrNoRows = errors.New("sheet has no rows")
)

// FeesPrefix marks fee rows in the group column, compared case-insensitively.
const FeesPrefix = "FEES"

// Column positions.
const (
	colGroup = iota
	colDescription
	colAmount
	colPercentage
)

var hundred = decimal.NewFromInt(100)

// Parsed is the result of a successful scan.
type Parsed struct {
	Categories []budget.Category
	Groups     []budget.Group
	Fees       []budget.Fee
	// AmountMode is set when the sheet carried amounts. GrandTotal is then
	// the category total plus fees; otherwise it is zero and the current
	// grand total should be kept.
	AmountMode bool
	GrandTotal decimal.Decimal
}

// Parse scans rows. The first row is a header. Rows without a group label are
// skipped and unreadable numbers count as 0.
func Parse(rows [][]string) (Parsed, error) {
	var p Parsed
	if len(rows) == 0 {
		return p, nil
	}

	var (
		detected bool
		groupIdx = map[string]int{}
	)
	for n, row := range rows[1:] {
		line := n + 2
		group := strings.TrimSpace(cell(row, colGroup))
		if group == "" {
			continue
		}
		desc := strings.TrimSpace(cell(row, colDescription))
		amount := number(row, colAmount, line)
		pct := number(row, colPercentage, line)

		if strings.HasPrefix(strings.ToUpper(group), FeesPrefix) {
			p.Fees = append(p.Fees, feeFromRow(desc, amount, pct))
			continue
		}

		rowAmountMode := amount.IsPositive()
		if !detected {
			p.AmountMode = rowAmountMode
			detected = true
		} else if rowAmountMode != p.AmountMode {
			return Parsed{}, fmt.Errorf("row %d (%q): %w", line, desc, ErrMixedMode)
		}

		c := budget.Category{ID: uuid.New(), Name: desc, Amount: amount, Percentage: pct}
		p.Categories = append(p.Categories, c)
		gi, ok := groupIdx[group]
		if !ok {
			gi = len(p.Groups)
			groupIdx[group] = gi
			p.Groups = append(p.Groups, budget.Group{Label: group})
		}
		p.Groups[gi].Members = append(p.Groups[gi].Members, c.ID)
	}

	if p.AmountMode {
		p.normalizeAmounts()
	}
	log.Debug().
		Int("categories", len(p.Categories)).
		Int("groups", len(p.Groups)).
		Int("fees", len(p.Fees)).
		Bool("amount_mode", p.AmountMode).
		Msg("sheet parsed")
	return p, nil
}

// feeFromRow builds a fee. No amount means a percentage fee, and a
// percentage below 1 is read as a fraction.
func feeFromRow(name string, amount, pct decimal.Decimal) budget.Fee {
	if amount.IsZero() {
		if pct.LessThan(decimal.NewFromInt(1)) {
			pct = pct.Mul(hundred)
		}
		return budget.Fee{Name: name, Type: budget.FeePercentage, Value: pct}
	}
	return budget.Fee{Name: name, Type: budget.FeeFixed, Value: amount}
}

// normalizeAmounts makes the imported amounts authoritative: percentages
// become shares of the category total, fixed fees become the equivalent
// percentage of that total and the grand total is rebuilt on top.
func (p *Parsed) normalizeAmounts() {
	total := decimal.Zero
	for _, c := range p.Categories {
		total = total.Add(c.Amount)
	}
	if total.IsPositive() {
		for i := range p.Categories {
			p.Categories[i].Percentage = p.Categories[i].Amount.Div(total).Mul(hundred)
		}
	}
	grand := total
	for i := range p.Fees {
		f := &p.Fees[i]
		if f.Type == budget.FeeFixed {
			if total.IsPositive() {
				f.Value = f.Value.Div(total).Mul(hundred)
			}
			f.Type = budget.FeePercentage
		}
		grand = grand.Add(total.Mul(f.Value).Div(hundred))
	}
	p.GrandTotal = grand
}

// Apply lays the parsed collections over base. Amount-mode sheets switch
// the budget to preserved amounts and replace the grand total; percentage
// sheets keep base's grand total.
func (p Parsed) Apply(base budget.Snapshot) budget.Snapshot {
	s := base.Clone()
	s.Categories = p.Categories
	s.Groups = p.Groups
	s.Fees = p.Fees
	if p.AmountMode {
		s.Mode = budget.ModePreserveAmounts
		s.GrandTotal = p.GrandTotal
	} else {
		s.Mode = budget.ModePercentage
	}
	return s.Clone()
}

// Import parses rows and loads them into e. On any error e is left as it was.
func Import(e *budget.Engine, rows [][]string) error {
	p, err := Parse(rows)
	if err != nil {
		return err
	}
	if err := e.Load(p.Apply(e.Snapshot())); err != nil {
		return fmt.Errorf("loading imported budget: %w", err)
	}
	return nil
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func number(row []string, col, line int) decimal.Decimal {
	raw := cell(row, col)
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero
	}
	d, err := budget.ParseDecimal(raw)
	if err != nil {
		log.Debug().Int("row", line).Int("col", col+1).Str("value", raw).Msg("unreadable number, using 0")
		return decimal.Zero
	}
	return d
}
