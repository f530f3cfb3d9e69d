package budget

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Row is one line of a Projection. The concrete type is one of CategoryRow,
// GroupTotalRow, SubtotalRow, FeeRow or GrandTotalRow.
type Row interface {
	row()
}

// CategoryRow carries the keys needed to route an edit back to the engine.
type CategoryRow struct {
	Index       int
	ID          uuid.UUID
	Group       string
	Description string
	Amount      decimal.Decimal
	Percentage  decimal.Decimal
	Lock        LockType
	OverBudget  bool
}

// GroupTotalRow follows the members of its group.
type GroupTotalRow struct {
	Label      string
	Amount     decimal.Decimal
	Percentage decimal.Decimal
}

// SubtotalRow has no percentage of its own; it is the 100% base.
type SubtotalRow struct {
	Amount decimal.Decimal
}

// FeeRow shows the fee's value for percentage fees and its share of the
// subtotal for fixed fees.
type FeeRow struct {
	Index       int
	Description string
	Type        FeeType
	Value       decimal.Decimal
	Amount      decimal.Decimal
	Percentage  decimal.Decimal
}

// GrandTotalRow is always the last row.
type GrandTotalRow struct {
	Amount decimal.Decimal
}

func (CategoryRow) row()   {}
func (GroupTotalRow) row() {}
func (SubtotalRow) row()   {}
func (FeeRow) row()        {}
func (GrandTotalRow) row() {}

// Descriptions for the fixed rows.
const (
	SubtotalLabel   = "SUBTOTAL"
	GrandTotalLabel = "GRAND TOTAL"
)

// GroupRows locates a group inside Projection.Rows.
type GroupRows struct {
	Members []int `json:"members"`
	Total   int   `json:"total"`
}

// Projection is a read-only rendering of the engine at one point in time.
// It shares no memory with the engine.
type Projection struct {
	Rows       []Row
	Groups     map[string]GroupRows
	Summary    Summary
	Mode       Mode
	OverBudget bool
}

// Summary is the locked/remaining breakdown shown above the table.
type Summary struct {
	Subtotal            decimal.Decimal `json:"subtotal"`
	GrandTotal          decimal.Decimal `json:"grand_total"`
	LockedAmount        decimal.Decimal `json:"locked_amount"`
	LockedPercentage    decimal.Decimal `json:"locked_percentage"`
	RemainingAmount     decimal.Decimal `json:"remaining_amount"`
	RemainingPercentage decimal.Decimal `json:"remaining_percentage"`
	// Shortfall is how far RemainingAmount is below zero, else zero.
	Shortfall  decimal.Decimal `json:"shortfall"`
	OverBudget bool            `json:"over_budget"`
}

// Summary totals the locked categories against the subtotal.
func (e *Engine) Summary() Summary {
	amt, pct := decimal.Zero, decimal.Zero
	for _, c := range e.categories {
		if c.Lock.Locked() {
			amt = amt.Add(c.Amount)
			pct = pct.Add(c.Percentage)
		}
	}
	remaining := e.subtotal.Sub(amt)
	short := decimal.Zero
	if remaining.IsNegative() {
		short = remaining.Neg()
	}
	return Summary{
		Subtotal:            e.subtotal,
		GrandTotal:          e.computedGrandTotal,
		LockedAmount:        amt,
		LockedPercentage:    pct,
		RemainingAmount:     remaining,
		RemainingPercentage: hundred.Sub(pct),
		Shortfall:           short,
		OverBudget:          e.overBudget,
	}
}

// GroupTotal sums the amounts of the categories at indices. Indices out of
// range are skipped.
func (e *Engine) GroupTotal(indices []int) decimal.Decimal {
	sum := decimal.Zero
	for _, i := range indices {
		if i >= 0 && i < len(e.categories) {
			sum = sum.Add(e.categories[i].Amount)
		}
	}
	return sum
}

// GroupPercentage is GroupTotal as a share of the subtotal.
func (e *Engine) GroupPercentage(indices []int) decimal.Decimal {
	return shareOf(e.GroupTotal(indices), e.subtotal)
}

// Projection lays out the budget table: grouped categories each followed by
// their group total, then ungrouped categories, the subtotal, one row per fee
// and the grand total.
func (e *Engine) Projection() Projection {
	over := make(map[int]bool, len(e.overBudgetRows))
	for _, i := range e.overBudgetRows {
		over[i] = true
	}
	idx := e.indexOf()
	grouped := make(map[int]bool, len(e.categories))

	p := Projection{
		Groups:     make(map[string]GroupRows, len(e.groups)),
		Summary:    e.Summary(),
		Mode:       e.mode,
		OverBudget: e.overBudget,
	}
	catRow := func(i int, group string) CategoryRow {
		c := e.categories[i]
		return CategoryRow{
			Index:       i,
			ID:          c.ID,
			Group:       group,
			Description: c.Name,
			Amount:      c.Amount,
			Percentage:  c.Percentage,
			Lock:        c.Lock,
			OverBudget:  e.overBudget && over[i],
		}
	}

	for _, g := range e.groups {
		var members, indices []int
		for _, id := range g.Members {
			i, ok := idx[id]
			if !ok {
				continue
			}
			grouped[i] = true
			indices = append(indices, i)
			members = append(members, len(p.Rows))
			p.Rows = append(p.Rows, catRow(i, g.Label))
		}
		p.Groups[g.Label] = GroupRows{Members: members, Total: len(p.Rows)}
		p.Rows = append(p.Rows, GroupTotalRow{
			Label:      g.Label,
			Amount:     e.GroupTotal(indices),
			Percentage: e.GroupPercentage(indices),
		})
	}
	for i := range e.categories {
		if !grouped[i] {
			p.Rows = append(p.Rows, catRow(i, ""))
		}
	}

	p.Rows = append(p.Rows, SubtotalRow{Amount: e.subtotal})
	for i, f := range e.fees {
		row := FeeRow{Index: i, Description: f.Name, Type: f.Type, Value: f.Value}
		if f.Type == FeePercentage {
			row.Amount = f.ComputedAmount
			row.Percentage = f.Value
		} else {
			row.Amount = f.Value
			if e.subtotal.IsPositive() {
				row.Percentage = shareOf(f.Value, e.subtotal)
			}
		}
		p.Rows = append(p.Rows, row)
	}
	p.Rows = append(p.Rows, GrandTotalRow{Amount: e.computedGrandTotal})
	return p
}
