package budget

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// overBudgetTolerance is how far locked allocations may exceed the subtotal
// before the budget is flagged, in currency units.
var overBudgetTolerance = decimal.NewFromInt(1)

// Engine owns the categories, fees and groups of one budget together with
// every derived total. Each mutator runs a full recompute before it returns.
//
// An Engine is not safe for concurrent use; callers that share one must
// serialize access themselves.
type Engine struct {
	grandTotal     decimal.Decimal
	adminPct       decimal.Decimal
	contingencyPct decimal.Decimal
	mode           Mode

	categories []Category
	groups     []Group
	fees       []Fee

	subtotal           decimal.Decimal
	computedGrandTotal decimal.Decimal
	overBudget         bool
	overBudgetRows     []int
}

// New returns an empty engine in ModePercentage.
func New(grandTotal decimal.Decimal) *Engine {
	e := &Engine{
		grandTotal: clamp(grandTotal),
		mode:       ModePercentage,
	}
	e.recalc()
	return e
}

// Load replaces all engine state with s and recomputes. Categories without
// an ID get a fresh one. Nothing changes when s is rejected.
func (e *Engine) Load(s Snapshot) error {
	s = s.Clone()

	seen := make(map[uuid.UUID]struct{}, len(s.Categories))
	for i := range s.Categories {
		c := &s.Categories[i]
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		if _, dup := seen[c.ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateCategory, c.ID)
		}
		seen[c.ID] = struct{}{}
		if !c.Lock.Valid() {
			return fmt.Errorf("category %q: %w: %d", c.Name, ErrInvalidLockType, c.Lock)
		}
	}
	for _, g := range s.Groups {
		for _, id := range g.Members {
			if _, ok := seen[id]; !ok {
				return fmt.Errorf("group %q: %w: %s", g.Label, ErrUnknownGroupMember, id)
			}
		}
	}
	for i := range s.Fees {
		if s.Fees[i].Type != FeePercentage && s.Fees[i].Type != FeeFixed {
			return fmt.Errorf("fee %q: %w: %q", s.Fees[i].Name, ErrInvalidFeeType, s.Fees[i].Type)
		}
	}
	switch s.Mode {
	case ModeAmount, ModePercentage, ModePreserveAmounts:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidMode, s.Mode)
	}

	e.grandTotal = clamp(s.GrandTotal)
	e.adminPct = clamp(s.AdminPct)
	e.contingencyPct = clamp(s.ContingencyPct)
	e.mode = s.Mode
	e.categories = s.Categories
	e.groups = s.Groups
	e.fees = s.Fees
	e.recalc()
	return nil
}

// Snapshot returns a deep copy of the current state, derived fields included.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		GrandTotal:     e.grandTotal,
		AdminPct:       e.adminPct,
		ContingencyPct: e.contingencyPct,
		Mode:           e.mode,
		Categories:     e.categories,
		Groups:         e.groups,
		Fees:           e.fees,
	}.Clone()
}

// Recalc recomputes every derived field. Mutators already call it.
func (e *Engine) Recalc() { e.recalc() }

func (e *Engine) recalc() {
	e.subtotal = e.deriveSubtotal()
	log.Debug().
		Str("grand_total", e.grandTotal.String()).
		Str("subtotal", e.subtotal.String()).
		Stringer("mode", e.mode).
		Msg("recalc")

	switch e.mode {
	case ModePreserveAmounts, ModeAmount:
		for i := range e.categories {
			c := &e.categories[i]
			if e.mode == ModeAmount && c.AmountOverride != nil {
				c.Amount = *c.AmountOverride
			}
			c.Percentage = shareOf(c.Amount, e.subtotal)
		}
	default:
		e.redistribute()
	}

	total := decimal.Zero
	for i := range e.fees {
		f := &e.fees[i]
		if f.Type == FeePercentage {
			f.ComputedAmount = portion(e.subtotal, f.Value)
		} else {
			f.ComputedAmount = f.Value
		}
		total = total.Add(f.ComputedAmount)
	}
	e.computedGrandTotal = e.subtotal.Add(total)

	e.checkOverBudget()
}

func (e *Engine) deriveSubtotal() decimal.Decimal {
	if len(e.fees) == 0 {
		return e.grandTotal
	}
	if e.mode == ModeAmount {
		sum := decimal.Zero
		for _, c := range e.categories {
			amt := c.Amount
			if c.AmountOverride != nil {
				amt = *c.AmountOverride
			}
			sum = sum.Add(amt)
		}
		return sum
	}

	// The grand total already contains the fees, so invert
	// grand = subtotal×(1+Σpct/100) + Σfixed.
	fixed, pct := decimal.Zero, decimal.Zero
	for _, f := range e.fees {
		if f.Type == FeeFixed {
			fixed = fixed.Add(f.Value)
		} else {
			pct = pct.Add(f.Value)
		}
	}
	denom := decimal.NewFromInt(1).Add(pct.Div(hundred))
	if denom.IsZero() {
		return decimal.Zero
	}
	return roundUnits(e.grandTotal.Sub(fixed).Div(denom))
}

// redistribute applies the lock rules, then shares what is left among the
// unlocked categories in proportion to their current percentages.
func (e *Engine) redistribute() {
	lockedPct := decimal.Zero
	var unlocked []int
	for i := range e.categories {
		c := &e.categories[i]
		switch c.Lock {
		case LockAmount:
			if c.AmountOverride != nil {
				c.Amount = *c.AmountOverride
			}
			c.Percentage = shareOf(c.Amount, e.subtotal)
			lockedPct = lockedPct.Add(c.Percentage)
		case LockPercentage:
			c.Amount = portion(e.subtotal, c.Percentage)
			lockedPct = lockedPct.Add(c.Percentage)
		default:
			unlocked = append(unlocked, i)
		}
	}
	if len(unlocked) == 0 {
		return
	}

	available := hundred.Sub(lockedPct)
	desired := decimal.Zero
	for _, i := range unlocked {
		desired = desired.Add(e.categories[i].Percentage)
	}
	for _, i := range unlocked {
		c := &e.categories[i]
		if desired.Sign() <= 0 {
			c.Percentage = available.Div(decimal.NewFromInt(int64(len(unlocked))))
		} else {
			c.Percentage = c.Percentage.Div(desired).Mul(available)
		}
		c.Amount = portion(e.subtotal, c.Percentage)
	}
}

func (e *Engine) checkOverBudget() {
	fixed := decimal.Zero
	var rows []int
	for i, c := range e.categories {
		if c.Lock.Locked() {
			fixed = fixed.Add(c.Amount)
			rows = append(rows, i)
		}
	}
	if fixed.GreaterThan(e.subtotal.Add(overBudgetTolerance)) {
		e.overBudget = true
		e.overBudgetRows = rows
		log.Debug().
			Str("fixed", fixed.String()).
			Str("subtotal", e.subtotal.String()).
			Ints("rows", rows).
			Msg("over budget")
		return
	}
	e.overBudget = false
	e.overBudgetRows = nil
}

// CheckBudget returns ErrOverBudget when locked allocations exceed the
// subtotal beyond the tolerance.
func (e *Engine) CheckBudget() error {
	if !e.overBudget {
		return nil
	}
	s := e.Summary()
	return fmt.Errorf("%w: short by %s", ErrOverBudget, s.Shortfall.StringFixed(0))
}

// GrandTotal is the user-entered grand total.
func (e *Engine) GrandTotal() decimal.Decimal { return e.grandTotal }

// AdminPct is stored and persisted but not used by any computation.
func (e *Engine) AdminPct() decimal.Decimal { return e.adminPct }

// ContingencyPct is stored and persisted but not used by any computation.
func (e *Engine) ContingencyPct() decimal.Decimal { return e.contingencyPct }

func (e *Engine) Mode() Mode                          { return e.mode }
func (e *Engine) Subtotal() decimal.Decimal           { return e.subtotal }
func (e *Engine) ComputedGrandTotal() decimal.Decimal { return e.computedGrandTotal }
func (e *Engine) OverBudget() bool                    { return e.overBudget }

// OverBudgetRows returns the indices of locked categories while the budget
// is over, nil otherwise.
func (e *Engine) OverBudgetRows() []int {
	return append([]int(nil), e.overBudgetRows...)
}

// Categories returns a copy of the category list.
func (e *Engine) Categories() []Category {
	out := make([]Category, len(e.categories))
	for i, c := range e.categories {
		out[i] = c.clone()
	}
	return out
}

// Fees returns a copy of the fee list.
func (e *Engine) Fees() []Fee {
	return append([]Fee(nil), e.fees...)
}

// Groups returns a copy of the group list.
func (e *Engine) Groups() []Group {
	out := make([]Group, len(e.groups))
	for i, g := range e.groups {
		out[i] = g.clone()
	}
	return out
}

// indexOf maps category IDs to positions.
func (e *Engine) indexOf() map[uuid.UUID]int {
	idx := make(map[uuid.UUID]int, len(e.categories))
	for i, c := range e.categories {
		idx[c.ID] = i
	}
	return idx
}
