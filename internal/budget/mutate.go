package budget

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// leavePreserve is the mode transition shared by per-category edits and by
// every mutator that moves the subtotal or the category set: imported
// amounts stop being authoritative and the next recalc redistributes from
// their percentages, so shares keep summing to 100.
func (e *Engine) leavePreserve() {
	if e.mode == ModePreserveAmounts {
		e.mode = ModePercentage
	}
}

func (e *Engine) category(index int) (*Category, error) {
	if index < 0 || index >= len(e.categories) {
		return nil, fmt.Errorf("%w: index %d", ErrCategoryNotFound, index)
	}
	return &e.categories[index], nil
}

// SetCategoryPercentage sets a category's percentage. The amount override is
// cleared unless the category is percentage-locked.
//
// Mode: ModePreserveAmounts becomes ModePercentage.
func (e *Engine) SetCategoryPercentage(index int, pct decimal.Decimal) error {
	c, err := e.category(index)
	if err != nil {
		return err
	}
	c.Percentage = clamp(pct)
	if c.Lock != LockPercentage {
		c.AmountOverride = nil
	}
	e.leavePreserve()
	log.Debug().Int("index", index).Str("percentage", c.Percentage.String()).Msg("set category percentage")
	e.recalc()
	return nil
}

// SetCategoryAmount records amt as the category's typed amount and derives
// its percentage from the current subtotal.
//
// Mode: ModePreserveAmounts becomes ModePercentage.
func (e *Engine) SetCategoryAmount(index int, amt decimal.Decimal) error {
	c, err := e.category(index)
	if err != nil {
		return err
	}
	amt = clamp(amt)
	c.AmountOverride = &amt
	c.Percentage = shareOf(amt, e.subtotal)
	e.leavePreserve()
	log.Debug().Int("index", index).Str("amount", amt.String()).Msg("set category amount")
	e.recalc()
	return nil
}

// SetLockType changes one category's lock. Unlocking clears its override.
//
// Mode: ModePreserveAmounts becomes ModePercentage.
func (e *Engine) SetLockType(index int, lock LockType) error {
	if !lock.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLockType, lock)
	}
	c, err := e.category(index)
	if err != nil {
		return err
	}
	c.Lock = lock
	if lock == Unlocked {
		c.AmountOverride = nil
	}
	e.leavePreserve()
	log.Debug().Int("index", index).Stringer("lock", lock).Msg("set lock type")
	e.recalc()
	return nil
}

// LockAll applies lock to every category. Passing Unlocked behaves like
// UnlockAll. Mode is left as is.
func (e *Engine) LockAll(lock LockType) error {
	if !lock.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidLockType, lock)
	}
	if lock == Unlocked {
		e.UnlockAll()
		return nil
	}
	for i := range e.categories {
		e.categories[i].Lock = lock
	}
	e.recalc()
	return nil
}

// UnlockAll unlocks every category and clears all overrides. Mode is left
// as is.
func (e *Engine) UnlockAll() {
	for i := range e.categories {
		e.categories[i].Lock = Unlocked
		e.categories[i].AmountOverride = nil
	}
	e.recalc()
}

// SetGrandTotal stores v (floored at zero) and recomputes.
//
// Mode: ModePreserveAmounts becomes ModePercentage.
func (e *Engine) SetGrandTotal(v decimal.Decimal) {
	e.grandTotal = clamp(v)
	e.leavePreserve()
	e.recalc()
}

// SetAdminPct stores v. No computation reads it.
func (e *Engine) SetAdminPct(v decimal.Decimal) {
	e.adminPct = clamp(v)
	e.recalc()
}

// SetContingencyPct stores v. No computation reads it.
func (e *Engine) SetContingencyPct(v decimal.Decimal) {
	e.contingencyPct = clamp(v)
	e.recalc()
}

// SetMode switches the accounting mode explicitly.
func (e *Engine) SetMode(m Mode) error {
	switch m {
	case ModeAmount, ModePercentage, ModePreserveAmounts:
	default:
		return fmt.Errorf("%w: %d", ErrInvalidMode, m)
	}
	e.mode = m
	e.recalc()
	return nil
}

// SetFeeValue replaces a fee's value: a percent for percentage fees, an
// amount for fixed fees.
//
// Mode: ModePreserveAmounts becomes ModePercentage.
func (e *Engine) SetFeeValue(index int, v decimal.Decimal) error {
	if index < 0 || index >= len(e.fees) {
		return fmt.Errorf("%w: index %d", ErrFeeNotFound, index)
	}
	e.fees[index].Value = clamp(v)
	e.leavePreserve()
	e.recalc()
	return nil
}

// AddFee appends a fee and returns its index.
//
// Mode: ModePreserveAmounts becomes ModePercentage, as for RemoveFee,
// AddCategory and RemoveCategory.
func (e *Engine) AddFee(name string, typ FeeType, value decimal.Decimal) (int, error) {
	if typ != FeePercentage && typ != FeeFixed {
		return -1, fmt.Errorf("%w: %q", ErrInvalidFeeType, typ)
	}
	e.fees = append(e.fees, Fee{Name: name, Type: typ, Value: clamp(value)})
	e.leavePreserve()
	e.recalc()
	return len(e.fees) - 1, nil
}

// RemoveFee deletes the fee at index.
func (e *Engine) RemoveFee(index int) error {
	if index < 0 || index >= len(e.fees) {
		return fmt.Errorf("%w: index %d", ErrFeeNotFound, index)
	}
	e.fees = append(e.fees[:index], e.fees[index+1:]...)
	e.leavePreserve()
	e.recalc()
	return nil
}

// AddCategory appends an unlocked category and, when group is not empty,
// adds it to that group (created at the end if needed). It returns the new
// category's index.
func (e *Engine) AddCategory(name, group string) int {
	c := Category{ID: uuid.New(), Name: name}
	e.categories = append(e.categories, c)
	if group != "" {
		placed := false
		for i := range e.groups {
			if e.groups[i].Label == group {
				e.groups[i].Members = append(e.groups[i].Members, c.ID)
				placed = true
				break
			}
		}
		if !placed {
			e.groups = append(e.groups, Group{Label: group, Members: []uuid.UUID{c.ID}})
		}
	}
	e.leavePreserve()
	e.recalc()
	return len(e.categories) - 1
}

// RemoveCategory deletes the category at index and drops it from its groups.
// Other categories keep their group membership.
func (e *Engine) RemoveCategory(index int) error {
	c, err := e.category(index)
	if err != nil {
		return err
	}
	id := c.ID
	e.categories = append(e.categories[:index], e.categories[index+1:]...)
	for i := range e.groups {
		members := e.groups[i].Members[:0]
		for _, m := range e.groups[i].Members {
			if m != id {
				members = append(members, m)
			}
		}
		e.groups[i].Members = members
	}
	e.leavePreserve()
	e.recalc()
	return nil
}

// RenameCategory changes a category's display name.
func (e *Engine) RenameCategory(index int, name string) error {
	c, err := e.category(index)
	if err != nil {
		return err
	}
	c.Name = name
	return nil
}
