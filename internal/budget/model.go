// Package budget implements the allocation engine: it distributes a grand total
// across categories under per-category locks, computes fees and flags overruns.
package budget

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LockType constrains how a category takes part in redistribution.
type LockType int

const (
	Unlocked       LockType = 0
	LockAmount     LockType = 1
	LockPercentage LockType = 2
)

// String returns the label shown in tables and lock pickers.
func (l LockType) String() string {
	switch l {
	case Unlocked:
		return "Unlocked"
	case LockAmount:
		return "Lock Amount"
	case LockPercentage:
		return "Lock Percentage"
	}
	return fmt.Sprintf("LockType(%d)", int(l))
}

// Valid reports whether l is one of the known lock types.
func (l LockType) Valid() bool {
	return l >= Unlocked && l <= LockPercentage
}

// Locked is true for LockAmount and LockPercentage.
func (l LockType) Locked() bool {
	return l == LockAmount || l == LockPercentage
}

// ParseLockType accepts the numeric form (0, 1, 2) or a name such as
// "none", "amount" or "percentage".
func ParseLockType(s string) (LockType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "none", "unlocked", "unlock", "free":
		return Unlocked, nil
	case "1", "amount", "amt":
		return LockAmount, nil
	case "2", "percentage", "percent", "pct", "%":
		return LockPercentage, nil
	}
	return Unlocked, fmt.Errorf("%w: %q", ErrInvalidLockType, s)
}

// FeeType selects how a fee's value is interpreted.
type FeeType string

const (
	FeePercentage FeeType = "percentage"
	FeeFixed      FeeType = "fixed"
)

// ParseFeeType is case-insensitive. An empty string means FeePercentage.
func ParseFeeType(s string) (FeeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percentage", "percent", "pct", "%":
		return FeePercentage, nil
	case "fixed", "amount":
		return FeeFixed, nil
	}
	return FeePercentage, fmt.Errorf("%w: %q", ErrInvalidFeeType, s)
}

// Mode decides which of amount and percentage is the authoritative input for
// categories.
type Mode int

const (
	// ModeAmount treats category amounts as input and derives percentages.
	ModeAmount Mode = iota
	// ModePercentage treats percentages as input and redistributes amounts
	// under the lock rules.
	ModePercentage
	// ModePreserveAmounts keeps amounts exactly as they were imported while
	// the subtotal is derived the percentage way. Editing a category leaves
	// this mode for ModePercentage.
	ModePreserveAmounts
)

func (m Mode) String() string {
	switch m {
	case ModeAmount:
		return "amount"
	case ModePercentage:
		return "percentage"
	case ModePreserveAmounts:
		return "preserve-amounts"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses the names produced by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "amount":
		return ModeAmount, nil
	case "percentage":
		return ModePercentage, nil
	case "preserve-amounts", "preserve":
		return ModePreserveAmounts, nil
	}
	return ModeAmount, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Category is one named budget line.
type Category struct {
	ID         uuid.UUID
	Name       string
	Percentage decimal.Decimal
	Amount     decimal.Decimal
	// AmountOverride is set when a user types an amount directly.
	AmountOverride *decimal.Decimal
	Lock           LockType
}

func (c Category) clone() Category {
	if c.AmountOverride != nil {
		o := *c.AmountOverride
		c.AmountOverride = &o
	}
	return c
}

// Fee is layered on top of the subtotal. It is never locked.
type Fee struct {
	Name string
	Type FeeType
	// Value is a whole-number percent for FeePercentage (5 means 5%) and a
	// currency amount for FeeFixed.
	Value          decimal.Decimal
	ComputedAmount decimal.Decimal
}

// Group labels an ordered set of categories for subtotal display. Members
// are category IDs, so reordering or removing categories never points a
// group at the wrong line.
type Group struct {
	Label   string
	Members []uuid.UUID
}

func (g Group) clone() Group {
	g.Members = append([]uuid.UUID(nil), g.Members...)
	return g
}

// Snapshot is a detached copy of the engine's input state. Derived fields
// inside it are informational only: Engine.Load always recomputes them.
type Snapshot struct {
	GrandTotal     decimal.Decimal
	AdminPct       decimal.Decimal
	ContingencyPct decimal.Decimal
	Mode           Mode
	Categories     []Category
	Groups         []Group
	Fees           []Fee
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Categories = make([]Category, len(s.Categories))
	for i, c := range s.Categories {
		out.Categories[i] = c.clone()
	}
	out.Groups = make([]Group, len(s.Groups))
	for i, g := range s.Groups {
		out.Groups[i] = g.clone()
	}
	out.Fees = append([]Fee(nil), s.Fees...)
	return out
}
