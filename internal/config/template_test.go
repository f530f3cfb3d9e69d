package config

import (
	"testing"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/shopspring/decimal"
)

func TestNewBudgetFromDefaults(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.GrandTotal = 1000
	cfg.Defaults.Fees = []FeePreset{{Name: "Agency", Type: "", Value: 10}}

	s, err := NewBudget(cfg, decimal.Zero, true)
	if err != nil {
		t.Fatalf("NewBudget: %v", err)
	}
	if !s.GrandTotal.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("grand total = %s, want 1000", s.GrandTotal)
	}
	if len(s.Groups) != 4 || len(s.Categories) != 21 {
		t.Fatalf("groups/categories = %d/%d, want 4/21", len(s.Groups), len(s.Categories))
	}
	if s.Groups[1].Members[0] != s.Categories[4].ID {
		t.Fatal("second group should start with the fifth category")
	}
	if len(s.Fees) != 1 || s.Fees[0].Type != budget.FeePercentage {
		t.Fatalf("fees = %+v", s.Fees)
	}

	e := budget.New(decimal.Zero)
	if err := e.Load(s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	sum := decimal.Zero
	for _, c := range e.Categories() {
		sum = sum.Add(c.Percentage)
	}
	if sum.Sub(decimal.NewFromInt(100)).Abs().GreaterThan(decimal.RequireFromString("0.000001")) {
		t.Fatalf("percentages sum to %s, want 100", sum)
	}
}

func TestNewBudgetExplicitTotalWithoutGroups(t *testing.T) {
	s, err := NewBudget(DefaultConfig(), decimal.NewFromInt(500), false)
	if err != nil {
		t.Fatalf("NewBudget: %v", err)
	}
	if len(s.Categories) != 0 || len(s.Groups) != 0 {
		t.Fatalf("expected an empty budget, got %d categories", len(s.Categories))
	}
	if !s.GrandTotal.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("grand total = %s", s.GrandTotal)
	}
}

func TestNewBudgetRejectsBadPresets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Mode = "sideways"
	if _, err := NewBudget(cfg, decimal.Zero, false); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}

	cfg = DefaultConfig()
	cfg.Defaults.Fees = []FeePreset{{Name: "Odd", Type: "weekly"}}
	if _, err := NewBudget(cfg, decimal.Zero, false); err == nil {
		t.Fatal("expected an error for an unknown fee type")
	}
}
