package cmd

import (
	"fmt"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change a total, a rate, the mode or one row",
}

// valueCmd builds `set <name> <value>` for budget-wide numbers.
func valueCmd(name, short string, apply func(e *budget.Engine, v string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <value>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return mutate(fmt.Sprintf("set %s %s", name, args[0]), func(e *budget.Engine) error {
				return apply(e, args[0])
			})
		},
	}
}

// rowCmd builds `set <name> <index> <value>` for per-row edits.
func rowCmd(name, short string, apply func(e *budget.Engine, i int, v string) error) *cobra.Command {
	return &cobra.Command{
		Use:   name + " <index> <value>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			i, err := parseIndex(args[0])
			if err != nil {
				return err
			}
			return mutate(fmt.Sprintf("set %s %d %s", name, i, args[1]), func(e *budget.Engine) error {
				return apply(e, i, args[1])
			})
		},
	}
}

func withDecimal(s string, fn func(v decimal.Decimal) error) error {
	v, err := budget.ParseDecimal(s)
	if err != nil {
		return err
	}
	return fn(v)
}

func init() {
	setCmd.AddCommand(
		valueCmd("total", "Set the grand total", func(e *budget.Engine, s string) error {
			return withDecimal(s, func(v decimal.Decimal) error { e.SetGrandTotal(v); return nil })
		}),
		valueCmd("admin", "Set the admin percentage", func(e *budget.Engine, s string) error {
			return withDecimal(s, func(v decimal.Decimal) error { e.SetAdminPct(v); return nil })
		}),
		valueCmd("contingency", "Set the contingency percentage", func(e *budget.Engine, s string) error {
			return withDecimal(s, func(v decimal.Decimal) error { e.SetContingencyPct(v); return nil })
		}),
		valueCmd("mode", "Set the mode: amount, percentage or preserve", func(e *budget.Engine, s string) error {
			m, err := budget.ParseMode(s)
			if err != nil {
				return err
			}
			return e.SetMode(m)
		}),
		rowCmd("pct", "Set a category percentage", func(e *budget.Engine, i int, s string) error {
			return withDecimal(s, func(v decimal.Decimal) error { return e.SetCategoryPercentage(i, v) })
		}),
		rowCmd("amount", "Set a category amount", func(e *budget.Engine, i int, s string) error {
			return withDecimal(s, func(v decimal.Decimal) error { return e.SetCategoryAmount(i, v) })
		}),
		rowCmd("fee", "Set a fee value", func(e *budget.Engine, i int, s string) error {
			return withDecimal(s, func(v decimal.Decimal) error { return e.SetFeeValue(i, v) })
		}),
	)
	rootCmd.AddCommand(setCmd)
}
