package cmd

import (
	"fmt"

	"github.com/theirongolddev/allot/internal/budget"

	"github.com/spf13/cobra"
)

var (
	flagFeeType       string
	flagCategoryGroup string
)

var feeCmd = &cobra.Command{
	Use:   "fee",
	Short: "Add or remove fees",
}

var feeAddCmd = &cobra.Command{
	Use:   "add <name> <value>",
	Short: "Add a fee (percentage of the subtotal unless --type fixed)",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		typ, err := budget.ParseFeeType(flagFeeType)
		if err != nil {
			return err
		}
		v, err := budget.ParseDecimal(args[1])
		if err != nil {
			return err
		}
		return mutate("added fee "+args[0], func(e *budget.Engine) error {
			_, err := e.AddFee(args[0], typ, v)
			return err
		})
	},
}

var feeRmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Remove a fee",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return mutate(fmt.Sprintf("removed fee %d", i), func(e *budget.Engine) error {
			return e.RemoveFee(i)
		})
	},
}

var categoryCmd = &cobra.Command{
	Use:     "category",
	Aliases: []string{"cat"},
	Short:   "Add, remove or rename categories",
}

var categoryAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an unlocked category at 0%",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		return mutate("added category "+args[0], func(e *budget.Engine) error {
			e.AddCategory(args[0], flagCategoryGroup)
			return nil
		})
	},
}

var categoryRmCmd = &cobra.Command{
	Use:   "rm <index>",
	Short: "Remove a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return mutate(fmt.Sprintf("removed category %d", i), func(e *budget.Engine) error {
			return e.RemoveCategory(i)
		})
	},
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename <index> <name>",
	Short: "Rename a category",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		return mutate(fmt.Sprintf("renamed category %d", i), func(e *budget.Engine) error {
			return e.RenameCategory(i, args[1])
		})
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock <index> <amount|percentage|none>",
	Short: "Set how a category is locked",
	Args:  cobra.ExactArgs(2),
	RunE: func(_ *cobra.Command, args []string) error {
		i, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		lock, err := budget.ParseLockType(args[1])
		if err != nil {
			return err
		}
		return mutate(fmt.Sprintf("lock %d %s", i, lock), func(e *budget.Engine) error {
			return e.SetLockType(i, lock)
		})
	},
}

var lockAllCmd = &cobra.Command{
	Use:   "lock-all [amount|percentage]",
	Short: "Lock every category (by amount unless told otherwise)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		lock := budget.LockAmount
		if len(args) == 1 {
			var err error
			if lock, err = budget.ParseLockType(args[0]); err != nil {
				return err
			}
		}
		return mutate("lock all "+lock.String(), func(e *budget.Engine) error {
			return e.LockAll(lock)
		})
	},
}

var unlockAllCmd = &cobra.Command{
	Use:   "unlock-all",
	Short: "Unlock every category",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mutate("unlock all", func(e *budget.Engine) error {
			e.UnlockAll()
			return nil
		})
	},
}

func init() {
	feeAddCmd.Flags().StringVar(&flagFeeType, "type", "percentage", "Fee type: percentage or fixed")
	feeCmd.AddCommand(feeAddCmd, feeRmCmd)

	categoryAddCmd.Flags().StringVar(&flagCategoryGroup, "group", "", "Group label to add the category to")
	categoryCmd.AddCommand(categoryAddCmd, categoryRmCmd, categoryRenameCmd)

	rootCmd.AddCommand(feeCmd, categoryCmd, lockCmd, lockAllCmd, unlockAllCmd)
}
