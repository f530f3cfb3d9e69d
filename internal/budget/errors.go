package budget

import "errors"

var (
	ErrCategoryNotFound   = errors.New("category not found")
	ErrFeeNotFound        = errors.New("fee not found")
	ErrDuplicateCategory  = errors.New("duplicate category id")
	ErrUnknownGroupMember = errors.New("group references an unknown category")
	ErrInvalidLockType    = errors.New("invalid lock type")
	ErrInvalidFeeType     = errors.New("invalid fee type")
	ErrInvalidMode        = errors.New("invalid mode")
	ErrInvalidNumber      = errors.New("invalid number")

	// ErrOverBudget is never returned by mutators; the engine reports the
	// condition through OverBudget. CheckBudget converts it into an error
	// for callers that treat it as blocking.
	ErrOverBudget = errors.New("fixed allocations exceed the available budget")
)
