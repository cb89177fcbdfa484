package models

import "errors"

var (
	// ErrNotFound is returned when a referenced resource does not exist.
	// Operations returning it are guaranteed to not have changed any state.
	ErrNotFound = errors.New("there is no such resource")

	ErrAmountNotPositive  = errors.New("amounts must be larger than zero")
	ErrDescriptionEmpty   = errors.New("a description is required")
	ErrNameEmpty          = errors.New("a name is required")
	ErrAllocationNegative = errors.New("allocations cannot be negative")
	ErrTargetNotPositive  = errors.New("goal targets must be larger than zero")
	ErrGoalNegative       = errors.New("savings goals cannot be negative")
	ErrGoalAboveBudget    = errors.New("the savings goal cannot exceed the month's total budget")
)
