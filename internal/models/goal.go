package models

import (
	"strings"
	"time"

	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthlySavingsGoal is a user-set savings target for a single month. At
// most one exists per month key. The actual savings for a month are derived
// from the month's figures, independent of whether a goal was set.
type MonthlySavingsGoal struct {
	ID      uuid.UUID       `json:"id" gorm:"primaryKey"`
	UserKey string          `json:"-" gorm:"index"`
	Month   types.Month     `json:"month"`
	Goal    decimal.Decimal `json:"goal" gorm:"type:DECIMAL(20,8)"`
	Notes   string          `json:"notes,omitempty"`
}

func (g MonthlySavingsGoal) Validate() error {
	if g.Goal.IsNegative() {
		return ErrGoalNegative
	}

	return nil
}

// LongTermGoal is a savings goal funded from accumulated past-month savings,
// e.g. an emergency fund. Goals are funded in Order, lower first.
type LongTermGoal struct {
	ID           uuid.UUID       `json:"id" gorm:"primaryKey"`
	UserKey      string          `json:"-" gorm:"index"`
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount" gorm:"type:DECIMAL(20,8)"`

	// CurrentAmount is assigned by the waterfall allocation. Manual edits
	// survive only until the next recompute pass.
	CurrentAmount decimal.Decimal `json:"currentAmount" gorm:"type:DECIMAL(20,8)"`

	CreatedDate time.Time `json:"createdDate"`
	Order       int       `json:"order" gorm:"column:position"`
	Notes       string    `json:"notes,omitempty"`
}

func (g LongTermGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrNameEmpty
	}

	if !g.TargetAmount.IsPositive() {
		return ErrTargetNotPositive
	}

	return nil
}
