package models

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category represents a spending category within a single month.
//
// Categories are not shared across months. When a new month is seeded from
// the previous one, the copies keep their IDs so that expenses in different
// months can be related to "the same" category.
type Category struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey"`
	MonthPeriodID uuid.UUID       `json:"-" gorm:"primaryKey"`
	Name          string          `json:"name"`
	Allocated     decimal.Decimal `json:"allocated" gorm:"type:DECIMAL(20,8)"`
	Color         string          `json:"color,omitempty"`

	// Spent is derived from the month's expenses and reimbursements.
	// It is recomputed after every mutation and never read back as
	// authoritative state.
	Spent decimal.Decimal `json:"spent" gorm:"type:DECIMAL(20,8)"`

	// Order is the display rank, dense and 0-based within the month.
	Order int `json:"order" gorm:"column:position"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrNameEmpty
	}

	if c.Allocated.IsNegative() {
		return ErrAllocationNegative
	}

	return nil
}
