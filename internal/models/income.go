package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdditionalIncome is income on top of the fixed salary figure, e.g. a bonus
// or a side job. It raises the month's total budget.
type AdditionalIncome struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey"`
	MonthPeriodID uuid.UUID       `json:"-" gorm:"index"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
}

func (i AdditionalIncome) Validate() error {
	if !i.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if strings.TrimSpace(i.Description) == "" {
		return ErrDescriptionEmpty
	}

	return nil
}
