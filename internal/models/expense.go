package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Expense is a single spending record. It adds to the spend of the category
// it references, which must exist in the same month.
type Expense struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey"`
	MonthPeriodID uuid.UUID       `json:"-" gorm:"index"`
	CategoryID    uuid.UUID       `json:"categoryId"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`

	// ReceiptRef is an opaque reference issued by the receipt storage
	// collaborator. Empty when no receipt is attached.
	ReceiptRef string `json:"receiptRef,omitempty"`

	// IsRecurring marks the expense for automatic re-instantiation in
	// every following month until it is unmarked.
	IsRecurring bool `json:"isRecurring,omitempty"`
}

func (e Expense) Validate() error {
	if !e.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if strings.TrimSpace(e.Description) == "" {
		return ErrDescriptionEmpty
	}

	return nil
}

// SamePattern reports whether two expenses describe the same recurring
// expense. Identity is the (description, category, amount) triple, not the
// ID: each month holds its own record for a recurring expense.
//
// Two distinct expenses that coincidentally share all three fields are
// indistinguishable under this definition. This matches the historic
// behavior and is kept for compatibility.
func (e Expense) SamePattern(other Expense) bool {
	return e.Description == other.Description &&
		e.CategoryID == other.CategoryID &&
		e.Amount.Equal(other.Amount)
}

// Reimbursement is money flowing back into a category. It has the same shape
// as an expense, but subtracts from the category's spend.
type Reimbursement struct {
	ID            uuid.UUID       `json:"id" gorm:"primaryKey"`
	MonthPeriodID uuid.UUID       `json:"-" gorm:"index"`
	CategoryID    uuid.UUID       `json:"categoryId"`
	Amount        decimal.Decimal `json:"amount" gorm:"type:DECIMAL(20,8)"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
	ReceiptRef    string          `json:"receiptRef,omitempty"`
}

func (r Reimbursement) Validate() error {
	if !r.Amount.IsPositive() {
		return ErrAmountNotPositive
	}

	if strings.TrimSpace(r.Description) == "" {
		return ErrDescriptionEmpty
	}

	return nil
}
