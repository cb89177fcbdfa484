package models

import (
	"time"

	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MonthPeriod is the full ledger for one calendar month: its categories,
// expenses, reimbursements and additional income.
//
// The active month has ArchivedAt set to nil. Closed months carry the time
// they were last archived at; there is at most one archived period per month
// key and user.
type MonthPeriod struct {
	ID      uuid.UUID   `json:"id" gorm:"primaryKey"`
	UserKey string      `json:"-" gorm:"index"`
	Month   types.Month `json:"month"`

	// SalaryIncome is the fixed salary snapshot taken when the period was
	// created or last merged.
	SalaryIncome decimal.Decimal `json:"salaryIncome" gorm:"type:DECIMAL(20,8)"`

	// BudgetTotal is the month's total budget. For the active month it is
	// kept equal to SalaryIncome plus all additional income; for archived
	// months it is the figure recorded when the month was closed.
	BudgetTotal decimal.Decimal `json:"budgetTotal" gorm:"type:DECIMAL(20,8)"`

	// TotalSpent is the sum over the expense list. Derived, recomputed
	// after every mutation.
	TotalSpent decimal.Decimal `json:"totalSpent" gorm:"type:DECIMAL(20,8)"`

	CreatedDate time.Time  `json:"createdDate"`
	ArchivedAt  *time.Time `json:"archivedAt,omitempty"`

	Categories       []Category         `json:"categories" gorm:"foreignKey:MonthPeriodID;constraint:OnDelete:CASCADE"`
	Expenses         []Expense          `json:"expenses" gorm:"foreignKey:MonthPeriodID;constraint:OnDelete:CASCADE"`
	Reimbursements   []Reimbursement    `json:"reimbursements" gorm:"foreignKey:MonthPeriodID;constraint:OnDelete:CASCADE"`
	AdditionalIncome []AdditionalIncome `json:"additionalIncome" gorm:"foreignKey:MonthPeriodID;constraint:OnDelete:CASCADE"`
}

// SpentFor derives the spend of a category from the month's expenses and
// reimbursements. Reimbursements subtract; the result never goes below zero
// even if they exceed the expenses.
func (m MonthPeriod) SpentFor(categoryID uuid.UUID) decimal.Decimal {
	sum := decimal.Zero

	for _, e := range m.Expenses {
		if e.CategoryID == categoryID {
			sum = sum.Add(e.Amount)
		}
	}

	for _, r := range m.Reimbursements {
		if r.CategoryID == categoryID {
			sum = sum.Sub(r.Amount)
		}
	}

	if sum.IsNegative() {
		return decimal.Zero
	}

	return sum
}

// Category returns a pointer to the category with the given ID, or nil.
func (m *MonthPeriod) Category(id uuid.UUID) *Category {
	for i := range m.Categories {
		if m.Categories[i].ID == id {
			return &m.Categories[i]
		}
	}

	return nil
}

// Income returns the month's total income: the salary snapshot plus all
// additional income records.
func (m MonthPeriod) Income() decimal.Decimal {
	sum := m.SalaryIncome
	for _, i := range m.AdditionalIncome {
		sum = sum.Add(i.Amount)
	}

	return sum
}

// ExpenseSum returns the sum over the expense list.
func (m MonthPeriod) ExpenseSum() decimal.Decimal {
	sum := decimal.Zero
	for _, e := range m.Expenses {
		sum = sum.Add(e.Amount)
	}

	return sum
}

// Saved returns how much of the month's budget was not spent, never below
// zero.
func (m MonthPeriod) Saved() decimal.Decimal {
	saved := m.BudgetTotal.Sub(m.TotalSpent)
	if saved.IsNegative() {
		return decimal.Zero
	}

	return saved
}

// Clone returns a deep copy of the period.
func (m MonthPeriod) Clone() MonthPeriod {
	c := m

	if m.ArchivedAt != nil {
		at := *m.ArchivedAt
		c.ArchivedAt = &at
	}

	c.Categories = append([]Category(nil), m.Categories...)
	c.Expenses = append([]Expense(nil), m.Expenses...)
	c.Reimbursements = append([]Reimbursement(nil), m.Reimbursements...)
	c.AdditionalIncome = append([]AdditionalIncome(nil), m.AdditionalIncome...)

	return c
}
