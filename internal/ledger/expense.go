package ledger

import (
	"context"
	"strings"
	"time"

	"pennywise/internal/models"
	"pennywise/internal/receipts"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// ExpenseParams holds the user-settable fields of an expense.
type ExpenseParams struct {
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	Timestamp   time.Time
	ReceiptRef  string
	IsRecurring bool
}

// ReimbursementParams holds the user-settable fields of a reimbursement.
type ReimbursementParams struct {
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Description string
	Timestamp   time.Time
	ReceiptRef  string
}

// IncomeParams holds the user-settable fields of an additional income.
type IncomeParams struct {
	Amount      decimal.Decimal
	Description string
	Timestamp   time.Time
}

// AddExpense creates an expense in the month. The category must exist in the
// same month. An expense created with the recurring flag set is propagated
// into all months after its own, up to and including the current one.
func (l *Ledger) AddExpense(month types.Month, params ExpenseParams) (models.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.Expense{}, models.ErrNotFound
	}

	if period.Category(params.CategoryID) == nil {
		return models.Expense{}, models.ErrNotFound
	}

	expense := models.Expense{
		ID:            uuid.New(),
		MonthPeriodID: period.ID,
		CategoryID:    params.CategoryID,
		Amount:        params.Amount,
		Description:   strings.TrimSpace(params.Description),
		Timestamp:     params.Timestamp,
		ReceiptRef:    params.ReceiptRef,
		IsRecurring:   params.IsRecurring,
	}

	if expense.Timestamp.IsZero() {
		expense.Timestamp = l.now()
	}

	if err := expense.Validate(); err != nil {
		return models.Expense{}, err
	}

	period.Expenses = append(period.Expenses, expense)
	l.recompute(period)

	if expense.IsRecurring {
		l.propagateMark(month, expense)
	}

	l.recomputeFunding()

	l.log.Debug().
		Str("month", month.String()).
		Str("description", expense.Description).
		Bool("recurring", expense.IsRecurring).
		Msg("expense added")
	l.notify()

	return expense, nil
}

// UpdateExpense changes an expense. When the recurring flag transitions, the
// change is propagated across the months between the expense's origin and
// the current month.
func (l *Ledger) UpdateExpense(month types.Month, id uuid.UUID, params ExpenseParams) (models.Expense, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.Expense{}, models.ErrNotFound
	}

	index := slices.IndexFunc(period.Expenses, func(e models.Expense) bool { return e.ID == id })
	if index < 0 {
		return models.Expense{}, models.ErrNotFound
	}

	if period.Category(params.CategoryID) == nil {
		return models.Expense{}, models.ErrNotFound
	}

	previous := period.Expenses[index]

	updated := previous
	updated.CategoryID = params.CategoryID
	updated.Amount = params.Amount
	updated.Description = strings.TrimSpace(params.Description)
	updated.ReceiptRef = params.ReceiptRef
	updated.IsRecurring = params.IsRecurring

	if !params.Timestamp.IsZero() {
		updated.Timestamp = params.Timestamp
	}

	if err := updated.Validate(); err != nil {
		return models.Expense{}, err
	}

	period.Expenses[index] = updated
	l.recompute(period)

	// A replaced receipt reference orphans the old object otherwise.
	if previous.ReceiptRef != updated.ReceiptRef {
		l.deleteReceipt(previous.ReceiptRef)
	}

	switch {
	case !previous.IsRecurring && updated.IsRecurring:
		l.propagateMark(month, updated)
	case previous.IsRecurring && !updated.IsRecurring:
		l.propagateUnmark(month, previous)
	}

	l.recomputeFunding()
	l.notify()

	return updated, nil
}

// DeleteExpense removes an expense from the month. A managed receipt behind
// the expense is deleted from the receipt store; a failure there is logged
// and does not roll back the deletion.
func (l *Ledger) DeleteExpense(month types.Month, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.ErrNotFound
	}

	index := slices.IndexFunc(period.Expenses, func(e models.Expense) bool { return e.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	expense := period.Expenses[index]
	period.Expenses = slices.Delete(period.Expenses, index, index+1)

	l.recompute(period)
	l.recomputeFunding()
	l.deleteReceipt(expense.ReceiptRef)

	l.log.Debug().Str("month", month.String()).Str("id", id.String()).Msg("expense deleted")
	l.notify()

	return nil
}

// AddReimbursement creates a reimbursement in the month, reducing the spend
// of the category it references.
func (l *Ledger) AddReimbursement(month types.Month, params ReimbursementParams) (models.Reimbursement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.Reimbursement{}, models.ErrNotFound
	}

	if period.Category(params.CategoryID) == nil {
		return models.Reimbursement{}, models.ErrNotFound
	}

	reimbursement := models.Reimbursement{
		ID:            uuid.New(),
		MonthPeriodID: period.ID,
		CategoryID:    params.CategoryID,
		Amount:        params.Amount,
		Description:   strings.TrimSpace(params.Description),
		Timestamp:     params.Timestamp,
		ReceiptRef:    params.ReceiptRef,
	}

	if reimbursement.Timestamp.IsZero() {
		reimbursement.Timestamp = l.now()
	}

	if err := reimbursement.Validate(); err != nil {
		return models.Reimbursement{}, err
	}

	period.Reimbursements = append(period.Reimbursements, reimbursement)
	l.recompute(period)
	l.recomputeFunding()
	l.notify()

	return reimbursement, nil
}

// UpdateReimbursement changes a reimbursement.
func (l *Ledger) UpdateReimbursement(month types.Month, id uuid.UUID, params ReimbursementParams) (models.Reimbursement, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.Reimbursement{}, models.ErrNotFound
	}

	index := slices.IndexFunc(period.Reimbursements, func(r models.Reimbursement) bool { return r.ID == id })
	if index < 0 {
		return models.Reimbursement{}, models.ErrNotFound
	}

	if period.Category(params.CategoryID) == nil {
		return models.Reimbursement{}, models.ErrNotFound
	}

	updated := period.Reimbursements[index]
	updated.CategoryID = params.CategoryID
	updated.Amount = params.Amount
	updated.Description = strings.TrimSpace(params.Description)
	updated.ReceiptRef = params.ReceiptRef

	if !params.Timestamp.IsZero() {
		updated.Timestamp = params.Timestamp
	}

	if err := updated.Validate(); err != nil {
		return models.Reimbursement{}, err
	}

	period.Reimbursements[index] = updated
	l.recompute(period)
	l.recomputeFunding()
	l.notify()

	return updated, nil
}

// DeleteReimbursement removes a reimbursement from the month.
func (l *Ledger) DeleteReimbursement(month types.Month, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.ErrNotFound
	}

	index := slices.IndexFunc(period.Reimbursements, func(r models.Reimbursement) bool { return r.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	reimbursement := period.Reimbursements[index]
	period.Reimbursements = slices.Delete(period.Reimbursements, index, index+1)

	l.recompute(period)
	l.recomputeFunding()
	l.deleteReceipt(reimbursement.ReceiptRef)
	l.notify()

	return nil
}

// AddIncome creates an additional income record in the month, raising its
// total budget.
func (l *Ledger) AddIncome(month types.Month, params IncomeParams) (models.AdditionalIncome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.AdditionalIncome{}, models.ErrNotFound
	}

	income := models.AdditionalIncome{
		ID:            uuid.New(),
		MonthPeriodID: period.ID,
		Amount:        params.Amount,
		Description:   strings.TrimSpace(params.Description),
		Timestamp:     params.Timestamp,
	}

	if income.Timestamp.IsZero() {
		income.Timestamp = l.now()
	}

	if err := income.Validate(); err != nil {
		return models.AdditionalIncome{}, err
	}

	period.AdditionalIncome = append(period.AdditionalIncome, income)
	l.recompute(period)
	l.recomputeFunding()
	l.notify()

	return income, nil
}

// UpdateIncome changes an additional income record.
func (l *Ledger) UpdateIncome(month types.Month, id uuid.UUID, params IncomeParams) (models.AdditionalIncome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.AdditionalIncome{}, models.ErrNotFound
	}

	index := slices.IndexFunc(period.AdditionalIncome, func(i models.AdditionalIncome) bool { return i.ID == id })
	if index < 0 {
		return models.AdditionalIncome{}, models.ErrNotFound
	}

	updated := period.AdditionalIncome[index]
	updated.Amount = params.Amount
	updated.Description = strings.TrimSpace(params.Description)

	if !params.Timestamp.IsZero() {
		updated.Timestamp = params.Timestamp
	}

	if err := updated.Validate(); err != nil {
		return models.AdditionalIncome{}, err
	}

	period.AdditionalIncome[index] = updated
	l.recompute(period)
	l.recomputeFunding()
	l.notify()

	return updated, nil
}

// DeleteIncome removes an additional income record from the month.
func (l *Ledger) DeleteIncome(month types.Month, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.ErrNotFound
	}

	index := slices.IndexFunc(period.AdditionalIncome, func(i models.AdditionalIncome) bool { return i.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	period.AdditionalIncome = slices.Delete(period.AdditionalIncome, index, index+1)
	l.recompute(period)
	l.recomputeFunding()
	l.notify()

	return nil
}

// deleteReceipt asks the receipt store to remove a managed receipt. Failures
// are logged and otherwise ignored; the ledger mutation has already been
// applied.
func (l *Ledger) deleteReceipt(reference string) {
	if l.receipts == nil || !receipts.IsManagedReference(reference) {
		return
	}

	if err := l.receipts.DeleteReceipt(context.Background(), reference); err != nil {
		l.log.Warn().Err(err).Str("reference", reference).Msg("failed to delete receipt")
	}
}
