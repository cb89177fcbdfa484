package ledger

import (
	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"
)

// MarkExpenseRecurring flags an expense in any stored month, typically an
// archived one, as recurring and instantiates it in every later month up to
// and including the current one. The flagged month is the propagation
// origin; its own record only changes its flag.
func (l *Ledger) MarkExpenseRecurring(month types.Month, id uuid.UUID) (models.Expense, error) {
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

	period.Expenses[index].IsRecurring = true
	expense := period.Expenses[index]

	l.propagateFrom(month, expense)
	l.recomputeFunding()

	l.log.Info().
		Str("origin", month.String()).
		Str("description", expense.Description).
		Msg("historic expense marked recurring")
	l.notify()

	return expense, nil
}

// propagateMark handles an expense whose recurring flag was just set. The
// origin is the earliest month containing an expense with the same pattern,
// whatever its flag; without one the edited month itself is the origin.
// Propagation then runs forward from the origin.
func (l *Ledger) propagateMark(edited types.Month, expense models.Expense) {
	origin := edited

	for _, period := range l.periods() {
		match := slices.ContainsFunc(period.Expenses, func(e models.Expense) bool {
			return e.SamePattern(expense)
		})
		if match {
			if period.Month.Before(origin) {
				origin = period.Month
			}
			break
		}
	}

	l.propagateFrom(origin, expense)
}

// propagateFrom instantiates the recurring expense in every stored month
// strictly after the origin, up to and including the current month. Months
// that already contain a matching expense are left alone, so repeated
// propagation cannot create duplicates. Months missing the expense's
// category are skipped. When the origin is the current month the range is
// empty and nothing happens.
func (l *Ledger) propagateFrom(origin types.Month, expense models.Expense) {
	current := types.MonthOf(l.now())

	for _, period := range l.periods() {
		if !period.Month.After(origin) || period.Month.After(current) {
			continue
		}

		if period.Category(expense.CategoryID) == nil {
			l.log.Debug().
				Str("month", period.Month.String()).
				Str("description", expense.Description).
				Msg("skipping recurring instantiation, category missing in month")
			continue
		}

		exists := slices.ContainsFunc(period.Expenses, func(e models.Expense) bool {
			return e.SamePattern(expense)
		})
		if exists {
			continue
		}

		period.Expenses = append(period.Expenses, models.Expense{
			ID:            uuid.New(),
			MonthPeriodID: period.ID,
			CategoryID:    expense.CategoryID,
			Amount:        expense.Amount,
			Description:   expense.Description,
			Timestamp:     period.Month.FirstInstant(),
			IsRecurring:   true,
		})

		l.recompute(period)
	}
}

// propagateUnmark handles an expense whose recurring flag was just cleared.
// The edited month is the origin: every recurring instance with the pattern
// in months strictly after it, up to and including the current month, is
// removed. The origin's own record only changes its flag, and months before
// the origin are never touched.
func (l *Ledger) propagateUnmark(origin types.Month, pattern models.Expense) {
	current := types.MonthOf(l.now())

	for _, period := range l.periods() {
		if !period.Month.After(origin) || period.Month.After(current) {
			continue
		}

		before := len(period.Expenses)
		period.Expenses = slices.DeleteFunc(period.Expenses, func(e models.Expense) bool {
			return e.IsRecurring && e.SamePattern(pattern)
		})

		if len(period.Expenses) != before {
			l.recompute(period)
		}
	}
}
