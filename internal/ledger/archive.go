package ledger

import (
	"time"

	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
)

// CloseMonth archives the active month under the target month key.
//
// Without an existing archive for the key, the active month is snapshotted
// into a new archived period. When an archive already exists, because the
// month was closed before and spending continued, the snapshot is merged
// into it: expense lists are concatenated, spend figures of categories
// present on both sides are summed while allocations follow the newer
// snapshot, and the total spent is recomputed from the merged expense list.
// The archived budget total is replaced by the active month's current total
// unless keepExistingBudget is set. The archive timestamp is refreshed
// either way.
//
// Afterwards the active month is reset: only its recurring expenses remain,
// re-instantiated with fresh IDs and timestamps and no receipt reference,
// and all derived figures are recomputed from them.
//
// Closing a month without expenses is permitted and produces an empty but
// valid archive.
func (l *Ledger) CloseMonth(target types.Month, keepExistingBudget bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closeMonth(target, keepExistingBudget)
	l.recomputeFunding()
	l.notify()

	return nil
}

// closeMonth implements CloseMonth. Must be called with the mutex held.
func (l *Ledger) closeMonth(target types.Month, keepExistingBudget bool) {
	active := &l.state.Active
	l.recompute(active)

	now := l.now()

	if existing := l.state.Archive(target); existing != nil {
		l.mergeIntoArchive(existing, keepExistingBudget, now)
	} else {
		l.snapshotToArchive(target, now)
	}

	l.reseedActive(now)
}

// snapshotToArchive closes the active month into a fresh archived period.
func (l *Ledger) snapshotToArchive(target types.Month, now time.Time) {
	active := &l.state.Active

	archive := active.Clone()
	archive.ID = uuid.New()
	archive.Month = target
	archive.ArchivedAt = &now
	archive.BudgetTotal = active.Income()
	archive.TotalSpent = active.ExpenseSum()

	// The income snapshots are copies, the originals stay on the active
	// month. They need their own identity.
	for i := range archive.AdditionalIncome {
		archive.AdditionalIncome[i].ID = uuid.New()
	}

	repointChildren(&archive)

	l.state.Archives = append(l.state.Archives, archive)
	l.sortArchives()

	l.log.Info().
		Str("month", target.String()).
		Str("budget", archive.BudgetTotal.String()).
		Str("spent", archive.TotalSpent.String()).
		Msg("month archived")
}

// mergeIntoArchive merges the active month into an already archived period.
func (l *Ledger) mergeIntoArchive(existing *models.MonthPeriod, keepExistingBudget bool, now time.Time) {
	active := &l.state.Active

	for _, expense := range active.Expenses {
		expense.MonthPeriodID = existing.ID
		existing.Expenses = append(existing.Expenses, expense)
	}

	for _, reimbursement := range active.Reimbursements {
		reimbursement.MonthPeriodID = existing.ID
		existing.Reimbursements = append(existing.Reimbursements, reimbursement)
	}

	for _, category := range active.Categories {
		if merged := existing.Category(category.ID); merged != nil {
			merged.Spent = merged.Spent.Add(category.Spent)
			merged.Allocated = category.Allocated
			merged.Color = category.Color
			merged.Order = category.Order
			continue
		}

		category.MonthPeriodID = existing.ID
		existing.Categories = append(existing.Categories, category)
	}

	existing.TotalSpent = existing.ExpenseSum()

	if !keepExistingBudget {
		existing.BudgetTotal = active.Income()
		existing.SalaryIncome = active.SalaryIncome
	}

	existing.ArchivedAt = &now

	l.log.Info().
		Str("month", existing.Month.String()).
		Bool("keptExistingBudget", keepExistingBudget).
		Str("spent", existing.TotalSpent.String()).
		Msg("month merged into existing archive")
}

// reseedActive resets the active month to only its recurring expenses, each
// with a fresh ID and timestamp and no receipt reference.
func (l *Ledger) reseedActive(now time.Time) {
	active := &l.state.Active

	var recurring []models.Expense
	for _, expense := range active.Expenses {
		if !expense.IsRecurring {
			continue
		}

		expense.ID = uuid.New()
		expense.Timestamp = now
		expense.ReceiptRef = ""
		recurring = append(recurring, expense)
	}

	active.Expenses = recurring
	active.Reimbursements = nil
	l.recompute(active)
}

// repointChildren updates the parent reference of all child records after a
// period got a new identity.
func repointChildren(period *models.MonthPeriod) {
	for i := range period.Categories {
		period.Categories[i].MonthPeriodID = period.ID
	}
	for i := range period.Expenses {
		period.Expenses[i].MonthPeriodID = period.ID
	}
	for i := range period.Reimbursements {
		period.Reimbursements[i].MonthPeriodID = period.ID
	}
	for i := range period.AdditionalIncome {
		period.AdditionalIncome[i].MonthPeriodID = period.ID
	}
}
