package ledger

import (
	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
)

// GetMonth returns a copy of the period stored under the month key. When the
// active month and an archive share the key, the active month is returned.
func (l *Ledger) GetMonth(month types.Month) (models.MonthPeriod, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.MonthPeriod{}, models.ErrNotFound
	}

	return period.Clone(), nil
}

// ActiveMonth returns a copy of the active month.
func (l *Ledger) ActiveMonth() models.MonthPeriod {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state.Active.Clone()
}

// EnsureCurrentMonth rolls the ledger forward when a new calendar month has
// begun since the last mutation.
//
// The stale active month is closed into the archive under its own key, then
// the active month is re-keyed to the current month: its category list is
// carried over with allocations, colors and order preserved and spend reset,
// recurring expenses are re-instantiated with fresh IDs and timestamps and
// no receipt reference, additional income starts empty.
//
// Months in which the ledger was never opened are skipped; no empty periods
// are synthesized for them.
func (l *Ledger) EnsureCurrentMonth() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	current := types.MonthOf(now)

	if l.state.Active.Month.Equal(current) {
		return nil
	}

	if l.state.Active.Month.After(current) {
		l.log.Warn().
			Str("active", l.state.Active.Month.String()).
			Str("current", current.String()).
			Msg("active month is in the future, not rolling over")
		return nil
	}

	stale := l.state.Active.Month

	// Closing archives the stale month and reseeds the active month with
	// only its recurring expenses.
	l.closeMonth(stale, false)

	active := &l.state.Active
	active.Month = current
	active.CreatedDate = now
	active.AdditionalIncome = nil

	// The salary snapshot carries over from the prior month unless the
	// ledger-wide figure was changed in the meantime.
	if l.state.Salary.IsPositive() {
		active.SalaryIncome = l.state.Salary
	}

	for i := range active.Expenses {
		active.Expenses[i].ID = uuid.New()
		active.Expenses[i].Timestamp = current.FirstInstant()
	}

	l.recompute(active)
	l.recomputeFunding()

	l.log.Info().
		Str("from", stale.String()).
		Str("to", current.String()).
		Int("recurring", len(active.Expenses)).
		Msg("rolled ledger over to new month")

	l.notify()
	return nil
}
