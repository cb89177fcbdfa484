package ledger

import (
	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// MonthSavings is the savings picture of one month, used for forecasting.
// Goal is nil when no savings goal was set for the month.
type MonthSavings struct {
	Month  types.Month      `json:"month"`
	Budget decimal.Decimal  `json:"budget"`
	Spent  decimal.Decimal  `json:"spent"`
	Actual decimal.Decimal  `json:"actual"`
	Goal   *decimal.Decimal `json:"goal,omitempty"`
	Notes  string           `json:"notes,omitempty"`
}

// SetSavingsGoal creates or replaces the savings goal for a month. The month
// must be stored and the goal must not exceed its total budget.
func (l *Ledger) SetSavingsGoal(month types.Month, goal decimal.Decimal, notes string) (models.MonthlySavingsGoal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.MonthlySavingsGoal{}, models.ErrNotFound
	}

	record := models.MonthlySavingsGoal{
		ID:      uuid.New(),
		UserKey: l.state.UserKey,
		Month:   month,
		Goal:    goal,
		Notes:   notes,
	}

	if err := record.Validate(); err != nil {
		return models.MonthlySavingsGoal{}, err
	}

	if goal.GreaterThan(period.BudgetTotal) {
		return models.MonthlySavingsGoal{}, models.ErrGoalAboveBudget
	}

	index := slices.IndexFunc(l.state.SavingsGoals, func(g models.MonthlySavingsGoal) bool {
		return g.Month.Equal(month)
	})
	if index >= 0 {
		record.ID = l.state.SavingsGoals[index].ID
		l.state.SavingsGoals[index] = record
	} else {
		l.state.SavingsGoals = append(l.state.SavingsGoals, record)
	}

	l.notify()
	return record, nil
}

// DeleteSavingsGoal removes the savings goal of a month.
func (l *Ledger) DeleteSavingsGoal(month types.Month) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := slices.IndexFunc(l.state.SavingsGoals, func(g models.MonthlySavingsGoal) bool {
		return g.Month.Equal(month)
	})
	if index < 0 {
		return models.ErrNotFound
	}

	l.state.SavingsGoals = slices.Delete(l.state.SavingsGoals, index, index+1)
	l.notify()

	return nil
}

// ActualSavings returns how much of the month's budget was not spent,
// independent of whether a goal was set for the month.
func (l *Ledger) ActualSavings(month types.Month) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return decimal.Zero, models.ErrNotFound
	}

	return period.Saved(), nil
}

// SavingsOverview returns the savings picture of every stored month in
// chronological order, the active month last.
func (l *Ledger) SavingsOverview() []MonthSavings {
	l.mu.Lock()
	defer l.mu.Unlock()

	var overview []MonthSavings
	for _, period := range l.periods() {
		entry := MonthSavings{
			Month:  period.Month,
			Budget: period.BudgetTotal,
			Spent:  period.TotalSpent,
			Actual: period.Saved(),
		}

		index := slices.IndexFunc(l.state.SavingsGoals, func(g models.MonthlySavingsGoal) bool {
			return g.Month.Equal(period.Month)
		})
		if index >= 0 {
			goal := l.state.SavingsGoals[index].Goal
			entry.Goal = &goal
			entry.Notes = l.state.SavingsGoals[index].Notes
		}

		overview = append(overview, entry)
	}

	return overview
}
