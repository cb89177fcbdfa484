package ledger

import (
	"strings"

	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// LongTermGoalParams holds the user-settable fields of a long-term goal.
type LongTermGoalParams struct {
	Name         string
	TargetAmount decimal.Decimal
	Notes        string
}

// AddLongTermGoal creates a long-term goal at the end of the priority order
// and re-runs the funding allocation.
func (l *Ledger) AddLongTermGoal(params LongTermGoalParams) (models.LongTermGoal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	goal := models.LongTermGoal{
		ID:           uuid.New(),
		UserKey:      l.state.UserKey,
		Name:         strings.TrimSpace(params.Name),
		TargetAmount: params.TargetAmount,
		CreatedDate:  l.now(),
		Order:        len(l.state.LongTermGoals),
		Notes:        params.Notes,
	}

	if err := goal.Validate(); err != nil {
		return models.LongTermGoal{}, err
	}

	l.state.LongTermGoals = append(l.state.LongTermGoals, goal)
	l.recomputeFunding()
	l.notify()

	return l.longTermGoal(goal.ID), nil
}

// UpdateLongTermGoal changes a goal's name, target or notes and re-runs the
// funding allocation.
func (l *Ledger) UpdateLongTermGoal(id uuid.UUID, params LongTermGoalParams) (models.LongTermGoal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := slices.IndexFunc(l.state.LongTermGoals, func(g models.LongTermGoal) bool { return g.ID == id })
	if index < 0 {
		return models.LongTermGoal{}, models.ErrNotFound
	}

	updated := l.state.LongTermGoals[index]
	updated.Name = strings.TrimSpace(params.Name)
	updated.TargetAmount = params.TargetAmount
	updated.Notes = params.Notes

	if err := updated.Validate(); err != nil {
		return models.LongTermGoal{}, err
	}

	l.state.LongTermGoals[index] = updated
	l.recomputeFunding()
	l.notify()

	return l.longTermGoal(id), nil
}

// SetLongTermGoalAmount manually overrides a goal's funded amount. The
// override lasts only until the next allocation pass; any goal, savings or
// archive change recomputes the funding and overwrites it.
func (l *Ledger) SetLongTermGoalAmount(id uuid.UUID, amount decimal.Decimal) (models.LongTermGoal, error) {
	if amount.IsNegative() {
		return models.LongTermGoal{}, models.ErrAmountNotPositive
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	index := slices.IndexFunc(l.state.LongTermGoals, func(g models.LongTermGoal) bool { return g.ID == id })
	if index < 0 {
		return models.LongTermGoal{}, models.ErrNotFound
	}

	l.state.LongTermGoals[index].CurrentAmount = amount
	l.notify()

	return l.state.LongTermGoals[index], nil
}

// DeleteLongTermGoal removes a goal, closes the gap in the priority order
// and re-runs the funding allocation.
func (l *Ledger) DeleteLongTermGoal(id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	index := slices.IndexFunc(l.state.LongTermGoals, func(g models.LongTermGoal) bool { return g.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	l.state.LongTermGoals = slices.Delete(l.state.LongTermGoals, index, index+1)
	l.sortLongTermGoals()
	renumberGoals(l.state.LongTermGoals)
	l.recomputeFunding()
	l.notify()

	return nil
}

// ReorderLongTermGoal swaps a goal with its neighbor in the priority order
// and re-runs the funding allocation, so funding re-attributes to the new
// priorities immediately. Moving the first goal up or the last down is a
// no-op.
func (l *Ledger) ReorderLongTermGoal(id uuid.UUID, direction Direction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sortLongTermGoals()

	index := slices.IndexFunc(l.state.LongTermGoals, func(g models.LongTermGoal) bool { return g.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	neighbor := index - 1
	if direction == Down {
		neighbor = index + 1
	}

	if neighbor < 0 || neighbor >= len(l.state.LongTermGoals) {
		return nil
	}

	goals := l.state.LongTermGoals
	goals[index], goals[neighbor] = goals[neighbor], goals[index]
	renumberGoals(goals)

	l.recomputeFunding()
	l.notify()

	return nil
}

// LongTermGoals returns all long-term goals in priority order.
func (l *Ledger) LongTermGoals() []models.LongTermGoal {
	l.mu.Lock()
	defer l.mu.Unlock()

	goals := append([]models.LongTermGoal(nil), l.state.LongTermGoals...)
	slices.SortFunc(goals, func(a, b models.LongTermGoal) int { return a.Order - b.Order })

	return goals
}

// RecomputeLongTermFunding re-runs the waterfall allocation and returns the
// goals with their new funded amounts.
func (l *Ledger) RecomputeLongTermFunding() []models.LongTermGoal {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.recomputeFunding()
	l.notify()

	return append([]models.LongTermGoal(nil), l.state.LongTermGoals...)
}

// recomputeFunding distributes the accumulated past-month savings across the
// long-term goals in priority order: each goal is funded fully before any
// money reaches the next one, and once the pool runs dry every following
// goal is left at zero.
//
// The pool is the sum of the unspent budget of every archived month strictly
// before the current one. This is a full recompute from the archives, not an
// incremental update, so it also overwrites manual funding edits.
func (l *Ledger) recomputeFunding() {
	current := types.MonthOf(l.now())

	pool := decimal.Zero
	for _, archive := range l.state.Archives {
		if archive.Month.Before(current) {
			pool = pool.Add(archive.Saved())
		}
	}

	l.sortLongTermGoals()

	for i := range l.state.LongTermGoals {
		goal := &l.state.LongTermGoals[i]

		if pool.GreaterThanOrEqual(goal.TargetAmount) {
			goal.CurrentAmount = goal.TargetAmount
			pool = pool.Sub(goal.TargetAmount)
			continue
		}

		goal.CurrentAmount = pool
		pool = decimal.Zero
	}
}

func (l *Ledger) sortLongTermGoals() {
	slices.SortFunc(l.state.LongTermGoals, func(a, b models.LongTermGoal) int { return a.Order - b.Order })
}

func (l *Ledger) longTermGoal(id uuid.UUID) models.LongTermGoal {
	index := slices.IndexFunc(l.state.LongTermGoals, func(g models.LongTermGoal) bool { return g.ID == id })
	return l.state.LongTermGoals[index]
}

func renumberGoals(goals []models.LongTermGoal) {
	for i := range goals {
		goals[i].Order = i
	}
}
