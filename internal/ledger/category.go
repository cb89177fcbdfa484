package ledger

import (
	"strings"

	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// CategoryParams holds the user-settable fields of a category.
type CategoryParams struct {
	Name      string
	Allocated decimal.Decimal
	Color     string
}

// AddCategory creates a new category in the month. It is appended to the end
// of the display order.
func (l *Ledger) AddCategory(month types.Month, params CategoryParams) (models.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.Category{}, models.ErrNotFound
	}

	category := models.Category{
		ID:            uuid.New(),
		MonthPeriodID: period.ID,
		Name:          strings.TrimSpace(params.Name),
		Allocated:     params.Allocated,
		Color:         params.Color,
		Order:         len(period.Categories),
	}

	if err := category.Validate(); err != nil {
		return models.Category{}, err
	}

	period.Categories = append(period.Categories, category)

	l.log.Debug().Str("month", month.String()).Str("category", category.Name).Msg("category added")
	l.notify()

	return category, nil
}

// UpdateCategory changes a category's name, allocation or color.
func (l *Ledger) UpdateCategory(month types.Month, id uuid.UUID, params CategoryParams) (models.Category, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.Category{}, models.ErrNotFound
	}

	category := period.Category(id)
	if category == nil {
		return models.Category{}, models.ErrNotFound
	}

	updated := *category
	updated.Name = strings.TrimSpace(params.Name)
	updated.Allocated = params.Allocated
	updated.Color = params.Color

	if err := updated.Validate(); err != nil {
		return models.Category{}, err
	}

	*category = updated
	l.notify()

	return updated, nil
}

// DeleteCategory removes a category from the month. All expenses and
// reimbursements referencing it in the same month are removed with it, and
// the display order of the remaining categories is renumbered.
func (l *Ledger) DeleteCategory(month types.Month, id uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.ErrNotFound
	}

	index := slices.IndexFunc(period.Categories, func(c models.Category) bool { return c.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	period.Categories = slices.Delete(period.Categories, index, index+1)
	renumberCategories(period)

	period.Expenses = slices.DeleteFunc(period.Expenses, func(e models.Expense) bool {
		return e.CategoryID == id
	})
	period.Reimbursements = slices.DeleteFunc(period.Reimbursements, func(r models.Reimbursement) bool {
		return r.CategoryID == id
	})

	l.recompute(period)
	l.recomputeFunding()

	l.log.Debug().Str("month", month.String()).Str("id", id.String()).Msg("category deleted")
	l.notify()

	return nil
}

// ReorderCategory swaps a category with its logical neighbor in the given
// direction and renumbers the month's display order densely from zero.
// Moving the first category up or the last one down is a no-op.
func (l *Ledger) ReorderCategory(month types.Month, id uuid.UUID, direction Direction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	period := l.period(month)
	if period == nil {
		return models.ErrNotFound
	}

	slices.SortFunc(period.Categories, func(a, b models.Category) int { return a.Order - b.Order })

	index := slices.IndexFunc(period.Categories, func(c models.Category) bool { return c.ID == id })
	if index < 0 {
		return models.ErrNotFound
	}

	neighbor := index - 1
	if direction == Down {
		neighbor = index + 1
	}

	if neighbor < 0 || neighbor >= len(period.Categories) {
		return nil
	}

	period.Categories[index], period.Categories[neighbor] = period.Categories[neighbor], period.Categories[index]
	renumberCategories(period)

	l.notify()
	return nil
}

// renumberCategories reassigns a dense 0-based display order following the
// current slice order.
func renumberCategories(period *models.MonthPeriod) {
	for i := range period.Categories {
		period.Categories[i].Order = i
	}
}
