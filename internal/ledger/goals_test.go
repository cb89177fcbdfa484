package ledger_test

import (
	"time"

	"pennywise/internal/ledger"
	"pennywise/internal/models"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createSavingsHistory rolls a fresh ledger through January and February
// 2025 into March, leaving 700 saved in January and 500 in February.
func (suite *TestSuiteStandard) createSavingsHistory() (*ledger.Ledger, *testClock, uuid.UUID) {
	l, clock := suite.createTestLedger(date(2025, time.January, 5), ledger.WithSalary(decimal.NewFromFloat(1000)))

	category := suite.createTestCategory(l, types.NewMonth(2025, time.January), "Everything", 1000)
	suite.createTestExpense(l, types.NewMonth(2025, time.January), ledger.ExpenseParams{
		CategoryID:  category.ID,
		Amount:      decimal.NewFromFloat(300),
		Description: "January spending",
	})

	clock.AdvanceToNextMonth()
	require.NoError(suite.T(), l.EnsureCurrentMonth())

	suite.createTestExpense(l, types.NewMonth(2025, time.February), ledger.ExpenseParams{
		CategoryID:  category.ID,
		Amount:      decimal.NewFromFloat(500),
		Description: "February spending",
	})

	clock.AdvanceToNextMonth()
	require.NoError(suite.T(), l.EnsureCurrentMonth())

	return l, clock, category.ID
}

func (suite *TestSuiteStandard) TestWaterfallAllocation() {
	l, _, _ := suite.createSavingsHistory()

	emergency := suite.createTestGoal(l, "Emergency Fund", 1000)
	vacation := suite.createTestGoal(l, "Vacation", 500)
	car := suite.createTestGoal(l, "Car", 300)

	goals := l.LongTermGoals()
	require.Len(suite.T(), goals, 3)

	// The pool is 700 + 500 = 1200: the first goal fills completely, the
	// second takes the rest, the third gets nothing.
	assert.True(suite.T(), goals[0].CurrentAmount.Equal(decimal.NewFromFloat(1000)))
	assert.True(suite.T(), goals[1].CurrentAmount.Equal(decimal.NewFromFloat(200)))
	assert.True(suite.T(), goals[2].CurrentAmount.IsZero())

	assert.Equal(suite.T(), emergency.ID, goals[0].ID)
	assert.Equal(suite.T(), vacation.ID, goals[1].ID)
	assert.Equal(suite.T(), car.ID, goals[2].ID)

	total := decimal.Zero
	for _, goal := range goals {
		assert.True(suite.T(), goal.CurrentAmount.LessThanOrEqual(goal.TargetAmount))
		total = total.Add(goal.CurrentAmount)
	}
	assert.True(suite.T(), total.Equal(decimal.NewFromFloat(1200)), "allocation never invents money")
}

func (suite *TestSuiteStandard) TestWaterfallExcludesCurrentMonth() {
	l, _, _ := suite.createSavingsHistory()

	// The active March month has 1000 unspent. Closing it early stores an
	// archive under the current month key, which must not fund goals yet.
	require.NoError(suite.T(), l.CloseMonth(types.NewMonth(2025, time.March), false))

	goal := suite.createTestGoal(l, "Emergency Fund", 5000)

	goals := l.LongTermGoals()
	require.Len(suite.T(), goals, 1)
	assert.Equal(suite.T(), goal.ID, goals[0].ID)
	assert.True(suite.T(), goals[0].CurrentAmount.Equal(decimal.NewFromFloat(1200)), "only months before the current one fund goals")
}

func (suite *TestSuiteStandard) TestWaterfallReorderReattributes() {
	l, _, _ := suite.createSavingsHistory()

	suite.createTestGoal(l, "Emergency Fund", 1000)
	vacation := suite.createTestGoal(l, "Vacation", 500)
	suite.createTestGoal(l, "Car", 300)

	require.NoError(suite.T(), l.ReorderLongTermGoal(vacation.ID, ledger.Up))

	goals := l.LongTermGoals()
	require.Len(suite.T(), goals, 3)

	assert.Equal(suite.T(), "Vacation", goals[0].Name)
	assert.True(suite.T(), goals[0].CurrentAmount.Equal(decimal.NewFromFloat(500)))

	assert.Equal(suite.T(), "Emergency Fund", goals[1].Name)
	assert.True(suite.T(), goals[1].CurrentAmount.Equal(decimal.NewFromFloat(700)))

	assert.Equal(suite.T(), "Car", goals[2].Name)
	assert.True(suite.T(), goals[2].CurrentAmount.IsZero())
}

func (suite *TestSuiteStandard) TestManualGoalAmountIsTransient() {
	l, _, _ := suite.createSavingsHistory()

	emergency := suite.createTestGoal(l, "Emergency Fund", 1000)

	overridden, err := l.SetLongTermGoalAmount(emergency.ID, decimal.NewFromFloat(50))
	require.NoError(suite.T(), err)
	assert.True(suite.T(), overridden.CurrentAmount.Equal(decimal.NewFromFloat(50)))

	// Any allocation pass restores the waterfall figure.
	goals := l.RecomputeLongTermFunding()
	require.Len(suite.T(), goals, 1)
	assert.True(suite.T(), goals[0].CurrentAmount.Equal(decimal.NewFromFloat(1000)))

	_, err = l.SetLongTermGoalAmount(emergency.ID, decimal.NewFromFloat(-5))
	assert.ErrorIs(suite.T(), err, models.ErrAmountNotPositive)
}

func (suite *TestSuiteStandard) TestLongTermGoalValidationAndOrder() {
	l, _ := suite.createTestLedger(date(2025, time.March, 10))

	_, err := l.AddLongTermGoal(ledger.LongTermGoalParams{TargetAmount: decimal.NewFromFloat(100)})
	assert.ErrorIs(suite.T(), err, models.ErrNameEmpty)

	_, err = l.AddLongTermGoal(ledger.LongTermGoalParams{Name: "Car"})
	assert.ErrorIs(suite.T(), err, models.ErrTargetNotPositive)

	first := suite.createTestGoal(l, "Emergency Fund", 1000)
	second := suite.createTestGoal(l, "Vacation", 500)
	third := suite.createTestGoal(l, "Car", 300)

	require.NoError(suite.T(), l.DeleteLongTermGoal(second.ID))

	goals := l.LongTermGoals()
	require.Len(suite.T(), goals, 2)
	assert.Equal(suite.T(), first.ID, goals[0].ID)
	assert.Equal(suite.T(), 0, goals[0].Order)
	assert.Equal(suite.T(), third.ID, goals[1].ID)
	assert.Equal(suite.T(), 1, goals[1].Order)

	assert.ErrorIs(suite.T(), l.DeleteLongTermGoal(uuid.New()), models.ErrNotFound)
}

func (suite *TestSuiteStandard) TestUpdateLongTermGoal() {
	l, _, _ := suite.createSavingsHistory()

	goal := suite.createTestGoal(l, "Vacation", 2000)

	updated, err := l.UpdateLongTermGoal(goal.ID, ledger.LongTermGoalParams{
		Name:         "Japan Trip",
		TargetAmount: decimal.NewFromFloat(900),
		Notes:        "Spring 2026",
	})
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "Japan Trip", updated.Name)
	assert.Equal(suite.T(), "Spring 2026", updated.Notes)

	// Shrinking the target below the pool re-caps the funded amount.
	assert.True(suite.T(), updated.CurrentAmount.Equal(decimal.NewFromFloat(900)))
}

func (suite *TestSuiteStandard) TestSetSavingsGoal() {
	l, _, _ := suite.createSavingsHistory()
	february := types.NewMonth(2025, time.February)

	goal, err := l.SetSavingsGoal(february, decimal.NewFromFloat(400), "be careful")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "be careful", goal.Notes)

	// Setting it again replaces the record instead of stacking a second.
	replaced, err := l.SetSavingsGoal(february, decimal.NewFromFloat(450), "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), goal.ID, replaced.ID)

	_, err = l.SetSavingsGoal(february, decimal.NewFromFloat(-1), "")
	assert.ErrorIs(suite.T(), err, models.ErrGoalNegative)

	_, err = l.SetSavingsGoal(february, decimal.NewFromFloat(99999), "")
	assert.ErrorIs(suite.T(), err, models.ErrGoalAboveBudget)

	_, err = l.SetSavingsGoal(types.NewMonth(2019, time.May), decimal.NewFromFloat(10), "")
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *TestSuiteStandard) TestDeleteSavingsGoal() {
	l, _, _ := suite.createSavingsHistory()
	february := types.NewMonth(2025, time.February)

	_, err := l.SetSavingsGoal(february, decimal.NewFromFloat(400), "")
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), l.DeleteSavingsGoal(february))
	assert.ErrorIs(suite.T(), l.DeleteSavingsGoal(february), models.ErrNotFound)
}

func (suite *TestSuiteStandard) TestActualSavings() {
	l, _, _ := suite.createSavingsHistory()

	actual, err := l.ActualSavings(types.NewMonth(2025, time.January))
	require.NoError(suite.T(), err)
	assert.True(suite.T(), actual.Equal(decimal.NewFromFloat(700)))

	_, err = l.ActualSavings(types.NewMonth(2019, time.May))
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *TestSuiteStandard) TestSavingsOverview() {
	l, _, _ := suite.createSavingsHistory()

	_, err := l.SetSavingsGoal(types.NewMonth(2025, time.February), decimal.NewFromFloat(400), "tight month")
	require.NoError(suite.T(), err)

	overview := l.SavingsOverview()
	require.Len(suite.T(), overview, 3)

	assert.True(suite.T(), overview[0].Month.Equal(types.NewMonth(2025, time.January)))
	assert.True(suite.T(), overview[0].Actual.Equal(decimal.NewFromFloat(700)))
	assert.Nil(suite.T(), overview[0].Goal)

	assert.True(suite.T(), overview[1].Month.Equal(types.NewMonth(2025, time.February)))
	assert.True(suite.T(), overview[1].Actual.Equal(decimal.NewFromFloat(500)))
	require.NotNil(suite.T(), overview[1].Goal)
	assert.True(suite.T(), overview[1].Goal.Equal(decimal.NewFromFloat(400)))
	assert.Equal(suite.T(), "tight month", overview[1].Notes)

	assert.True(suite.T(), overview[2].Month.Equal(types.NewMonth(2025, time.March)), "the active month comes last")
}
