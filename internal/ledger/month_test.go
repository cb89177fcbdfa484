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

func (suite *TestSuiteStandard) TestGetMonthNotFound() {
	l, _ := suite.createTestLedger(date(2025, time.March, 10))

	_, err := l.GetMonth(types.NewMonth(2020, time.January))
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *TestSuiteStandard) TestEnsureCurrentMonthIsNoopWithinMonth() {
	l, clock := suite.createTestLedger(date(2025, time.March, 10))

	before := l.Snapshot()
	clock.Advance(24 * time.Hour)

	require.NoError(suite.T(), l.EnsureCurrentMonth())
	assert.Equal(suite.T(), before.Revision, l.Snapshot().Revision)
}

func (suite *TestSuiteStandard) TestEnsureCurrentMonthRollsOver() {
	l, clock := suite.createTestLedger(date(2025, time.March, 10), ledger.WithSalary(decimal.NewFromFloat(2000)))
	march := types.NewMonth(2025, time.March)

	groceries := suite.createTestCategory(l, march, "Groceries", 500)
	subscriptions := suite.createTestCategory(l, march, "Subscriptions", 50)

	suite.createTestExpense(l, march, ledger.ExpenseParams{
		CategoryID:  groceries.ID,
		Amount:      decimal.NewFromFloat(300),
		Description: "Monthly shop",
	})
	netflix := suite.createTestExpense(l, march, ledger.ExpenseParams{
		CategoryID:  subscriptions.ID,
		Amount:      decimal.NewFromFloat(15),
		Description: "Netflix",
		IsRecurring: true,
	})

	_, err := l.AddIncome(march, ledger.IncomeParams{
		Amount:      decimal.NewFromFloat(100),
		Description: "Refund",
	})
	require.NoError(suite.T(), err)

	clock.AdvanceToNextMonth()
	require.NoError(suite.T(), l.EnsureCurrentMonth())

	april := types.NewMonth(2025, time.April)
	active := l.ActiveMonth()
	assert.True(suite.T(), active.Month.Equal(april))

	// The category list carries over with identities and allocations
	// intact and spending reset to the reseeded recurring expenses.
	require.NotNil(suite.T(), active.Category(groceries.ID))
	require.NotNil(suite.T(), active.Category(subscriptions.ID))
	assert.True(suite.T(), active.Category(groceries.ID).Allocated.Equal(decimal.NewFromFloat(500)))
	assert.True(suite.T(), active.Category(groceries.ID).Spent.IsZero())

	require.Len(suite.T(), active.Expenses, 1)
	reseeded := active.Expenses[0]
	assert.True(suite.T(), reseeded.SamePattern(netflix))
	assert.NotEqual(suite.T(), netflix.ID, reseeded.ID)
	assert.Equal(suite.T(), april.FirstInstant(), reseeded.Timestamp)

	// One-off income does not carry over, the salary does.
	assert.Empty(suite.T(), active.AdditionalIncome)
	assert.True(suite.T(), active.SalaryIncome.Equal(decimal.NewFromFloat(2000)))
	assert.True(suite.T(), active.BudgetTotal.Equal(decimal.NewFromFloat(2000)))

	// The stale month ends up archived with its full history.
	state := l.Snapshot()
	archive := state.Archive(march)
	require.NotNil(suite.T(), archive)
	assert.NotNil(suite.T(), archive.ArchivedAt)
	assert.Len(suite.T(), archive.Expenses, 2)
	assert.True(suite.T(), archive.TotalSpent.Equal(decimal.NewFromFloat(315)))
	assert.True(suite.T(), archive.BudgetTotal.Equal(decimal.NewFromFloat(2100)))
}

func (suite *TestSuiteStandard) TestEnsureCurrentMonthSkipsGaps() {
	l, clock := suite.createTestLedger(date(2025, time.March, 10))
	march := types.NewMonth(2025, time.March)

	suite.createTestCategory(l, march, "Groceries", 500)

	// The ledger was not opened for three months.
	clock.Advance(90 * 24 * time.Hour)
	require.NoError(suite.T(), l.EnsureCurrentMonth())

	assert.True(suite.T(), l.ActiveMonth().Month.Equal(types.NewMonth(2025, time.June)))

	state := l.Snapshot()
	require.Len(suite.T(), state.Archives, 1, "skipped months get no synthesized periods")
	assert.True(suite.T(), state.Archives[0].Month.Equal(march))

	_, err := l.GetMonth(types.NewMonth(2025, time.April))
	assert.ErrorIs(suite.T(), err, models.ErrNotFound)
}

func (suite *TestSuiteStandard) TestEnsureCurrentMonthLeavesFutureAlone() {
	now := date(2025, time.March, 10)

	state := models.LedgerState{
		UserKey: "test-user",
		Active: models.MonthPeriod{
			ID:      uuid.New(),
			UserKey: "test-user",
			Month:   types.NewMonth(2025, time.May),
		},
	}

	l := ledger.FromState(state, ledger.WithClock(func() time.Time { return now }))

	require.NoError(suite.T(), l.EnsureCurrentMonth())
	assert.True(suite.T(), l.ActiveMonth().Month.Equal(types.NewMonth(2025, time.May)))
	assert.Empty(suite.T(), l.Snapshot().Archives)
}
