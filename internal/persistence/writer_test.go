package persistence_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"pennywise/internal/ledger"
	"pennywise/internal/models"
	"pennywise/internal/persistence"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCoordinator records saves and exposes the subscription callback so
// tests can inject remote updates.
type fakeCoordinator struct {
	mu       sync.Mutex
	saves    []models.LedgerState
	failNext bool

	saveCh   chan models.LedgerState
	onUpdate func(models.LedgerState)
}

func newFakeCoordinator() *fakeCoordinator {
	return &fakeCoordinator{saveCh: make(chan models.LedgerState, 16)}
}

func (f *fakeCoordinator) Load(context.Context, string) (models.LedgerState, error) {
	return models.LedgerState{}, models.ErrNotFound
}

func (f *fakeCoordinator) Save(_ context.Context, state models.LedgerState) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failNext {
		f.failNext = false
		return errors.New("disk unavailable")
	}

	f.saves = append(f.saves, state)
	f.saveCh <- state
	return nil
}

func (f *fakeCoordinator) Subscribe(_ context.Context, _ string, onUpdate func(models.LedgerState), _ func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.onUpdate = onUpdate
	return func() {}, nil
}

func (f *fakeCoordinator) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.saves)
}

func testState(userKey string) models.LedgerState {
	return models.LedgerState{
		UserKey:  userKey,
		Revision: uuid.New(),
	}
}

func (suite *TestSuiteStandard) TestWriterCoalescesMutations() {
	coordinator := newFakeCoordinator()
	writer := persistence.NewWriter(coordinator, "user-debounce", 30*time.Millisecond, zerolog.Nop())

	require.NoError(suite.T(), writer.Start(context.Background()))
	defer func() { _ = writer.Stop(context.Background()) }()

	first := testState("user-debounce")
	second := testState("user-debounce")
	last := testState("user-debounce")

	writer.Enqueue(first)
	writer.Enqueue(second)
	writer.Enqueue(last)

	select {
	case saved := <-coordinator.saveCh:
		assert.Equal(suite.T(), last.Revision, saved.Revision, "only the newest snapshot is written")
	case <-time.After(2 * time.Second):
		suite.T().Fatal("debounced write never happened")
	}

	select {
	case <-coordinator.saveCh:
		suite.T().Fatal("coalesced snapshots must not produce extra writes")
	case <-time.After(100 * time.Millisecond):
	}

	assert.Equal(suite.T(), 1, coordinator.saveCount())
}

func (suite *TestSuiteStandard) TestWriterKeepsPendingOnFailure() {
	coordinator := newFakeCoordinator()
	coordinator.failNext = true
	writer := persistence.NewWriter(coordinator, "user-retry", time.Hour, zerolog.Nop())

	state := testState("user-retry")
	writer.Enqueue(state)

	require.Error(suite.T(), writer.Flush(context.Background()))
	assert.Equal(suite.T(), 0, coordinator.saveCount())

	// The snapshot stayed pending, the retry writes it.
	require.NoError(suite.T(), writer.Flush(context.Background()))
	require.Equal(suite.T(), 1, coordinator.saveCount())
	assert.Equal(suite.T(), state.Revision, coordinator.saves[0].Revision)

	// Nothing is pending anymore.
	require.NoError(suite.T(), writer.Flush(context.Background()))
	assert.Equal(suite.T(), 1, coordinator.saveCount())
}

func (suite *TestSuiteStandard) TestWriterStopWritesPending() {
	coordinator := newFakeCoordinator()
	writer := persistence.NewWriter(coordinator, "user-stop", time.Hour, zerolog.Nop())

	require.NoError(suite.T(), writer.Start(context.Background()))

	state := testState("user-stop")
	writer.Enqueue(state)

	require.NoError(suite.T(), writer.Stop(context.Background()))

	require.Equal(suite.T(), 1, coordinator.saveCount())
	assert.Equal(suite.T(), state.Revision, coordinator.saves[0].Revision)
}

func (suite *TestSuiteStandard) TestWriterEchoDetection() {
	coordinator := newFakeCoordinator()
	writer := persistence.NewWriter(coordinator, "user-echo", time.Hour, zerolog.Nop())

	state := testState("user-echo")
	writer.Enqueue(state)
	require.NoError(suite.T(), writer.Flush(context.Background()))

	assert.True(suite.T(), writer.IsEcho(state), "a state with the last saved revision is an echo")
	assert.False(suite.T(), writer.IsEcho(testState("user-echo")), "a foreign revision is a genuine remote update")
}

func (suite *TestSuiteStandard) TestWriterAttach() {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	l := ledger.New("user-attach", ledger.WithClock(func() time.Time { return now }))

	coordinator := newFakeCoordinator()
	writer := persistence.NewWriter(coordinator, "user-attach", time.Hour, zerolog.Nop())

	unsubscribe, err := writer.Attach(context.Background(), l)
	require.NoError(suite.T(), err)
	defer unsubscribe()

	// A local mutation lands in the writer as pending snapshot.
	require.NoError(suite.T(), l.SetSalary(decimal.NewFromFloat(1500)))
	require.NoError(suite.T(), writer.Flush(context.Background()))

	require.Equal(suite.T(), 1, coordinator.saveCount())
	saved := coordinator.saves[0]
	assert.True(suite.T(), saved.Salary.Equal(decimal.NewFromFloat(1500)))

	// The echo of that save must not be applied back onto the ledger.
	echo := saved.Clone()
	echo.Salary = decimal.NewFromFloat(99)
	coordinator.onUpdate(echo)
	assert.True(suite.T(), l.Snapshot().Salary.Equal(decimal.NewFromFloat(1500)))

	// A genuine remote update is.
	remote := saved.Clone()
	remote.Revision = uuid.New()
	remote.Salary = decimal.NewFromFloat(1800)
	coordinator.onUpdate(remote)
	assert.True(suite.T(), l.Snapshot().Salary.Equal(decimal.NewFromFloat(1800)))
}
