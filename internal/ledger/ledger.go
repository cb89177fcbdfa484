// Package ledger implements the budgeting state engine.
//
// A Ledger owns the full budgeting state of one user and applies all
// mutations as synchronous, in-process state transitions. Consumers read
// snapshots and issue commands; they never reach into the state directly.
// Derived figures (category spend, month totals, long-term goal funding) are
// recomputed at the end of every mutating operation, so every snapshot
// handed out is internally consistent.
package ledger

import (
	"sync"
	"time"

	"pennywise/internal/models"
	"pennywise/internal/receipts"
	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
)

// Direction moves a ranked resource up or down by one place.
type Direction int

const (
	Up Direction = iota
	Down
)

// Ledger is the state engine for a single user's budget.
type Ledger struct {
	// mu serializes command handlers with remote updates applied by the
	// persistence layer. There is no other internal concurrency.
	mu sync.Mutex

	state    models.LedgerState
	now      func() time.Time
	log      zerolog.Logger
	receipts receipts.Store

	subscribers []func(models.LedgerState)
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source. The clock decides which calendar month is
// the current one.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(l *Ledger) { l.log = log }
}

// WithReceiptStore sets the receipt storage collaborator. Without one,
// receipt references are carried as opaque strings and never deleted.
func WithReceiptStore(store receipts.Store) Option {
	return func(l *Ledger) { l.receipts = store }
}

// WithSalary sets the fixed monthly salary for a fresh ledger.
func WithSalary(salary decimal.Decimal) Option {
	return func(l *Ledger) { l.state.Salary = salary }
}

// New returns a fresh ledger for the user with an empty active month for the
// current calendar month.
func New(userKey string, options ...Option) *Ledger {
	l := &Ledger{
		state: models.LedgerState{UserKey: userKey},
		now:   time.Now,
		log:   zerolog.Nop(),
	}

	for _, option := range options {
		option(l)
	}

	now := l.now()
	l.state.Revision = uuid.New()
	l.state.UpdatedAt = now
	l.state.Active = models.MonthPeriod{
		ID:           uuid.New(),
		UserKey:      userKey,
		Month:        types.MonthOf(now),
		SalaryIncome: l.state.Salary,
		BudgetTotal:  l.state.Salary,
		CreatedDate:  now,
	}

	return l
}

// FromState returns a ledger resuming from a previously persisted state.
// All derived figures are recomputed before the state becomes visible.
func FromState(state models.LedgerState, options ...Option) *Ledger {
	l := &Ledger{
		state: state.Clone(),
		now:   time.Now,
		log:   zerolog.Nop(),
	}

	for _, option := range options {
		option(l)
	}

	l.sortArchives()
	l.recomputeAll()

	return l
}

// UserKey returns the key of the user this ledger belongs to.
func (l *Ledger) UserKey() string {
	return l.state.UserKey
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() models.LedgerState {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.state.Clone()
}

// OnChange registers a handler that receives a snapshot after every applied
// mutation. Handlers are called synchronously from the mutating command.
func (l *Ledger) OnChange(handler func(models.LedgerState)) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.subscribers = append(l.subscribers, handler)
}

// ApplyRemote replaces the full state with one received from the persistence
// layer, e.g. after an edit on another device. Derived figures are
// recomputed, change handlers are not called: a remote state is already
// durable and writing it back would loop.
func (l *Ledger) ApplyRemote(state models.LedgerState) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = state.Clone()
	l.sortArchives()
	l.recomputeAll()

	l.log.Debug().Str("revision", l.state.Revision.String()).Msg("applied remote state")
}

// SetSalary updates the fixed salary figure and the active month's snapshot
// of it.
func (l *Ledger) SetSalary(salary decimal.Decimal) error {
	if salary.IsNegative() {
		return models.ErrAmountNotPositive
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.state.Salary = salary
	l.state.Active.SalaryIncome = salary
	l.recompute(&l.state.Active)
	l.notify()

	return nil
}

// notify stamps a new revision and hands a snapshot to all change handlers.
// Must be called with the mutex held, as the last step of a mutation.
func (l *Ledger) notify() {
	l.state.Revision = uuid.New()
	l.state.UpdatedAt = l.now()

	snapshot := l.state.Clone()
	for _, handler := range l.subscribers {
		handler(snapshot)
	}
}

// period resolves a month key to the period it addresses. The active month
// wins when an archive exists for the same key.
func (l *Ledger) period(month types.Month) *models.MonthPeriod {
	if l.state.Active.Month.Equal(month) {
		return &l.state.Active
	}

	return l.state.Archive(month)
}

// periods returns all periods in chronological order, the active month last.
// When the active month shares its key with an archive, the archive comes
// directly before it.
func (l *Ledger) periods() []*models.MonthPeriod {
	all := make([]*models.MonthPeriod, 0, len(l.state.Archives)+1)
	for i := range l.state.Archives {
		all = append(all, &l.state.Archives[i])
	}

	all = append(all, &l.state.Active)
	return all
}

func (l *Ledger) sortArchives() {
	slices.SortFunc(l.state.Archives, func(a, b models.MonthPeriod) int {
		switch {
		case a.Month.Before(b.Month):
			return -1
		case a.Month.After(b.Month):
			return 1
		default:
			return 0
		}
	})
}

// recompute refreshes all derived figures of a period: every category's
// spend and the period's total spent. For the active month the budget total
// follows the income records; archived months keep the budget recorded when
// they were closed.
func (l *Ledger) recompute(period *models.MonthPeriod) {
	for i := range period.Categories {
		period.Categories[i].Spent = period.SpentFor(period.Categories[i].ID)
	}

	period.TotalSpent = period.ExpenseSum()

	if period == &l.state.Active {
		period.BudgetTotal = period.Income()
	}
}

// recomputeAll refreshes derived figures of every period and the long-term
// goal funding.
func (l *Ledger) recomputeAll() {
	for _, period := range l.periods() {
		l.recompute(period)
	}

	l.recomputeFunding()
}
