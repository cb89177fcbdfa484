package models

import (
	"encoding/json"
	"time"

	"pennywise/internal/types"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerState is the full budgeting state of one user: the active month, all
// archived months, savings goals and long-term goals.
//
// The state is always handled as a whole. Mutations produce a new consistent
// snapshot and the persistence layer durably writes complete snapshots, so
// derived figures can never be observed mid-update.
type LedgerState struct {
	UserKey string `json:"-"`

	// Revision changes with every mutation. The persistence layer uses it
	// to tell a remote update apart from the echo of its own write.
	Revision uuid.UUID `json:"revision"`

	// Salary is the fixed monthly salary figure. New months snapshot it
	// into their SalaryIncome.
	Salary decimal.Decimal `json:"salary"`

	UpdatedAt time.Time `json:"updatedAt"`

	Active        MonthPeriod          `json:"active"`
	Archives      []MonthPeriod        `json:"archives"`
	SavingsGoals  []MonthlySavingsGoal `json:"savingsGoals"`
	LongTermGoals []LongTermGoal       `json:"longTermGoals"`
}

// Archive returns a pointer to the archived period with the given month key,
// or nil. The active month is not considered even when its key matches.
func (s *LedgerState) Archive(month types.Month) *MonthPeriod {
	for i := range s.Archives {
		if s.Archives[i].Month.Equal(month) {
			return &s.Archives[i]
		}
	}

	return nil
}

// Clone returns a deep copy of the state. Snapshots handed out to consumers
// and to the persistence layer are always clones, so neither side can reach
// into the ledger's own records.
func (s LedgerState) Clone() LedgerState {
	c := s
	c.Active = s.Active.Clone()

	c.Archives = make([]MonthPeriod, len(s.Archives))
	for i, a := range s.Archives {
		c.Archives[i] = a.Clone()
	}

	c.SavingsGoals = append([]MonthlySavingsGoal(nil), s.SavingsGoals...)
	c.LongTermGoals = append([]LongTermGoal(nil), s.LongTermGoals...)

	return c
}

// Export returns the state as JSON for backups. Unset optional fields are
// omitted entirely, matching what the durable store writes.
func (s LedgerState) Export() (json.RawMessage, error) {
	j, err := json.Marshal(&s)
	if err != nil {
		return json.RawMessage{}, err
	}

	return json.RawMessage(j), nil
}
