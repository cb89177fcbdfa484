package persistence

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"pennywise/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// ledgerRecord is the per-user root row. Months and goals hang off the user
// key; the row itself carries the ledger-wide fields.
type ledgerRecord struct {
	UserKey   string `gorm:"primaryKey"`
	Revision  uuid.UUID
	Salary    decimal.Decimal `gorm:"type:DECIMAL(20,8)"`
	UpdatedAt time.Time
}

func (ledgerRecord) TableName() string {
	return "ledgers"
}

// Store is a SQLite-backed Coordinator. Every save replaces the user's rows
// inside one transaction, so a stored state is always a complete snapshot.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger

	mu          sync.Mutex
	closed      bool
	subscribers map[string]map[int]subscriber
	nextSubID   int
}

type subscriber struct {
	onUpdate func(models.LedgerState)
	onError  func(error)
}

// Connect opens the SQLite database, migrates the schema and returns the
// store.
func Connect(dsn string, log zerolog.Logger) (*Store, error) {
	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: &logger{Logger: log},
	}

	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("%s?_pragma=foreign_keys(1)", dsn)), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		ledgerRecord{},
		models.MonthPeriod{},
		models.Category{},
		models.Expense{},
		models.Reimbursement{},
		models.AdditionalIncome{},
		models.MonthlySavingsGoal{},
		models.LongTermGoal{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	// A single connection prevents SQLITE_BUSY errors.
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetMaxOpenConns(1)

	return &Store{
		db:          db,
		log:         log,
		subscribers: map[string]map[int]subscriber{},
	}, nil
}

// Close closes the database connection. Subscriptions stop delivering.
func (s *Store) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

// Load reads the full stored state of a user.
func (s *Store) Load(_ context.Context, userKey string) (models.LedgerState, error) {
	var record ledgerRecord
	err := s.db.First(&record, "user_key = ?", userKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.LedgerState{}, models.ErrNotFound
	}
	if err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to load ledger: %w", err)
	}

	var periods []models.MonthPeriod
	err = s.db.
		Preload("Categories").
		Preload("Expenses").
		Preload("Reimbursements").
		Preload("AdditionalIncome").
		Where("user_key = ?", userKey).
		Find(&periods).Error
	if err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to load months: %w", err)
	}

	state := models.LedgerState{
		UserKey:   record.UserKey,
		Revision:  record.Revision,
		Salary:    record.Salary,
		UpdatedAt: record.UpdatedAt,
	}

	for _, period := range periods {
		if period.ArchivedAt == nil {
			state.Active = period
			continue
		}

		state.Archives = append(state.Archives, period)
	}

	slices.SortFunc(state.Archives, func(a, b models.MonthPeriod) int {
		switch {
		case a.Month.Before(b.Month):
			return -1
		case a.Month.After(b.Month):
			return 1
		default:
			return 0
		}
	})

	err = s.db.Where("user_key = ?", userKey).Find(&state.SavingsGoals).Error
	if err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to load savings goals: %w", err)
	}

	err = s.db.Order("position").Where("user_key = ?", userKey).Find(&state.LongTermGoals).Error
	if err != nil {
		return models.LedgerState{}, fmt.Errorf("failed to load goals: %w", err)
	}

	return state, nil
}

// Save replaces the stored state of the user with the snapshot. Subscribers
// for the user are notified afterwards.
func (s *Store) Save(_ context.Context, state models.LedgerState) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Old rows go away completely; children cascade with their
		// month.
		for _, model := range []interface{}{
			&models.MonthPeriod{},
			&models.MonthlySavingsGoal{},
			&models.LongTermGoal{},
			&ledgerRecord{},
		} {
			if err := tx.Where("user_key = ?", state.UserKey).Delete(model).Error; err != nil {
				return err
			}
		}

		record := ledgerRecord{
			UserKey:   state.UserKey,
			Revision:  state.Revision,
			Salary:    state.Salary,
			UpdatedAt: state.UpdatedAt,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		periods := append([]models.MonthPeriod{state.Active}, state.Archives...)
		for i := range periods {
			periods[i].UserKey = state.UserKey
			if err := tx.Create(&periods[i]).Error; err != nil {
				return err
			}
		}

		for i := range state.SavingsGoals {
			state.SavingsGoals[i].UserKey = state.UserKey
			if err := tx.Create(&state.SavingsGoals[i]).Error; err != nil {
				return err
			}
		}

		for i := range state.LongTermGoals {
			state.LongTermGoals[i].UserKey = state.UserKey
			if err := tx.Create(&state.LongTermGoals[i]).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}

	s.publish(state)
	return nil
}

// Subscribe registers update handlers for a user. The stored state, if any,
// is delivered once directly after subscribing.
func (s *Store) Subscribe(ctx context.Context, userKey string, onUpdate func(models.LedgerState), onError func(error)) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}

	id := s.nextSubID
	s.nextSubID++

	if s.subscribers[userKey] == nil {
		s.subscribers[userKey] = map[int]subscriber{}
	}
	s.subscribers[userKey][id] = subscriber{onUpdate: onUpdate, onError: onError}
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers[userKey], id)
	}

	go func() {
		state, err := s.Load(ctx, userKey)

		// The subscription may have been cancelled or the store closed
		// while the load ran; a late delivery must not fire then.
		s.mu.Lock()
		_, registered := s.subscribers[userKey][id]
		alive := registered && !s.closed
		s.mu.Unlock()

		if !alive || errors.Is(err, models.ErrNotFound) {
			return
		}
		if err != nil {
			onError(err)
			return
		}

		onUpdate(state)
	}()

	return unsubscribe, nil
}

// publish delivers a saved state to all subscribers of the user.
func (s *Store) publish(state models.LedgerState) {
	s.mu.Lock()
	subs := make([]subscriber, 0, len(s.subscribers[state.UserKey]))
	for _, sub := range s.subscribers[state.UserKey] {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		go sub.onUpdate(state.Clone())
	}
}
