// Package persistence durably stores ledger states and feeds remote updates
// back into running ledgers.
//
// The engine never blocks on persistence: mutations are applied in memory
// and a background writer coalesces them into durable writes. In-memory
// state stays the source of truth when a write fails.
package persistence

import (
	"context"
	"errors"

	"pennywise/internal/models"
)

// ErrClosed is returned for operations on a closed store.
var ErrClosed = errors.New("the store is closed")

// Coordinator is the contract between the ledger engine and durable storage.
type Coordinator interface {
	// Load returns the stored state for a user. A user without stored
	// state yields models.ErrNotFound.
	Load(ctx context.Context, userKey string) (models.LedgerState, error)

	// Save durably writes a full state snapshot, replacing whatever was
	// stored for the user before.
	Save(ctx context.Context, state models.LedgerState) error

	// Subscribe registers a handler for state updates of a user, e.g.
	// writes issued through another ledger instance. The handler also
	// receives the currently stored state once, directly after
	// subscribing. The returned function cancels the subscription.
	Subscribe(ctx context.Context, userKey string, onUpdate func(models.LedgerState), onError func(error)) (func(), error)
}
