package persistence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"pennywise/internal/ledger"
	"pennywise/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultDebounceWindow is how long the writer waits for further mutations
// before durably writing a snapshot.
const DefaultDebounceWindow = 500 * time.Millisecond

// Writer coalesces ledger mutations into debounced durable writes.
//
// Every mutation hands the writer a fresh snapshot and restarts the debounce
// timer; only the latest snapshot is ever written. A failed write keeps the
// snapshot pending, to be retried on the next mutation or an explicit Flush.
// While a write is in flight the writer marks itself as saving, so the echo
// of its own write coming back through a subscription can be told apart from
// a genuine remote update.
type Writer struct {
	coordinator Coordinator
	userKey     string
	window      time.Duration
	log         zerolog.Logger

	mu        sync.Mutex
	pending   *models.LedgerState
	saving    bool
	lastSaved uuid.UUID

	running bool
	kick    chan struct{}
	flush   chan chan error
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWriter returns a writer for one user's ledger. A window of zero uses
// DefaultDebounceWindow.
func NewWriter(coordinator Coordinator, userKey string, window time.Duration, log zerolog.Logger) *Writer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	return &Writer{
		coordinator: coordinator,
		userKey:     userKey,
		window:      window,
		log:         log,
	}
}

// Attach wires the writer to a ledger: mutations schedule debounced writes,
// and remote updates from the coordinator are applied back onto the ledger
// unless they are echoes of this writer's own saves.
func (w *Writer) Attach(ctx context.Context, l *ledger.Ledger) (func(), error) {
	l.OnChange(w.Enqueue)

	return w.coordinator.Subscribe(ctx, w.userKey,
		func(state models.LedgerState) {
			if w.IsEcho(state) {
				return
			}

			l.ApplyRemote(state)
		},
		func(err error) {
			w.log.Warn().Err(err).Msg("subscription error")
		},
	)
}

// Start launches the background write loop.
func (w *Writer) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("writer is already running")
	}
	w.running = true
	w.kick = make(chan struct{}, 1)
	w.flush = make(chan chan error)
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.run(ctx)

	w.log.Debug().Dur("window", w.window).Msg("persistence writer started")
	return nil
}

// Stop writes any pending snapshot and stops the loop.
func (w *Writer) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Enqueue schedules a snapshot for writing, replacing any snapshot still
// pending and restarting the debounce timer.
func (w *Writer) Enqueue(state models.LedgerState) {
	w.mu.Lock()
	w.pending = &state
	running := w.running
	w.mu.Unlock()

	if !running {
		return
	}

	select {
	case w.kick <- struct{}{}:
	default:
	}
}

// Flush writes the pending snapshot immediately, if there is one. This is
// the explicit retry path after a failed save.
func (w *Writer) Flush(ctx context.Context) error {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()

	if !running {
		return w.save(ctx)
	}

	done := make(chan error, 1)
	select {
	case w.flush <- done:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsEcho reports whether a state delivered by a subscription is merely the
// echo of a write this writer issued itself.
func (w *Writer) IsEcho(state models.LedgerState) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.saving || state.Revision == w.lastSaved
}

func (w *Writer) run(ctx context.Context) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.window)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-w.kick:
			// A new mutation arrived, wait for the window to pass
			// without further ones.
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.window)

		case <-timer.C:
			if err := w.save(ctx); err != nil {
				w.log.Warn().Err(err).Msg("durable write failed, edits stay local until the next attempt")
			}

		case done := <-w.flush:
			done <- w.save(ctx)

		case <-w.stopCh:
			if err := w.save(ctx); err != nil {
				w.log.Error().Err(err).Msg("final durable write failed")
			}
			return

		case <-ctx.Done():
			return
		}
	}
}

// save writes the pending snapshot, if any. On failure the snapshot stays
// pending.
func (w *Writer) save(ctx context.Context) error {
	w.mu.Lock()
	state := w.pending
	if state == nil {
		w.mu.Unlock()
		return nil
	}
	w.pending = nil
	w.saving = true
	w.mu.Unlock()

	err := w.coordinator.Save(ctx, *state)

	w.mu.Lock()
	w.saving = false
	if err != nil {
		// Keep the snapshot for a retry unless a newer one arrived in
		// the meantime.
		if w.pending == nil {
			w.pending = state
		}
	} else {
		w.lastSaved = state.Revision
	}
	w.mu.Unlock()

	return err
}
