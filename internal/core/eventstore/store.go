package eventstore

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"quicktimer/internal/core/clock"
	"quicktimer/internal/core/model"
)

// Persister is the durable side of the store.
// Load returns an empty state and nil when nothing has been saved yet.
type Persister interface {
	Load() (model.State, error)
	Save(state model.State) error
}

// Config contains runtime options for Store.
type Config struct {
	// FlushInterval bounds how often accrual alone triggers a save.
	FlushInterval time.Duration
	Clock         clock.Clock
}

// DefaultFlushInterval is used when Config.FlushInterval is not set.
const DefaultFlushInterval = 5 * time.Second

// Store owns the event collection. Every mutation replaces the state with a
// new snapshot under the lock, so readers never observe a half-applied play.
type Store struct {
	mu        sync.Mutex
	state     model.State
	persister Persister
	options   Config
	logger    zerolog.Logger
	dirty     bool
	lastSave  time.Time
	events    []chan Change
	closed    bool
}

// Open creates a Store and loads its initial state from persister.
// A nil persister keeps the store in memory only. Load failures are logged
// and leave the store empty.
func Open(persister Persister, logger zerolog.Logger, options Config) *Store {
	if options.FlushInterval <= 0 {
		options.FlushInterval = DefaultFlushInterval
	}
	if options.Clock == nil {
		options.Clock = clock.System
	}

	store := &Store{
		state:     model.EmptyState(),
		persister: persister,
		options:   options,
		logger:    logger,
	}

	if persister != nil {
		loaded, err := persister.Load()
		if err != nil {
			logger.Warn().Err(err).Msg("load events failed, starting empty")
		} else {
			store.state = Normalize(loaded)
		}
	}
	store.lastSave = options.Clock.Now()
	logger.Debug().Int("events", len(store.state.Events)).Msg("event store opened")
	return store
}

// UpdateConfig replaces the flush interval of an open store. The clock is
// kept when options.Clock is nil.
func (store *Store) UpdateConfig(options Config) {
	store.mu.Lock()
	defer store.mu.Unlock()
	if options.FlushInterval <= 0 {
		options.FlushInterval = DefaultFlushInterval
	}
	if options.Clock == nil {
		options.Clock = store.options.Clock
	}
	store.options = options
	if store.dirty && options.Clock.Now().Sub(store.lastSave) >= options.FlushInterval {
		store.saveLocked(options.Clock.Now())
	}
}

// FlushInterval returns the current accrual save interval.
func (store *Store) FlushInterval() time.Duration {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.options.FlushInterval
}

// Subscribe registers a new observer channel.
func (store *Store) Subscribe(buffer int) <-chan Change {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Change, buffer)
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.closed {
		close(ch)
		return ch
	}
	store.events = append(store.events, ch)
	return ch
}

// Create adds a stopped event named name. It reports false and changes
// nothing when the trimmed name is empty.
func (store *Store) Create(name string) (model.Event, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	next, event, err := Create(store.state, name)
	if err != nil {
		store.logger.Debug().Err(err).Msg("create rejected")
		return model.Event{}, false
	}
	store.commitLocked(next, Change{Kind: ChangeCreated, EventID: event.ID})
	return event, true
}

// Play makes id the only playing event.
func (store *Store) Play(id int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	next, err := Play(store.state, id)
	if err != nil {
		store.logger.Debug().Err(err).Int("event_id", id).Msg("play ignored")
		return err
	}
	store.commitLocked(next, Change{Kind: ChangePlayed, EventID: id})
	return nil
}

// Stop stops every event.
func (store *Store) Stop() {
	store.mu.Lock()
	defer store.mu.Unlock()

	stopped := 0
	if active, ok := Active(store.state); ok {
		stopped = active.ID
	}
	store.commitLocked(Stop(store.state), Change{Kind: ChangeStopped, EventID: stopped})
}

// Delete removes the event with id.
func (store *Store) Delete(id int) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	next, err := Delete(store.state, id)
	if err != nil {
		store.logger.Debug().Err(err).Int("event_id", id).Msg("delete ignored")
		return err
	}
	store.commitLocked(next, Change{Kind: ChangeDeleted, EventID: id})
	return nil
}

// Accrue adds delta to id when it is still the playing event. Stale
// callers get ErrNotFound or ErrNotPlaying and the state is untouched.
func (store *Store) Accrue(id int, delta time.Duration) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	next, err := Accrue(store.state, id, delta)
	if err != nil {
		return err
	}
	store.state = next
	store.dirty = true

	now := store.options.Clock.Now()
	if now.Sub(store.lastSave) >= store.options.FlushInterval {
		store.saveLocked(now)
	}
	store.emitLocked(Change{Kind: ChangeAccrued, EventID: id, At: now})
	return nil
}

// Active returns the playing event, if any.
func (store *Store) Active() (model.Event, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return Active(store.state)
}

// Events returns a copy of the events in insertion order.
func (store *Store) Events() []model.Event {
	store.mu.Lock()
	defer store.mu.Unlock()
	return append([]model.Event(nil), store.state.Events...)
}

// Snapshot returns a copy of the full state.
func (store *Store) Snapshot() model.State {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.Clone()
}

// Flush saves pending accrual immediately.
func (store *Store) Flush() {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.dirty {
		store.saveLocked(store.options.Clock.Now())
	}
}

// Close flushes pending accrual and closes observer channels.
func (store *Store) Close() {
	store.mu.Lock()
	if store.closed {
		store.mu.Unlock()
		return
	}
	if store.dirty {
		store.saveLocked(store.options.Clock.Now())
	}
	store.closed = true
	events := store.events
	store.events = nil
	store.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (store *Store) commitLocked(next model.State, change Change) {
	now := store.options.Clock.Now()
	store.state = next
	store.dirty = true
	store.saveLocked(now)
	change.At = now
	store.emitLocked(change)
}

func (store *Store) saveLocked(now time.Time) {
	if store.persister == nil || store.closed {
		store.dirty = false
		return
	}
	store.lastSave = now
	if err := store.persister.Save(store.state.Clone()); err != nil {
		// Stay dirty so the next mutation, flush or Close retries.
		store.logger.Warn().Err(err).Msg("save events failed")
		return
	}
	store.dirty = false
}

func (store *Store) emitLocked(change Change) {
	for _, ch := range store.events {
		select {
		case ch <- change:
		default:
		}
	}
}

// IsNotFound reports whether err means the referenced event does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
