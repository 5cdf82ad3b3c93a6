package storage

import (
	"fmt"
	"path/filepath"
	"sync"

	"quicktimer/internal/core/model"
	"quicktimer/internal/platform"
)

// EventPersister is a closable eventstore.Persister.
type EventPersister interface {
	Load() (model.State, error)
	Save(state model.State) error
	Close() error
}

// NewEventPersister creates a persister for backend rooted at dir.
func NewEventPersister(backend, dir string) (EventPersister, error) {
	if backend == "" {
		backend = model.BackendYAML
	}

	switch backend {
	case model.BackendYAML:
		return NewEventFile(filepath.Join(dir, eventsFileName)), nil
	case model.BackendSQLite:
		return OpenSQLiteEvents(filepath.Join(dir, eventsDBName))
	case model.BackendMemory:
		return NewMemoryEvents(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %s (supported: yaml, sqlite, memory)", backend)
	}
}

// DefaultDir returns the per-user data directory for appName.
func DefaultDir(appName string) (string, error) {
	configDir, err := platform.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}
	return filepath.Join(configDir, appName), nil
}

// MemoryEvents keeps the last saved state in process memory.
type MemoryEvents struct {
	mu    sync.Mutex
	state model.State
}

// NewMemoryEvents creates an empty in-memory persister.
func NewMemoryEvents() *MemoryEvents {
	return &MemoryEvents{state: model.EmptyState()}
}

func (store *MemoryEvents) Load() (model.State, error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	return store.state.Clone(), nil
}

func (store *MemoryEvents) Save(state model.State) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.state = state.Clone()
	return nil
}

func (store *MemoryEvents) Close() error {
	return nil
}
