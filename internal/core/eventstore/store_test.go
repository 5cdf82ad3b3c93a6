package eventstore

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quicktimer/internal/core/model"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

func (clock *fakeClock) Now() time.Time {
	clock.mu.Lock()
	defer clock.mu.Unlock()
	return clock.now
}

func (clock *fakeClock) Advance(delta time.Duration) {
	clock.mu.Lock()
	clock.now = clock.now.Add(delta)
	clock.mu.Unlock()
}

type recordingPersister struct {
	mu      sync.Mutex
	initial model.State
	loadErr error
	saveErr error
	saves   []model.State
}

func (persister *recordingPersister) Load() (model.State, error) {
	if persister.loadErr != nil {
		return model.State{}, persister.loadErr
	}
	return persister.initial, nil
}

func (persister *recordingPersister) Save(state model.State) error {
	persister.mu.Lock()
	defer persister.mu.Unlock()
	if persister.saveErr != nil {
		return persister.saveErr
	}
	persister.saves = append(persister.saves, state)
	return nil
}

func (persister *recordingPersister) saveCount() int {
	persister.mu.Lock()
	defer persister.mu.Unlock()
	return len(persister.saves)
}

func (persister *recordingPersister) last() model.State {
	persister.mu.Lock()
	defer persister.mu.Unlock()
	return persister.saves[len(persister.saves)-1]
}

func openTestStore(t *testing.T, persister Persister) (*Store, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	store := Open(persister, zerolog.Nop(), Config{FlushInterval: 5 * time.Second, Clock: clock})
	t.Cleanup(store.Close)
	return store, clock
}

func TestStoreScenario(t *testing.T) {
	persister := &recordingPersister{}
	store, _ := openTestStore(t, persister)

	event, ok := store.Create("Writing")
	require.True(t, ok)
	assert.Equal(t, model.Event{ID: 1, Name: "Writing", Status: model.StatusStopped}, event)

	require.NoError(t, store.Play(1))
	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, 1, active.ID)

	require.NoError(t, store.Accrue(1, time.Second))
	require.NoError(t, store.Accrue(1, time.Second))

	store.Stop()
	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusStopped, events[0].Status)
	assert.Equal(t, 2000*time.Millisecond, events[0].Duration)
	assert.Equal(t, 2000*time.Millisecond, persister.last().Events[0].Duration)

	require.NoError(t, store.Delete(1))
	assert.Empty(t, store.Events())
	_, ok = store.Active()
	assert.False(t, ok)
}

func TestStoreCreateBlankIsNoop(t *testing.T) {
	persister := &recordingPersister{}
	store, _ := openTestStore(t, persister)
	store.Create("Writing")
	before := store.Snapshot()
	saves := persister.saveCount()

	_, ok := store.Create("")
	assert.False(t, ok)
	_, ok = store.Create("   ")
	assert.False(t, ok)

	assert.Equal(t, before, store.Snapshot())
	assert.Equal(t, saves, persister.saveCount())
}

func TestStoreMutationsPersist(t *testing.T) {
	persister := &recordingPersister{}
	store, _ := openTestStore(t, persister)

	store.Create("a")
	store.Create("b")
	require.NoError(t, store.Play(2))
	store.Stop()
	require.NoError(t, store.Delete(1))

	assert.Equal(t, 5, persister.saveCount())
	assert.Equal(t, model.State{
		NextID: 3,
		Events: []model.Event{{ID: 2, Name: "b", Status: model.StatusStopped}},
	}, persister.last())
}

func TestStoreUnknownIDsReportNotFound(t *testing.T) {
	persister := &recordingPersister{}
	store, _ := openTestStore(t, persister)
	store.Create("a")
	saves := persister.saveCount()

	assert.True(t, IsNotFound(store.Play(9)))
	assert.True(t, IsNotFound(store.Delete(9)))
	assert.True(t, IsNotFound(store.Accrue(9, time.Second)))
	assert.Equal(t, saves, persister.saveCount())
}

func TestStoreAccrueOnlyWhilePlaying(t *testing.T) {
	store, _ := openTestStore(t, nil)
	store.Create("a")

	assert.ErrorIs(t, store.Accrue(1, 500*time.Millisecond), ErrNotPlaying)
	assert.Zero(t, store.Events()[0].Duration)

	require.NoError(t, store.Play(1))
	require.NoError(t, store.Accrue(1, 500*time.Millisecond))
	assert.Equal(t, 500*time.Millisecond, store.Events()[0].Duration)
}

func TestStoreAccrualSavesAreThrottled(t *testing.T) {
	persister := &recordingPersister{}
	store, clock := openTestStore(t, persister)
	store.Create("a")
	require.NoError(t, store.Play(1))
	saves := persister.saveCount()

	for i := 0; i < 10; i++ {
		clock.Advance(100 * time.Millisecond)
		require.NoError(t, store.Accrue(1, 100*time.Millisecond))
	}
	assert.Equal(t, saves, persister.saveCount())

	clock.Advance(5 * time.Second)
	require.NoError(t, store.Accrue(1, 100*time.Millisecond))
	assert.Equal(t, saves+1, persister.saveCount())
	assert.Equal(t, 1100*time.Millisecond, persister.last().Events[0].Duration)
}

func TestStoreUpdateConfigChangesAccrualSaves(t *testing.T) {
	persister := &recordingPersister{}
	store, clock := openTestStore(t, persister)
	store.Create("a")
	require.NoError(t, store.Play(1))
	saves := persister.saveCount()

	store.UpdateConfig(Config{FlushInterval: time.Second})
	assert.Equal(t, time.Second, store.FlushInterval())

	clock.Advance(1500 * time.Millisecond)
	require.NoError(t, store.Accrue(1, 1500*time.Millisecond))
	assert.Equal(t, saves+1, persister.saveCount())

	store.UpdateConfig(Config{FlushInterval: time.Minute})
	clock.Advance(10 * time.Second)
	require.NoError(t, store.Accrue(1, 10*time.Second))
	assert.Equal(t, saves+1, persister.saveCount())

	// Shortening the interval saves pending accrual that is already overdue.
	store.UpdateConfig(Config{FlushInterval: 2 * time.Second})
	assert.Equal(t, saves+2, persister.saveCount())
	assert.Equal(t, 11500*time.Millisecond, persister.last().Events[0].Duration)

	store.UpdateConfig(Config{})
	assert.Equal(t, DefaultFlushInterval, store.FlushInterval())
}

func TestStoreCloseFlushesPendingAccrual(t *testing.T) {
	persister := &recordingPersister{}
	clock := newFakeClock()
	store := Open(persister, zerolog.Nop(), Config{Clock: clock})
	store.Create("a")
	require.NoError(t, store.Play(1))
	require.NoError(t, store.Accrue(1, 750*time.Millisecond))

	store.Close()
	store.Close()

	assert.Equal(t, 750*time.Millisecond, persister.last().Events[0].Duration)
}

func TestStoreLoadsAndNormalizesState(t *testing.T) {
	persister := &recordingPersister{initial: model.State{
		NextID: 1,
		Events: []model.Event{
			{ID: 3, Name: "a", Status: model.StatusPlaying, Duration: time.Minute},
			{ID: 5, Name: "b", Status: model.StatusPlaying},
		},
	}}
	store, _ := openTestStore(t, persister)

	active, ok := store.Active()
	require.True(t, ok)
	assert.Equal(t, 3, active.ID)

	created, ok := store.Create("c")
	require.True(t, ok)
	assert.Equal(t, 6, created.ID)
}

func TestStoreLoadFailureStartsEmpty(t *testing.T) {
	persister := &recordingPersister{loadErr: errors.New("corrupt")}
	store, _ := openTestStore(t, persister)

	assert.Empty(t, store.Events())
	event, ok := store.Create("a")
	require.True(t, ok)
	assert.Equal(t, 1, event.ID)
}

func TestStoreSaveFailureDoesNotFailMutation(t *testing.T) {
	persister := &recordingPersister{saveErr: errors.New("disk full")}
	store, _ := openTestStore(t, persister)

	_, ok := store.Create("a")
	require.True(t, ok)
	require.NoError(t, store.Play(1))
	assert.Len(t, store.Events(), 1)
}

func TestStoreSubscribeReceivesChanges(t *testing.T) {
	store, _ := openTestStore(t, nil)
	changes := store.Subscribe(8)

	store.Create("a")
	require.NoError(t, store.Play(1))
	require.NoError(t, store.Accrue(1, time.Millisecond))
	store.Stop()
	require.NoError(t, store.Delete(1))

	var kinds []ChangeKind
	for i := 0; i < 5; i++ {
		change := <-changes
		assert.Equal(t, 1, change.EventID)
		kinds = append(kinds, change.Kind)
	}
	assert.Equal(t, []ChangeKind{ChangeCreated, ChangePlayed, ChangeAccrued, ChangeStopped, ChangeDeleted}, kinds)
}

func TestStoreSlowSubscriberDoesNotBlock(t *testing.T) {
	store, _ := openTestStore(t, nil)
	changes := store.Subscribe(1)

	for i := 0; i < 10; i++ {
		store.Create("a")
	}
	assert.Len(t, changes, 1)
	assert.Len(t, store.Events(), 10)
}

func TestStoreCloseClosesSubscribers(t *testing.T) {
	store := Open(nil, zerolog.Nop(), Config{})
	changes := store.Subscribe(1)
	store.Close()

	_, open := <-changes
	assert.False(t, open)

	late := store.Subscribe(1)
	_, open = <-late
	assert.False(t, open)
}

func TestStoreSingleActiveUnderConcurrentIntents(t *testing.T) {
	store, _ := openTestStore(t, nil)
	for i := 0; i < 5; i++ {
		store.Create("e")
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := (offset+i)%5 + 1
				switch i % 3 {
				case 0:
					_ = store.Play(id)
				case 1:
					_ = store.Accrue(id, time.Millisecond)
				case 2:
					if active, ok := store.Active(); ok {
						_ = store.Accrue(active.ID, time.Millisecond)
					}
				}
				playing := 0
				for _, event := range store.Events() {
					if event.Playing() {
						playing++
					}
				}
				assert.LessOrEqual(t, playing, 1)
			}
		}(g)
	}
	wg.Wait()
}
