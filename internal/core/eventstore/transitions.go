package eventstore

import (
	"errors"
	"strings"
	"time"

	"quicktimer/internal/core/model"
)

var (
	// ErrEmptyName indicates a create request with a blank name.
	ErrEmptyName = errors.New("event name is empty")
	// ErrNotFound indicates the referenced event id does not exist.
	ErrNotFound = errors.New("event not found")
	// ErrNotPlaying indicates accrual for an event that is not running.
	ErrNotPlaying = errors.New("event is not playing")
)

// The functions below are pure transitions: they never modify the input
// state and return it unchanged on error.

// Create appends a stopped event with a fresh id.
func Create(state model.State, name string) (model.State, model.Event, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return state, model.Event{}, ErrEmptyName
	}

	next := state.Clone()
	if next.NextID < 1 {
		next.NextID = 1
	}
	event := model.Event{
		ID:     next.NextID,
		Name:   trimmed,
		Status: model.StatusStopped,
	}
	next.Events = append(next.Events, event)
	next.NextID++
	return next, event, nil
}

// Play marks id as playing and every other event as stopped.
func Play(state model.State, id int) (model.State, error) {
	if indexOf(state, id) < 0 {
		return state, ErrNotFound
	}

	next := state.Clone()
	for i := range next.Events {
		if next.Events[i].ID == id {
			next.Events[i].Status = model.StatusPlaying
		} else {
			next.Events[i].Status = model.StatusStopped
		}
	}
	return next, nil
}

// Stop marks every event as stopped. Stop is global: at most one event can
// be playing, so there is nothing to select.
func Stop(state model.State) model.State {
	next := state.Clone()
	for i := range next.Events {
		next.Events[i].Status = model.StatusStopped
	}
	return next
}

// Delete removes the event with id.
func Delete(state model.State, id int) (model.State, error) {
	idx := indexOf(state, id)
	if idx < 0 {
		return state, ErrNotFound
	}

	next := model.State{NextID: state.NextID}
	next.Events = append(next.Events, state.Events[:idx]...)
	next.Events = append(next.Events, state.Events[idx+1:]...)
	return next, nil
}

// Accrue adds delta to the duration of id if it is playing.
// Negative deltas count as zero.
func Accrue(state model.State, id int, delta time.Duration) (model.State, error) {
	idx := indexOf(state, id)
	if idx < 0 {
		return state, ErrNotFound
	}
	if !state.Events[idx].Playing() {
		return state, ErrNotPlaying
	}
	if delta <= 0 {
		return state, nil
	}

	next := state.Clone()
	next.Events[idx].Duration += delta
	return next, nil
}

// Active returns the playing event, if any.
func Active(state model.State) (model.Event, bool) {
	for _, event := range state.Events {
		if event.Playing() {
			return event, true
		}
	}
	return model.Event{}, false
}

// Normalize repairs a state read from storage so the store invariants hold:
// blank names and duplicate ids are dropped, unknown statuses and all but
// the first playing event become stopped, negative durations are zeroed and
// NextID is moved past the highest id.
func Normalize(state model.State) model.State {
	next := model.State{NextID: state.NextID}
	seen := make(map[int]struct{}, len(state.Events))
	playing := false
	maxID := 0

	for _, event := range state.Events {
		event.Name = strings.TrimSpace(event.Name)
		if event.Name == "" || event.ID < 1 {
			continue
		}
		if _, dup := seen[event.ID]; dup {
			continue
		}
		seen[event.ID] = struct{}{}

		if event.Duration < 0 {
			event.Duration = 0
		}
		if event.Status == model.StatusPlaying && !playing {
			playing = true
		} else {
			event.Status = model.StatusStopped
		}
		if event.ID > maxID {
			maxID = event.ID
		}
		next.Events = append(next.Events, event)
	}

	if next.NextID <= maxID {
		next.NextID = maxID + 1
	}
	if next.NextID < 1 {
		next.NextID = 1
	}
	return next
}

func indexOf(state model.State, id int) int {
	for i, event := range state.Events {
		if event.ID == id {
			return i
		}
	}
	return -1
}
