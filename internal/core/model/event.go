package model

import "time"

// Status is the run state of a timer event.
type Status string

const (
	StatusStopped Status = "stopped"
	StatusPlaying Status = "playing"
)

// Valid reports whether status is one of the known values.
func (status Status) Valid() bool {
	return status == StatusStopped || status == StatusPlaying
}

// Event is a named timer with its accumulated elapsed time.
type Event struct {
	ID       int
	Name     string
	Status   Status
	Duration time.Duration
}

// Playing reports whether the event is the running one.
func (event Event) Playing() bool {
	return event.Status == StatusPlaying
}

// State is the full ordered event collection plus the id allocator.
// NextID is persisted so deleted ids are never handed out again.
type State struct {
	NextID int
	Events []Event
}

// EmptyState returns the state of a store that has never been used.
func EmptyState() State {
	return State{NextID: 1}
}

// Clone returns a deep copy of the state.
func (state State) Clone() State {
	clone := State{NextID: state.NextID}
	if state.Events != nil {
		clone.Events = append([]Event(nil), state.Events...)
	}
	return clone
}
