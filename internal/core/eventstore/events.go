package eventstore

import "time"

// ChangeKind names the mutation that produced a Change.
type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangePlayed  ChangeKind = "played"
	ChangeStopped ChangeKind = "stopped"
	ChangeDeleted ChangeKind = "deleted"
	ChangeAccrued ChangeKind = "accrued"
)

// Change tells observers that the store state moved on. Observers re-read
// Events or Active; the change itself carries no snapshot.
type Change struct {
	Kind    ChangeKind
	EventID int
	At      time.Time
}
