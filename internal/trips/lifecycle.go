package trips

import (
	"errors"

	"github.com/ukydev/fleet-trips/internal/models"
)

// State is the position of a trip in its lifecycle.
type State int

const (
	StateDraft State = iota
	StateInProgress
	StateFinalized
)

// Event drives a lifecycle transition.
type Event int

const (
	EventSubmit Event = iota
	EventFinalize
)

var ErrInvalidTransition = errors.New("invalid trip state transition")

// Next returns the state reached from s on e. Draft moves to InProgress on
// submit, InProgress moves to Finalized on finalize, and Finalized is
// terminal.
func (s State) Next(e Event) (State, error) {
	switch {
	case s == StateDraft && e == EventSubmit:
		return StateInProgress, nil
	case s == StateInProgress && e == EventSubmit:
		// editing an active trip keeps it active
		return StateInProgress, nil
	case s == StateInProgress && e == EventFinalize:
		return StateFinalized, nil
	default:
		return s, ErrInvalidTransition
	}
}

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateInProgress:
		return "in_progress"
	case StateFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// StateOf derives the lifecycle state of a trip record.
func StateOf(t models.Trip) State {
	switch {
	case t.ID.IsZero():
		return StateDraft
	case t.IsFinalized():
		return StateFinalized
	default:
		return StateInProgress
	}
}
