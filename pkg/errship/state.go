package errship

import "github.com/bft-labs/errship/internal/app"

// State represents the lifecycle state of an Errship instance.
type State int

const (
	// StateStopped means the buffer is not active.
	StateStopped State = iota

	// StateStarting means Start() is in progress.
	StateStarting

	// StateRunning means the buffer accepts reports.
	StateRunning

	// StateStopping means Stop() is in progress.
	StateStopping
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	default:
		return "Unknown"
	}
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	default:
		return StateStopped
	}
}
