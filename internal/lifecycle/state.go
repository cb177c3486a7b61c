package lifecycle

// State is a step of the shell's lifecycle.
type State int

const (
	// StateStarting is the initial state, before Start has completed.
	StateStarting State = iota
	// StateRunning means the backend is launched and the session published.
	StateRunning
	// StateShuttingDown means the exit event has been received.
	StateShuttingDown
	// StateStopped means the backend has been signalled (or was never started).
	StateStopped
	// StateFailed means Start aborted; the application must not continue.
	StateFailed
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateShuttingDown:
		return "ShuttingDown"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	default:
		return "InvalidState"
	}
}
