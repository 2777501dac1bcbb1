package session

import "github.com/geovex/tgsession/internal/auth"

type State uint8

const (
	StateEmpty State = iota
	StateConnecting
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type EventKind uint8

const (
	EventStateChanged EventKind = iota + 1
	EventAuthKeyChanged
	EventQueryCompleted
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventStateChanged:
		return "state_changed"
	case EventAuthKeyChanged:
		return "auth_key_changed"
	case EventQueryCompleted:
		return "query_completed"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is published on the connection event channel. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind      EventKind
	State     State
	AuthState auth.State
	QueryID   int64
	Err       error
}
