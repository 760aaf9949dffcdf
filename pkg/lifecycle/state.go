package lifecycle

// State represents a phase of one controller run.
type State int

const (
	StateInit State = iota
	StateRunning
	StateOK
	StateCrashed
	StateClosing
	StateDispatch
	StateTerminated
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateRunning:
		return "Running"
	case StateOK:
		return "OK"
	case StateCrashed:
		return "Crashed"
	case StateClosing:
		return "Closing"
	case StateDispatch:
		return "Dispatch"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// EventEmitter is called when the controller changes state.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// EventEmitterFunc adapts a function to EventEmitter.
type EventEmitterFunc func(previous, current State, reason string)

// OnStateChange calls f.
func (f EventEmitterFunc) OnStateChange(previous, current State, reason string) {
	f(previous, current, reason)
}

var transitions = map[State][]State{
	StateInit:     {StateRunning, StateCrashed},
	StateRunning:  {StateOK, StateCrashed},
	StateOK:       {StateClosing},
	StateCrashed:  {StateClosing},
	StateClosing:  {StateDispatch},
	StateDispatch: {StateTerminated},
}

// CanTransition reports whether from -> to is a valid edge.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
