package lifecycle

import (
	"fmt"
	"sync"

	"github.com/bft-labs/dancer/pkg/log"
)

// Machine tracks the state of one controller run.
type Machine struct {
	mu           sync.RWMutex
	state        State
	logger       log.Logger
	eventEmitter EventEmitter
}

// NewMachine creates a machine in StateInit.
func NewMachine(logger log.Logger, emitter EventEmitter) *Machine {
	return &Machine{
		state:        StateInit,
		logger:       log.OrNoop(logger),
		eventEmitter: emitter,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// TransitionTo attempts to transition to a new state.
// Returns ErrInvalidTransition if the edge is not allowed.
func (m *Machine) TransitionTo(newState State, reason string) error {
	m.mu.Lock()
	oldState := m.state

	if !CanTransition(oldState, newState) {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldState, newState)
	}

	m.state = newState
	m.mu.Unlock()

	// Emit event outside of lock
	if m.eventEmitter != nil {
		m.eventEmitter.OnStateChange(oldState, newState, reason)
	}

	m.logger.Debug("state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}
