package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrInvalidTransition is returned for a state change the machine does not allow.
	ErrInvalidTransition = errors.New("lifecycle: invalid state transition")

	// ErrRestartLimit is returned when the restart action ran out of attempts.
	ErrRestartLimit = errors.New("lifecycle: restart limit reached")

	// ErrNoFactory is returned when a Controller has no Factory.
	ErrNoFactory = errors.New("lifecycle: no application factory")
)

// SetupError wraps a failure while constructing the Application.
type SetupError struct {
	Err error
}

func (e *SetupError) Error() string { return "setup failed: " + e.Err.Error() }
func (e *SetupError) Unwrap() error { return e.Err }

// ExecutionError wraps a failure while the Application was running.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return "execution failed: " + e.Err.Error() }
func (e *ExecutionError) Unwrap() error { return e.Err }

// PanicError is a recovered panic.
type PanicError struct {
	Value interface{}
	Stack []byte
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes a panicked error value to errors.Is.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// IsPermission reports whether err was caused by denied filesystem or
// process access.
func IsPermission(err error) bool {
	return errors.Is(err, fs.ErrPermission)
}
