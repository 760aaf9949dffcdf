package deferred

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolClosed is returned when a job is submitted after shutdown.
	ErrPoolClosed = errors.New("deferred: pool is closed")

	// ErrNotConfigured is returned when offloading on a scheduler without a pool.
	ErrNotConfigured = errors.New("deferred: worker pool not configured")
)

// PanicError is delivered to a collector when its job panicked.
type PanicError struct {
	TaskName string
	Value    interface{}
	Stack    []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("deferred: task %q panicked: %v", e.TaskName, e.Value)
}
