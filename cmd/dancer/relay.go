package main

import (
	"sync"

	"github.com/bft-labs/dancer/pkg/lifecycle"
)

// stateRelay forwards controller state changes to an emitter that only
// exists once the application was constructed. A nil relay drops events.
type stateRelay struct {
	mu     sync.Mutex
	target lifecycle.EventEmitter
	last   lifecycle.State
}

func (r *stateRelay) attach(target lifecycle.EventEmitter) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.target = target
	last := r.last
	r.mu.Unlock()
	target.OnStateChange(last, last, "attached")
}

func (r *stateRelay) OnStateChange(previous, current lifecycle.State, reason string) {
	r.mu.Lock()
	r.last = current
	target := r.target
	r.mu.Unlock()

	if target != nil {
		target.OnStateChange(previous, current, reason)
	}
}
