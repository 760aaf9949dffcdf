package frontend

import (
	"github.com/bft-labs/dancer/pkg/lifecycle"
	"github.com/bft-labs/dancer/pkg/prompt"
)

// Frontend is the user-facing half of an Application.
type Frontend interface {
	prompt.Prompter

	// Crash notifies the user and reports whether to restart.
	Crash(report lifecycle.ErrorReport) bool

	// Close releases the frontend. It is called last during shutdown.
	Close() error
}
