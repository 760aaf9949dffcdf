// Package headless is the non-interactive frontend. Prompts are logged and
// answered with no action; a crash restarts according to a fixed policy.
package headless

import (
	"context"

	"github.com/bft-labs/dancer/pkg/lifecycle"
	"github.com/bft-labs/dancer/pkg/log"
	"github.com/bft-labs/dancer/pkg/prompt"
)

// Frontend logs instead of asking.
type Frontend struct {
	restartOnCrash bool
	logger         log.Logger
	status         *Server
}

// New creates a headless frontend. status may be nil.
func New(restartOnCrash bool, status *Server, logger log.Logger) *Frontend {
	return &Frontend{
		restartOnCrash: restartOnCrash,
		logger:         log.OrNoop(logger),
		status:         status,
	}
}

// Prompt logs req and returns prompt.Aborted so callers take no action.
func (f *Frontend) Prompt(ctx context.Context, req prompt.Request) (prompt.Answer, error) {
	fields := []log.Field{
		log.String("title", req.Title),
		log.String("severity", req.Severity.String()),
	}
	if req.Details != "" {
		fields = append(fields, log.String("details", req.Details))
	}

	switch req.Severity {
	case prompt.SeverityDebug:
		f.logger.Debug(req.Message, fields...)
	case prompt.SeverityWarning:
		f.logger.Warn(req.Message, fields...)
	case prompt.SeverityError:
		f.logger.Error(req.Message, fields...)
	default:
		f.logger.Info(req.Message, fields...)
	}
	return prompt.Aborted, nil
}

// Crash logs the report and applies the restart policy.
func (f *Frontend) Crash(report lifecycle.ErrorReport) bool {
	f.logger.Error(report.Summary,
		log.String("title", report.Title),
		log.Bool("restart", f.restartOnCrash),
	)
	return f.restartOnCrash
}

// Close stops the status server, if any.
func (f *Frontend) Close() error {
	if f.status == nil {
		return nil
	}
	return f.status.Close()
}
