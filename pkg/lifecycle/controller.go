package lifecycle

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/bft-labs/dancer/pkg/log"
)

// Application is the unit of work a Controller runs.
type Application interface {
	// Exec runs the application and returns its exit code. With an error
	// the code is still the status of a crashed run that does not restart.
	Exec() (int, error)

	// Close releases the application's resources. It is called exactly
	// once per run, whatever happened before.
	Close() error

	// Crash notifies the user of a fatal failure and reports whether the
	// process should restart.
	Crash(report ErrorReport) bool
}

// Args are the parsed command line handed to the Factory.
type Args struct {
	Flags      *pflag.FlagSet
	Positional []string
}

// Factory constructs an Application.
type Factory func(args Args, level zerolog.Level) (Application, error)

const (
	// UnsetExitCode is the tentative code of a run whose Exec never
	// returned one: construction failed or Exec panicked. A crashed run
	// that does not restart exits with it; os.Exit reports it as 255.
	UnsetExitCode = -1

	// DispatchFailedCode is the status when a reserved exit code was
	// returned but its action failed or is not configured.
	DispatchFailedCode = 1
)

// Controller owns one Application run end to end.
type Controller struct {
	Program string
	Factory Factory
	Args    Args
	Level   zerolog.Level

	// ExitCodes handles reserved codes. Nil means no reserved codes.
	ExitCodes ExitCodes

	Logger  log.Logger
	Emitter EventEmitter
}

// Run constructs, executes, closes and dispatches. It returns the final
// process status; the caller passes it to os.Exit. A successful restart
// never returns.
func (c *Controller) Run() int {
	logger := log.OrNoop(c.Logger)
	m := NewMachine(logger, c.Emitter)

	app, err := c.construct()
	code := UnsetExitCode
	if err == nil {
		_ = m.TransitionTo(StateRunning, "constructed")
		code, err = c.exec(app)
	}

	if err != nil {
		_ = m.TransitionTo(StateCrashed, err.Error())
		code = c.crash(app, code, err, logger)
	} else {
		_ = m.TransitionTo(StateOK, fmt.Sprintf("exit code %d", code))
	}

	_ = m.TransitionTo(StateClosing, "cleanup")
	if app != nil {
		c.close(app, logger)
	}

	_ = m.TransitionTo(StateDispatch, fmt.Sprintf("exit code %d", code))
	status := c.dispatch(code, logger)

	_ = m.TransitionTo(StateTerminated, fmt.Sprintf("status %d", status))
	return status
}

func (c *Controller) construct() (app Application, err error) {
	if c.Factory == nil {
		return nil, &SetupError{Err: ErrNoFactory}
	}
	defer func() {
		if r := recover(); r != nil {
			app = nil
			err = &SetupError{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	app, err = c.Factory(c.Args, c.Level)
	if err != nil {
		return nil, &SetupError{Err: err}
	}
	if app == nil {
		return nil, &SetupError{Err: fmt.Errorf("factory returned no application")}
	}
	return app, nil
}

func (c *Controller) exec(app Application) (code int, err error) {
	defer func() {
		if r := recover(); r != nil {
			code = UnsetExitCode
			err = &ExecutionError{Err: &PanicError{Value: r, Stack: debug.Stack()}}
		}
	}()

	code, err = app.Exec()
	if err != nil {
		return code, &ExecutionError{Err: err}
	}
	return code, nil
}

// crash reports err. It returns RestartCode when the application asks for
// a restart and the tentative code otherwise.
func (c *Controller) crash(app Application, code int, err error, logger log.Logger) int {
	report := NewErrorReport(c.programName(), err)

	logger.Error(report.Title, log.String("summary", report.Summary), log.Bool("permission", report.IsPermissionError))
	for _, line := range report.Lines() {
		logger.Error(line)
	}

	if app == nil {
		return code
	}
	if c.askRestart(app, report, logger) {
		return RestartCode
	}
	return code
}

func (c *Controller) askRestart(app Application, report ErrorReport, logger log.Logger) (restart bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("crash handler panicked",
				log.Any("panic", r),
				log.String("stack", string(debug.Stack())),
			)
			restart = false
		}
	}()
	return app.Crash(report)
}

func (c *Controller) close(app Application, logger log.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("close panicked",
				log.Any("panic", r),
				log.String("stack", string(debug.Stack())),
			)
		}
	}()
	if err := app.Close(); err != nil {
		logger.Error("close failed", log.Err(err))
	}
}

func (c *Controller) dispatch(code int, logger log.Logger) int {
	action, ok := c.ExitCodes[code]
	if !ok {
		if code == RestartCode {
			// RestartCode does not fit an exit status; the OS would
			// truncate it to its low byte.
			logger.Warn("restart requested but no restart action is configured")
			return DispatchFailedCode
		}
		return code
	}

	logger.Info("dispatching reserved exit code", log.Int("code", code))
	if err := action(); err != nil {
		logger.Error("exit action failed", log.Int("code", code), log.Err(err))
		return DispatchFailedCode
	}
	return 0
}

func (c *Controller) programName() string {
	if c.Program != "" {
		return c.Program
	}
	if len(os.Args) > 0 {
		return os.Args[0]
	}
	return "app"
}
