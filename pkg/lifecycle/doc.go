// Package lifecycle runs one Application from construction to exit.
//
// A Controller constructs the Application, executes it, routes any failure
// through the Application's crash hook, always closes it, and finally
// dispatches the exit code through an ExitCodes table. The reserved
// RestartCode re-executes the current process image.
//
// # Usage
//
//	ctrl := &lifecycle.Controller{
//	    Program:   "dancer",
//	    Factory:   newApp,
//	    Args:      lifecycle.Args{Flags: cmd.Flags(), Positional: args},
//	    Level:     level,
//	    ExitCodes: lifecycle.DefaultExitCodes(&lifecycle.Restarter{MaxRestarts: 3}),
//	    Logger:    logger,
//	}
//	os.Exit(ctrl.Run())
//
// # State Machine
//
// Valid state transitions:
//   - Init -> Running, Crashed
//   - Running -> OK, Crashed
//   - OK -> Closing
//   - Crashed -> Closing
//   - Closing -> Dispatch
//   - Dispatch -> Terminated
package lifecycle
