package lifecycle

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// RestartCode is the reserved exit code that re-executes the process.
const RestartCode = 1000

// RestartCountEnv carries the number of restarts across re-executions.
const RestartCountEnv = "DANCER_RESTART_COUNT"

// DefaultMaxRestarts bounds consecutive restarts.
const DefaultMaxRestarts = 3

// ExitAction handles a reserved exit code. An action that returns at all
// hands control back to the dispatcher: nil means status 0, an error
// means status 1.
type ExitAction func() error

// ExitCodes maps reserved exit codes to actions.
type ExitCodes map[int]ExitAction

// DefaultExitCodes maps RestartCode to r.Restart.
func DefaultExitCodes(r *Restarter) ExitCodes {
	return ExitCodes{RestartCode: r.Restart}
}

// Restarter replaces the current process with a fresh invocation of the
// same program and arguments.
type Restarter struct {
	// MaxRestarts caps consecutive restarts. Zero uses DefaultMaxRestarts;
	// negative disables the cap.
	MaxRestarts int

	// Backoff delays each restart. Nil restarts immediately.
	Backoff *Backoff

	// Hooks, replaced in tests. Nil uses the os and syscall functions.
	Exec       func(argv0 string, argv []string, envv []string) error
	Executable func() (string, error)
	Args       []string
	Environ    func() []string
	Sleep      func(time.Duration)
}

// Restart re-executes the process. It only returns on failure.
func (r *Restarter) Restart() error {
	environ := r.Environ
	if environ == nil {
		environ = os.Environ
	}
	env := environ()

	count := restartCount(env)
	limit := r.MaxRestarts
	if limit == 0 {
		limit = DefaultMaxRestarts
	}
	if limit > 0 && count >= limit {
		return fmt.Errorf("%w: %d of %d", ErrRestartLimit, count, limit)
	}

	executable := r.Executable
	if executable == nil {
		executable = os.Executable
	}
	exe, err := executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	args := r.Args
	if args == nil {
		args = os.Args
	}

	if d := r.Backoff.Delay(count); d > 0 {
		sleep := r.Sleep
		if sleep == nil {
			sleep = time.Sleep
		}
		sleep(d)
	}

	exec := r.Exec
	if exec == nil {
		exec = syscall.Exec
	}
	if err := exec(exe, args, withRestartCount(env, count+1)); err != nil {
		return fmt.Errorf("re-exec %s: %w", exe, err)
	}
	return nil
}

func restartCount(env []string) int {
	prefix := RestartCountEnv + "="
	for i := len(env) - 1; i >= 0; i-- {
		if v, ok := strings.CutPrefix(env[i], prefix); ok {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return 0
			}
			return n
		}
	}
	return 0
}

func withRestartCount(env []string, n int) []string {
	prefix := RestartCountEnv + "="
	out := make([]string, 0, len(env)+1)
	for _, kv := range env {
		if strings.HasPrefix(kv, prefix) {
			continue
		}
		out = append(out, kv)
	}
	return append(out, prefix+strconv.Itoa(n))
}
