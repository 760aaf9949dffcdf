package lifecycle

import (
	"errors"
	"testing"
	"time"
)

type execCall struct {
	argv0 string
	argv  []string
	env   []string
}

func newTestRestarter(env []string, calls *[]execCall) *Restarter {
	return &Restarter{
		MaxRestarts: 2,
		Exec: func(argv0 string, argv []string, envv []string) error {
			*calls = append(*calls, execCall{argv0, argv, envv})
			return nil
		},
		Executable: func() (string, error) { return "/usr/bin/dancer", nil },
		Args:       []string{"dancer", "--frontend", "headless"},
		Environ:    func() []string { return env },
		Sleep:      func(time.Duration) {},
	}
}

func TestRestarter_Restart(t *testing.T) {
	tests := []struct {
		name      string
		env       []string
		wantErr   error
		wantCount string
	}{
		{"first restart", []string{"HOME=/root"}, nil, "DANCER_RESTART_COUNT=1"},
		{"second restart", []string{"DANCER_RESTART_COUNT=1", "HOME=/root"}, nil, "DANCER_RESTART_COUNT=2"},
		{"limit reached", []string{"DANCER_RESTART_COUNT=2"}, ErrRestartLimit, ""},
		{"garbage count", []string{"DANCER_RESTART_COUNT=abc"}, nil, "DANCER_RESTART_COUNT=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []execCall
			r := newTestRestarter(tt.env, &calls)

			err := r.Restart()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Restart() error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				if len(calls) != 0 {
					t.Errorf("exec called past the limit")
				}
				return
			}
			if len(calls) != 1 {
				t.Fatalf("exec called %d times, want 1", len(calls))
			}
			c := calls[0]
			if c.argv0 != "/usr/bin/dancer" || len(c.argv) != 3 || c.argv[2] != "headless" {
				t.Errorf("exec(%q, %v)", c.argv0, c.argv)
			}
			found := 0
			for _, kv := range c.env {
				if kv == tt.wantCount {
					found++
				}
			}
			if found != 1 || c.env[len(c.env)-1] != tt.wantCount {
				t.Errorf("env = %v, want single %s", c.env, tt.wantCount)
			}
		})
	}
}

func TestRestarter_ExecFailure(t *testing.T) {
	var calls []execCall
	r := newTestRestarter(nil, &calls)
	execErr := errors.New("exec format error")
	r.Exec = func(string, []string, []string) error { return execErr }

	if err := r.Restart(); !errors.Is(err, execErr) {
		t.Errorf("Restart() error = %v, want %v", err, execErr)
	}
}

func TestRestarter_BackoffSleeps(t *testing.T) {
	var calls []execCall
	var slept time.Duration
	r := newTestRestarter([]string{"DANCER_RESTART_COUNT=1"}, &calls)
	r.Backoff = NewBackoff(100*time.Millisecond, time.Second)
	r.Sleep = func(d time.Duration) { slept = d }

	if err := r.Restart(); err != nil {
		t.Fatalf("Restart() error = %v", err)
	}
	// attempt 1 doubles to 200ms, jitter ±20%
	if slept < 160*time.Millisecond || slept > 240*time.Millisecond {
		t.Errorf("slept %v, want about 200ms", slept)
	}
}

func TestBackoff_Delay(t *testing.T) {
	b := NewBackoff(100*time.Millisecond, 400*time.Millisecond)
	for attempt, base := range []time.Duration{100, 200, 400, 400, 400} {
		base *= time.Millisecond
		d := b.Delay(attempt)
		lo := time.Duration(float64(base) * 0.8)
		hi := time.Duration(float64(base) * 1.2)
		if d < lo || d > hi {
			t.Errorf("Delay(%d) = %v, want within [%v, %v]", attempt, d, lo, hi)
		}
	}

	var nilBackoff *Backoff
	if d := nilBackoff.Delay(3); d != 0 {
		t.Errorf("nil Delay = %v, want 0", d)
	}
}

func TestDefaultExitCodes(t *testing.T) {
	codes := DefaultExitCodes(&Restarter{})
	if _, ok := codes[RestartCode]; !ok {
		t.Error("DefaultExitCodes lacks RestartCode")
	}
	if len(codes) != 1 {
		t.Errorf("len = %d, want 1", len(codes))
	}
}
