package lifecycle

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bft-labs/dancer/pkg/log"
)

// recordingLogger captures error messages.
type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Debug(msg string, fields ...log.Field) {}
func (l *recordingLogger) Info(msg string, fields ...log.Field)  {}
func (l *recordingLogger) Warn(msg string, fields ...log.Field)  {}
func (l *recordingLogger) Error(msg string, fields ...log.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) has(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, m := range l.errors {
		if m == msg {
			return true
		}
	}
	return false
}

// mockEmitter tracks state change events for testing.
type mockEmitter struct {
	mu     sync.Mutex
	states []State
}

func (m *mockEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = append(m.states, current)
}

func (m *mockEmitter) path() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State{}, m.states...)
}

// fakeApp is a scriptable Application.
type fakeApp struct {
	code      int
	execErr   error
	execPanic interface{}
	closeErr  error
	restart   bool
	crashPan  bool

	execCalls  int
	closeCalls int
	reports    []ErrorReport
}

func (a *fakeApp) Exec() (int, error) {
	a.execCalls++
	if a.execPanic != nil {
		panic(a.execPanic)
	}
	return a.code, a.execErr
}

func (a *fakeApp) Close() error {
	a.closeCalls++
	return a.closeErr
}

func (a *fakeApp) Crash(r ErrorReport) bool {
	a.reports = append(a.reports, r)
	if a.crashPan {
		panic("crash handler exploded")
	}
	return a.restart
}

func factoryFor(app *fakeApp) Factory {
	return func(Args, zerolog.Level) (Application, error) { return app, nil }
}

func init() {
	describeHost = func() string { return "" }
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateInit, "Init"},
		{StateRunning, "Running"},
		{StateOK, "OK"},
		{StateCrashed, "Crashed"},
		{StateClosing, "Closing"},
		{StateDispatch, "Dispatch"},
		{StateTerminated, "Terminated"},
		{State(99), "Unknown"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestMachine_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		path    []State
		wantErr bool
	}{
		{"happy path", []State{StateRunning, StateOK, StateClosing, StateDispatch, StateTerminated}, false},
		{"crash while running", []State{StateRunning, StateCrashed, StateClosing, StateDispatch}, false},
		{"crash during setup", []State{StateCrashed, StateClosing}, false},
		{"skip closing", []State{StateRunning, StateOK, StateDispatch}, true},
		{"init to ok", []State{StateOK}, true},
		{"ok then crashed", []State{StateRunning, StateOK, StateCrashed}, true},
		{"terminated is final", []State{StateRunning, StateOK, StateClosing, StateDispatch, StateTerminated, StateInit}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMachine(nil, nil)
			var err error
			for _, s := range tt.path {
				if err = m.TransitionTo(s, "test"); err != nil {
					break
				}
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error %v is not ErrInvalidTransition", err)
			}
		})
	}
}

func TestMachine_EmitsEvents(t *testing.T) {
	em := &mockEmitter{}
	m := NewMachine(nil, em)
	_ = m.TransitionTo(StateRunning, "go")
	_ = m.TransitionTo(StateInit, "bad")

	if got := em.path(); len(got) != 1 || got[0] != StateRunning {
		t.Errorf("events = %v, want [Running]", got)
	}
	if m.State() != StateRunning {
		t.Errorf("State() = %v, want Running", m.State())
	}
}

func TestNewErrorReport(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantTitle  string
		permission bool
	}{
		{"generic", &ExecutionError{Err: errors.New("boom")}, "Fatal Error", false},
		{"permission", &SetupError{Err: fmt.Errorf("open lock: %w", fs.ErrPermission)}, "Warning", true},
		{"panic with permission", &ExecutionError{Err: &PanicError{Value: fs.ErrPermission}}, "Warning", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewErrorReport("dancer", tt.err)
			if r.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", r.Title, tt.wantTitle)
			}
			if r.IsPermissionError != tt.permission {
				t.Errorf("IsPermissionError = %v, want %v", r.IsPermissionError, tt.permission)
			}
			if !strings.Contains(r.Summary, "dancer") {
				t.Errorf("Summary %q does not name the program", r.Summary)
			}
			if !strings.Contains(r.Detail, tt.err.Error()) {
				t.Errorf("Detail %q does not contain the error", r.Detail)
			}
		})
	}
}

func TestErrorReport_IncludesPanicStack(t *testing.T) {
	err := &ExecutionError{Err: &PanicError{Value: "bad", Stack: []byte("goroutine 1 [running]:\nmain.main()")}}
	r := NewErrorReport("dancer", err)

	lines := r.Lines()
	if lines[0] != "execution failed: panic: bad" {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(r.Detail, "goroutine 1 [running]:") {
		t.Errorf("Detail missing stack: %q", r.Detail)
	}
}

func TestController_Success(t *testing.T) {
	app := &fakeApp{code: 3}
	em := &mockEmitter{}
	c := &Controller{Program: "dancer", Factory: factoryFor(app), Emitter: em}

	if got := c.Run(); got != 3 {
		t.Errorf("Run() = %d, want 3", got)
	}
	if app.closeCalls != 1 {
		t.Errorf("Close called %d times, want 1", app.closeCalls)
	}
	if len(app.reports) != 0 {
		t.Errorf("Crash called on success")
	}

	want := []State{StateRunning, StateOK, StateClosing, StateDispatch, StateTerminated}
	got := em.path()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("path = %v, want %v", got, want)
	}
}

func TestController_CrashPaths(t *testing.T) {
	tests := []struct {
		name       string
		app        *fakeApp
		wantStatus int
		restarted  bool
	}{
		{"exec error, no restart", &fakeApp{code: 7, execErr: errors.New("boom")}, 7, false},
		{"exec error, restart", &fakeApp{code: 7, execErr: errors.New("boom"), restart: true}, 0, true},
		{"exec panic", &fakeApp{execPanic: "kaboom"}, UnsetExitCode, false},
		{"crash handler panics", &fakeApp{code: 2, execErr: errors.New("boom"), restart: true, crashPan: true}, 2, false},
		{"close error does not mask", &fakeApp{code: 4, execErr: errors.New("boom"), closeErr: errors.New("close")}, 4, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			restarts := 0
			c := &Controller{
				Program: "dancer",
				Factory: factoryFor(tt.app),
				ExitCodes: ExitCodes{RestartCode: func() error {
					restarts++
					return nil
				}},
			}

			if got := c.Run(); got != tt.wantStatus {
				t.Errorf("Run() = %d, want %d", got, tt.wantStatus)
			}
			if tt.app.closeCalls != 1 {
				t.Errorf("Close called %d times, want 1", tt.app.closeCalls)
			}
			if len(tt.app.reports) != 1 {
				t.Errorf("Crash called %d times, want 1", len(tt.app.reports))
			}
			if (restarts == 1) != tt.restarted {
				t.Errorf("restart action ran %d times, restarted want %v", restarts, tt.restarted)
			}
		})
	}
}

func TestController_SetupFailure(t *testing.T) {
	logger := &recordingLogger{}
	em := &mockEmitter{}
	c := &Controller{
		Program: "dancer",
		Factory: func(Args, zerolog.Level) (Application, error) {
			return nil, fmt.Errorf("create data dir: %w", fs.ErrPermission)
		},
		Logger:  logger,
		Emitter: em,
	}

	if got := c.Run(); got != UnsetExitCode {
		t.Errorf("Run() = %d, want %d", got, UnsetExitCode)
	}
	if !logger.has("Warning") {
		t.Errorf("permission report not logged: %v", logger.errors)
	}

	want := []State{StateCrashed, StateClosing, StateDispatch, StateTerminated}
	if fmt.Sprint(em.path()) != fmt.Sprint(want) {
		t.Errorf("path = %v, want %v", em.path(), want)
	}
}

func TestController_FactoryPanic(t *testing.T) {
	logger := &recordingLogger{}
	c := &Controller{
		Factory: func(Args, zerolog.Level) (Application, error) { panic("no config") },
		Logger:  logger,
	}

	if got := c.Run(); got != UnsetExitCode {
		t.Errorf("Run() = %d, want %d", got, UnsetExitCode)
	}
	if !logger.has("setup failed: panic: no config") {
		t.Errorf("detail not logged line by line: %v", logger.errors)
	}
}

func TestController_FactoryReceivesLevel(t *testing.T) {
	got := zerolog.NoLevel
	app := &fakeApp{}
	c := &Controller{
		Factory: func(_ Args, level zerolog.Level) (Application, error) {
			got = level
			return app, nil
		},
		Level: zerolog.WarnLevel,
	}
	c.Run()

	if got != zerolog.WarnLevel {
		t.Errorf("factory level = %v, want warn", got)
	}
}

func TestController_RestartActionFailure(t *testing.T) {
	app := &fakeApp{execErr: errors.New("boom"), restart: true}
	c := &Controller{
		Factory: factoryFor(app),
		ExitCodes: ExitCodes{RestartCode: func() error {
			return ErrRestartLimit
		}},
	}

	if got := c.Run(); got != DispatchFailedCode {
		t.Errorf("Run() = %d, want %d", got, DispatchFailedCode)
	}
}

func TestController_RestartWithoutTable(t *testing.T) {
	app := &fakeApp{code: RestartCode}
	c := &Controller{Factory: factoryFor(app)}

	if got := c.Run(); got != DispatchFailedCode {
		t.Errorf("Run() = %d, want %d", got, DispatchFailedCode)
	}
}
