// Package terminal is the interactive frontend. Prompts are rendered with
// bubbletea and lipgloss; a crash asks whether to restart.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bft-labs/dancer/pkg/lifecycle"
	"github.com/bft-labs/dancer/pkg/log"
	"github.com/bft-labs/dancer/pkg/prompt"
)

// Crash prompt labels.
const (
	OptionYes = "Yes"
	OptionNo  = "No"

	RestartQuestion = "Do you want to restart the app?"
)

// Options configures a Frontend.
type Options struct {
	In  io.Reader
	Out io.Writer

	// Theme is the initial theme name.
	Theme string

	// ThemeSource reports the desired theme. It is polled every other
	// tick; nil disables theme tracking.
	ThemeSource func() string

	// OnThemeChange runs after the styles switched to a new theme.
	OnThemeChange func(theme string)

	Logger log.Logger
}

// Frontend prompts on a terminal.
type Frontend struct {
	in            io.Reader
	out           io.Writer
	themeSource   func() string
	onThemeChange func(string)
	logger        log.Logger

	promptMu sync.Mutex // one prompt at a time

	mu     sync.Mutex
	styles Styles
}

// New creates a terminal frontend. Nil In and Out use stdin and stderr.
func New(opts Options) *Frontend {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	return &Frontend{
		in:            opts.In,
		out:           opts.Out,
		themeSource:   opts.ThemeSource,
		onThemeChange: opts.OnThemeChange,
		logger:        log.OrNoop(opts.Logger),
		styles:        StylesFor(opts.Theme),
	}
}

// Theme returns the active theme name.
func (f *Frontend) Theme() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.styles.Theme
}

// SetTheme switches styles. It reports whether the theme changed.
func (f *Frontend) SetTheme(theme string) bool {
	next := StylesFor(theme)
	f.mu.Lock()
	if next.Theme == f.styles.Theme {
		f.mu.Unlock()
		return false
	}
	f.styles = next
	f.mu.Unlock()

	f.logger.Debug("theme changed", log.String("theme", next.Theme))
	if f.onThemeChange != nil {
		f.onThemeChange(next.Theme)
	}
	return true
}

// TickHook polls the theme source on odd ticks.
func (f *Frontend) TickHook(count int) {
	if count%2 != 1 || f.themeSource == nil {
		return
	}
	f.SetTheme(f.themeSource())
}

// Prompt shows req and blocks until it is answered or ctx ends.
func (f *Frontend) Prompt(ctx context.Context, req prompt.Request) (prompt.Answer, error) {
	f.promptMu.Lock()
	defer f.promptMu.Unlock()

	f.mu.Lock()
	styles := f.styles
	f.mu.Unlock()

	p := tea.NewProgram(newPromptModel(req, styles),
		tea.WithInput(f.in),
		tea.WithOutput(f.out),
		tea.WithContext(ctx),
	)
	final, err := p.Run()
	if err != nil {
		if ctx.Err() != nil {
			return prompt.Aborted, ctx.Err()
		}
		return prompt.Aborted, fmt.Errorf("terminal prompt: %w", err)
	}

	m, ok := final.(promptModel)
	if !ok || !m.done {
		return prompt.Aborted, nil
	}
	return m.answer, nil
}

// CrashRequest builds the restart question for report.
func CrashRequest(report lifecycle.ErrorReport) prompt.Request {
	sev := prompt.SeverityError
	if report.IsPermissionError {
		sev = prompt.SeverityWarning
	}
	return prompt.Request{
		Title:    report.Title,
		Message:  report.Summary + "\n\n" + RestartQuestion,
		Details:  report.Detail,
		Severity: sev,
		Options:  []string{OptionYes, OptionNo},
		Default:  OptionYes,
	}
}

// Crash asks whether to restart. An aborted or failed prompt means no.
func (f *Frontend) Crash(report lifecycle.ErrorReport) bool {
	ans, err := f.Prompt(context.Background(), CrashRequest(report))
	if err != nil {
		f.logger.Error("crash prompt failed", log.Err(err))
		return false
	}
	return ans.Chosen && ans.Option == OptionYes
}

// Close releases the frontend.
func (f *Frontend) Close() error {
	return nil
}
