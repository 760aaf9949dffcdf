// Package prompt defines the user prompt contract shared by the crash
// reporter, the update check and the frontends that render them.
package prompt

import "context"

// Severity classifies a prompt for presentation.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInformation
	SeverityQuestion
	SeverityWarning
	SeverityError
)

// String returns a human-readable representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "Debug"
	case SeverityInformation:
		return "Information"
	case SeverityQuestion:
		return "Question"
	case SeverityWarning:
		return "Warning"
	case SeverityError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Request describes a prompt shown to the user.
type Request struct {
	Title    string
	Message  string
	Details  string
	Severity Severity

	// Options are the selectable labels, in display order.
	Options []string

	// Default is preselected. It should be one of Options.
	Default string

	// Checkbox is the label of an optional checkbox. Empty means none.
	Checkbox string
}

// HasCheckbox reports whether the request offers a checkbox.
func (r Request) HasCheckbox() bool {
	return r.Checkbox != ""
}

// DefaultIndex returns the index of Default in Options, or 0.
func (r Request) DefaultIndex() int {
	for i, o := range r.Options {
		if o == r.Default {
			return i
		}
	}
	return 0
}

// Answer is the user's response.
// Chosen is false when the user aborted the selection; that must be treated
// as "no action".
type Answer struct {
	Option  string
	Chosen  bool
	Checked bool
}

// Aborted is the answer for an interrupted prompt.
var Aborted = Answer{}

// Prompter shows a request and blocks until answered.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (Answer, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, req Request) (Answer, error)

// Prompt calls f(ctx, req).
func (f PrompterFunc) Prompt(ctx context.Context, req Request) (Answer, error) {
	return f(ctx, req)
}
