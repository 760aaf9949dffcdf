package update

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/bft-labs/dancer/pkg/prompt"
)

// Prompt labels.
const (
	OptionYes = "Yes"
	OptionNo  = "No"
	OptionOk  = "Ok"

	CheckboxDoNotShowAgain = "Do not show again"
)

// OutcomeKind classifies a manifest fetch.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeTimeout
	OutcomeRequestError
	OutcomeMalformed
)

// String returns a human-readable representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "Success"
	case OutcomeTimeout:
		return "Timeout"
	case OutcomeRequestError:
		return "RequestError"
	case OutcomeMalformed:
		return "Malformed"
	default:
		return "Unknown"
	}
}

// Outcome is the result of fetching the manifest.
type Outcome struct {
	Kind     OutcomeKind
	Manifest *Manifest
	Err      error
}

// DecisionKind names the prompt a Decision shows.
type DecisionKind int

const (
	DecisionNone DecisionKind = iota
	DecisionUpdateAvailable
	DecisionUpToDate
	DecisionNotRecommended
	DecisionTimeout
	DecisionRequestError
	DecisionMalformed
)

// String returns a human-readable representation of the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case DecisionNone:
		return "None"
	case DecisionUpdateAvailable:
		return "UpdateAvailable"
	case DecisionUpToDate:
		return "UpToDate"
	case DecisionNotRecommended:
		return "NotRecommended"
	case DecisionTimeout:
		return "Timeout"
	case DecisionRequestError:
		return "RequestError"
	case DecisionMalformed:
		return "Malformed"
	default:
		return "Unknown"
	}
}

// Decision is what the engine wants shown.
type Decision struct {
	Kind DecisionKind
	Show bool

	Request prompt.Request

	// Suppress is the category silenced when the checkbox is checked.
	Suppress Flag

	// Candidate is the release the decision is about, if any.
	Candidate *Candidate

	// URL is opened when the user answers Yes to an available update.
	URL string
}

// Action is what the caller should do after the prompt was answered.
type Action struct {
	OpenURL string
	Disable Flag
}

// Resolve maps an answer onto an Action. An aborted prompt yields no action.
func (d Decision) Resolve(ans prompt.Answer) Action {
	if !d.Show || !ans.Chosen {
		return Action{}
	}
	var act Action
	if ans.Checked && d.Suppress != "" && d.Request.HasCheckbox() {
		act.Disable = d.Suppress
	}
	if d.Kind == DecisionUpdateAvailable && ans.Option == OptionYes {
		act.OpenURL = d.URL
	}
	return act
}

// Engine holds the running program's identity.
type Engine struct {
	program  string
	current  *semver.Version
	sorryURL string
}

// NewEngine creates an engine for the given program version. sorryURL is
// the fallback page when neither the release nor the manifest names one.
func NewEngine(program, current, sorryURL string) (*Engine, error) {
	v, err := semver.NewVersion(current)
	if err != nil {
		return nil, fmt.Errorf("parse current version %q: %w", current, err)
	}
	return &Engine{program: program, current: v, sorryURL: sorryURL}, nil
}

// Current returns the running version.
func (e *Engine) Current() *semver.Version {
	return e.current
}

// Decide maps a fetch outcome and the current settings to a Decision.
func (e *Engine) Decide(out Outcome, s Settings) Decision {
	switch out.Kind {
	case OutcomeTimeout:
		if !s.ShowTimeout {
			return Decision{Kind: DecisionNone}
		}
		return Decision{
			Kind:     DecisionTimeout,
			Show:     true,
			Suppress: FlagShowTimeout,
			Request: prompt.Request{
				Title:    "Update check",
				Message:  "The request to check for updates timed out.",
				Details:  errText(out.Err),
				Severity: prompt.SeverityInformation,
				Options:  []string{OptionOk},
				Default:  OptionOk,
				Checkbox: CheckboxDoNotShowAgain,
			},
		}
	case OutcomeRequestError:
		if !s.ShowError {
			return Decision{Kind: DecisionNone}
		}
		return Decision{
			Kind:     DecisionRequestError,
			Show:     true,
			Suppress: FlagShowError,
			Request: prompt.Request{
				Title:    "Update check",
				Message:  "There was an error while checking for updates.",
				Details:  errText(out.Err),
				Severity: prompt.SeverityInformation,
				Options:  []string{OptionOk},
				Default:  OptionOk,
				Checkbox: CheckboxDoNotShowAgain,
			},
		}
	case OutcomeSuccess:
		if out.Manifest == nil {
			return e.malformed(fmt.Errorf("%w: empty manifest", ErrManifestMalformed))
		}
		return e.decideManifest(out.Manifest, s)
	default:
		return e.malformed(out.Err)
	}
}

func (e *Engine) malformed(err error) Decision {
	return Decision{
		Kind: DecisionMalformed,
		Show: true,
		Request: prompt.Request{
			Title:    "Update check",
			Message:  "The update information could not be decoded.",
			Details:  errText(err),
			Severity: prompt.SeverityInformation,
			Options:  []string{OptionOk},
			Default:  OptionOk,
		},
	}
}

func (e *Engine) decideManifest(m *Manifest, s Settings) Decision {
	var exact, recommended, newer *Candidate

	for _, r := range m.Versions {
		c, err := r.Parse()
		if err != nil {
			return e.malformed(err)
		}

		switch {
		case c.Version.Equal(e.current):
			c.Push = false
			exact = &c
		case c.Version.GreaterThan(e.current) && c.Push:
			if recommended == nil || c.Version.GreaterThan(recommended.Version) {
				recommended = &c
			}
		case c.Version.GreaterThan(e.current):
			if newer == nil || c.Version.GreaterThan(newer.Version) {
				newer = &c
			}
		}
	}

	switch {
	case recommended != nil && s.InformOnUpdate:
		url := recommended.UpdateURL
		if url == "" {
			url = m.Metadata.SorryURL
		}
		if url == "" {
			url = e.sorryURL
		}
		return Decision{
			Kind:      DecisionUpdateAvailable,
			Show:      true,
			Suppress:  FlagInformOnUpdate,
			Candidate: recommended,
			URL:       url,
			Request: prompt.Request{
				Title: "Update available",
				Message: fmt.Sprintf("There is a new version of %s available (v%s). Do you want to open the download page?",
					e.program, recommended.Version),
				Details:  recommended.Description,
				Severity: prompt.SeverityQuestion,
				Options:  []string{OptionYes, OptionNo},
				Default:  OptionYes,
				Checkbox: CheckboxDoNotShowAgain,
			},
		}
	case recommended == nil && newer == nil && s.InformNoUpdate:
		d := Decision{
			Kind:      DecisionUpToDate,
			Show:      true,
			Suppress:  FlagInformNoUpdate,
			Candidate: exact,
			Request: prompt.Request{
				Title:    "No update available",
				Message:  fmt.Sprintf("You are running the latest version of %s (v%s).", e.program, e.current),
				Severity: prompt.SeverityInformation,
				Options:  []string{OptionOk},
				Default:  OptionOk,
				Checkbox: CheckboxDoNotShowAgain,
			},
		}
		if exact != nil {
			d.Request.Details = exact.Description
		}
		return d
	case recommended == nil && newer != nil && s.InformNoUpdate:
		return Decision{
			Kind:      DecisionNotRecommended,
			Show:      true,
			Suppress:  FlagInformNoUpdate,
			Candidate: newer,
			Request: prompt.Request{
				Title: "Update available",
				Message: fmt.Sprintf("Version v%s of %s is available, but updating is not recommended yet. You are running v%s.",
					newer.Version, e.program, e.current),
				Details:  newer.Description,
				Severity: prompt.SeverityInformation,
				Options:  []string{OptionOk},
				Default:  OptionOk,
				Checkbox: CheckboxDoNotShowAgain,
			},
		}
	default:
		return Decision{Kind: DecisionNone}
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
