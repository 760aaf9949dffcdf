package update

import (
	"sync"

	"github.com/bft-labs/dancer/pkg/prompt"
)

// Flag names a prompt category the user can silence.
type Flag string

const (
	FlagInformOnUpdate Flag = "inform_on_update"
	FlagInformNoUpdate Flag = "inform_no_update"
	FlagShowTimeout    Flag = "show_update_timeout"
	FlagShowError      Flag = "show_update_error"
)

// Settings is a snapshot of which categories may prompt.
type Settings struct {
	InformOnUpdate bool
	InformNoUpdate bool
	ShowTimeout    bool
	ShowError      bool
}

// DefaultSettings informs about updates and failures, not about being current.
func DefaultSettings() Settings {
	return Settings{
		InformOnUpdate: true,
		InformNoUpdate: false,
		ShowTimeout:    true,
		ShowError:      true,
	}
}

// Preferences holds the live settings. Categories disabled through Disable
// stay disabled for the life of the process, even if Reset is called with
// a configuration that enables them.
type Preferences struct {
	mu         sync.RWMutex
	settings   Settings
	suppressed map[Flag]bool
}

// NewPreferences creates preferences from an initial snapshot.
func NewPreferences(s Settings) *Preferences {
	return &Preferences{settings: s, suppressed: make(map[Flag]bool)}
}

// Snapshot returns the effective settings.
func (p *Preferences) Snapshot() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := p.settings
	s.InformOnUpdate = s.InformOnUpdate && !p.suppressed[FlagInformOnUpdate]
	s.InformNoUpdate = s.InformNoUpdate && !p.suppressed[FlagInformNoUpdate]
	s.ShowTimeout = s.ShowTimeout && !p.suppressed[FlagShowTimeout]
	s.ShowError = s.ShowError && !p.suppressed[FlagShowError]
	return s
}

// Enabled reports whether a category may prompt.
func (p *Preferences) Enabled(f Flag) bool {
	s := p.Snapshot()
	switch f {
	case FlagInformOnUpdate:
		return s.InformOnUpdate
	case FlagInformNoUpdate:
		return s.InformNoUpdate
	case FlagShowTimeout:
		return s.ShowTimeout
	case FlagShowError:
		return s.ShowError
	default:
		return false
	}
}

// Disable silences a category for the rest of the process.
func (p *Preferences) Disable(f Flag) {
	if f == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.suppressed[f] = true
}

// Reset replaces the configured settings, e.g. after the config file changed.
func (p *Preferences) Reset(s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
}

// Apply resolves ans against d and records any requested suppression.
func (p *Preferences) Apply(d Decision, ans prompt.Answer) Action {
	act := d.Resolve(ans)
	p.Disable(act.Disable)
	return act
}
