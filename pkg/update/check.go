package update

import (
	"context"
	"fmt"

	"github.com/bft-labs/dancer/pkg/log"
	"github.com/bft-labs/dancer/pkg/prompt"
)

// Checker wires fetching, deciding, prompting and acting together.
type Checker struct {
	Fetcher     *Fetcher
	Engine      *Engine
	Preferences *Preferences
	Prompter    prompt.Prompter

	// OpenURL opens the update page. Nil disables opening.
	OpenURL func(url string) error

	Logger log.Logger
}

// Run performs one update check. Only prompter failures are returned;
// transport and manifest problems end up as prompts or silence.
func (c *Checker) Run(ctx context.Context) (Decision, error) {
	logger := log.OrNoop(c.Logger)

	out := c.Fetcher.Fetch(ctx)
	if out.Err != nil {
		logger.Warn("update check failed",
			log.String("outcome", out.Kind.String()),
			log.Err(out.Err),
		)
	}

	d := c.Engine.Decide(out, c.Preferences.Snapshot())
	logger.Debug("update decision", log.String("decision", d.Kind.String()), log.Bool("show", d.Show))
	if !d.Show {
		return d, nil
	}

	ans, err := c.Prompter.Prompt(ctx, d.Request)
	if err != nil {
		return d, fmt.Errorf("update prompt: %w", err)
	}

	act := c.Preferences.Apply(d, ans)
	if act.Disable != "" {
		logger.Info("update prompt silenced", log.String("flag", string(act.Disable)))
	}
	if act.OpenURL != "" && c.OpenURL != nil {
		if err := c.OpenURL(act.OpenURL); err != nil {
			logger.Error("failed to open update page", log.String("url", act.OpenURL), log.Err(err))
		}
	}
	return d, nil
}
