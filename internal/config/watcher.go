package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/dancer/pkg/log"
)

// DefaultDebounce coalesces bursts of file events into one reload.
const DefaultDebounce = 100 * time.Millisecond

// Watcher re-reads the config file when it changes and hands the new
// Config to subscribers.
type Watcher struct {
	path     string
	base     Config
	changed  map[string]bool
	debounce time.Duration
	logger   log.Logger

	mu      sync.Mutex
	current Config
	subs    []func(Config)
	timer   *time.Timer
	stopped bool
}

// NewWatcher creates a watcher for path. base and changed are the same
// values passed to Load so reloads keep flag precedence.
func NewWatcher(path string, base Config, changed map[string]bool, current Config, logger log.Logger) *Watcher {
	return &Watcher{
		path:     path,
		base:     base,
		changed:  changed,
		debounce: DefaultDebounce,
		logger:   log.OrNoop(logger),
		current:  current,
	}
}

// Subscribe registers fn for every successful reload.
func (w *Watcher) Subscribe(fn func(Config)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subs = append(w.subs, fn)
}

// Current returns the last loaded Config.
func (w *Watcher) Current() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches the directory holding the config file until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	w.logger.Debug("watching config", log.String("path", w.path))

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stop()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				w.stop()
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-watcher.Errors:
			if !ok {
				w.stop()
				return nil
			}
			w.logger.Warn("config watcher error", log.Err(err))
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// reload re-reads the file. A broken file keeps the previous Config.
func (w *Watcher) reload() {
	cfg, err := Load(w.path, w.base, w.changed)
	if err != nil {
		w.logger.Warn("config reload failed, keeping previous configuration", log.Err(err))
		return
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.current = cfg
	subs := append([]func(Config){}, w.subs...)
	w.mu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
}
