package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`theme = "light"`), 0o644); err != nil {
		t.Fatal(err)
	}

	base := DefaultConfig()
	cfg, err := Load(path, base, nil)
	if err != nil {
		t.Fatal(err)
	}

	w := NewWatcher(path, base, nil, cfg, nil)
	w.debounce = 10 * time.Millisecond
	got := make(chan Config, 4)
	w.Subscribe(func(c Config) { got <- c })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register the directory.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(`theme = "dark"`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.Theme != "dark" {
			t.Errorf("Theme = %q, want dark", c.Theme)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after write")
	}
	if w.Current().Theme != "dark" {
		t.Errorf("Current().Theme = %q", w.Current().Theme)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error = %v", err)
	}
}

func TestWatcher_BrokenFileKeepsPrevious(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`frontend = "gui"`), 0o644); err != nil {
		t.Fatal(err)
	}

	prev := DefaultConfig()
	w := NewWatcher(path, DefaultConfig(), nil, prev, nil)
	called := false
	w.Subscribe(func(Config) { called = true })

	w.reload()
	if called {
		t.Error("subscriber notified for an invalid config")
	}
	if w.Current().Frontend != prev.Frontend {
		t.Errorf("Current().Frontend = %q", w.Current().Frontend)
	}
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "nope", "config.toml"), DefaultConfig(), nil, DefaultConfig(), nil)
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() on a missing directory should fail")
	}
}
