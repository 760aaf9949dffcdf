package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/bft-labs/dancer/internal/config"
	"github.com/bft-labs/dancer/pkg/deferred"
	"github.com/bft-labs/dancer/pkg/frontend"
	"github.com/bft-labs/dancer/pkg/frontend/headless"
	"github.com/bft-labs/dancer/pkg/frontend/terminal"
	"github.com/bft-labs/dancer/pkg/lifecycle"
	"github.com/bft-labs/dancer/pkg/log"
	"github.com/bft-labs/dancer/pkg/update"
)

const digestTask = "digest"

// exitInterrupted is returned when a signal stopped the run.
const exitInterrupted = 130

// appOptions carries everything the factory needs besides the parsed args.
type appOptions struct {
	program string
	version string

	cfg     config.Config
	cfgPath string
	base    config.Config
	changed map[string]bool

	in  io.Reader
	out io.Writer
	err io.Writer

	// isTerminal decides frontend=auto. Nil checks stdin.
	isTerminal func() bool
	openURL    func(string) error

	// states receives lifecycle state changes once the host exists.
	states *stateRelay
}

// digestApp hashes the files named on the command line on the worker pool
// and prints each digest from the tick loop.
type digestApp struct {
	opts    appOptions
	files   []string
	logger  log.Logger
	host    *frontend.Host
	fe      frontend.Frontend
	prefs   *update.Preferences
	watcher *config.Watcher
}

func newApp(opts appOptions) lifecycle.Factory {
	return func(args lifecycle.Args, level zerolog.Level) (lifecycle.Application, error) {
		a, err := buildApp(opts, args, level)
		if err != nil {
			return nil, err
		}
		return a, nil
	}
}

func buildApp(opts appOptions, args lifecycle.Args, level zerolog.Level) (*digestApp, error) {
	cfg := opts.cfg
	logger := log.NewZerologAdapterWithLogger(config.Logger().Level(level))

	reg := prometheus.NewRegistry()
	metrics := deferred.NewMetrics(reg)

	a := &digestApp{
		opts:   opts,
		files:  args.Positional,
		logger: logger,
		prefs:  update.NewPreferences(cfg.UpdateSettings()),
	}

	if opts.cfgPath != "" && config.FileExists(opts.cfgPath) {
		a.watcher = config.NewWatcher(opts.cfgPath, opts.base, opts.changed, cfg, logger)
		a.watcher.Subscribe(func(c config.Config) {
			a.prefs.Reset(c.UpdateSettings())
		})
	}

	var tf *terminal.Frontend
	var srv *headless.Server
	switch resolveFrontend(cfg.Frontend, opts.isTerminal) {
	case config.FrontendTerminal:
		var themeSource func() string
		if a.watcher != nil {
			themeSource = func() string { return a.watcher.Current().Theme }
		}
		tf = terminal.New(terminal.Options{
			In:          opts.in,
			Out:         opts.err,
			Theme:       cfg.Theme,
			ThemeSource: themeSource,
			OnThemeChange: func(theme string) {
				logger.Info("theme applied", log.String("theme", theme))
			},
			Logger: logger,
		})
		a.fe = tf
	default:
		if cfg.StatusAddr != "" {
			srv = headless.NewServer(cfg.StatusAddr, func() frontend.Status { return a.host.Status() }, reg, logger)
		}
		a.fe = headless.New(cfg.RestartOnCrash, srv, logger)
	}

	var checker *update.Checker
	if cfg.CheckForUpdates {
		c, err := a.updateChecker()
		if err != nil {
			logger.Warn("update check disabled", log.Err(err))
		} else {
			checker = c
		}
	}

	a.host = frontend.NewHost(frontend.HostConfig{
		Program:      opts.program,
		Version:      opts.version,
		TickInterval: cfg.TickInterval,
		Scheduler:    cfg.SchedulerConfig(),
		Updates:      checker,
	}, logger, metrics)
	if tf != nil {
		a.host.AddTickHook(tf.TickHook)
	}
	opts.states.attach(a.host)

	if srv != nil {
		if err := srv.Start(); err != nil {
			_ = a.host.Close()
			return nil, fmt.Errorf("start status server: %w", err)
		}
	}

	return a, nil
}

func (a *digestApp) updateChecker() (*update.Checker, error) {
	engine, err := update.NewEngine(a.opts.program, a.opts.version, a.opts.cfg.SorryURL)
	if err != nil {
		return nil, err
	}
	openURL := a.opts.openURL
	if openURL == nil {
		openURL = frontend.OpenURL
	}
	return &update.Checker{
		Fetcher:     update.NewFetcher(nil, a.opts.cfg.ManifestURL, a.opts.cfg.UpdateTimeout),
		Engine:      engine,
		Preferences: a.prefs,
		Prompter:    a.fe,
		OpenURL:     openURL,
		Logger:      a.logger,
	}, nil
}

func resolveFrontend(name string, isTerminal func() bool) string {
	if name != config.FrontendAuto && name != "" {
		return name
	}
	if isTerminal == nil {
		isTerminal = stdinIsTerminal
	}
	if isTerminal() {
		return config.FrontendTerminal
	}
	return config.FrontendHeadless
}

func stdinIsTerminal() bool {
	fd := os.Stdin.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Exec digests every file and returns 1 if any of them failed.
func (a *digestApp) Exec() (int, error) {
	a.host.LogBanner()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if a.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		a.host.OnClose(func() error {
			cancel()
			return nil
		})
		go func() {
			if err := a.watcher.Run(watchCtx); err != nil {
				a.logger.Warn("config watcher stopped", log.Err(err))
			}
		}()
	}

	if _, err := a.host.CheckForUpdates(ctx); err != nil {
		a.logger.Warn("update check failed", log.Err(err))
	}

	if len(a.files) == 0 {
		a.logger.Info("no files to digest")
		return 0, nil
	}

	remaining := len(a.files)
	failed := 0
	for _, path := range a.files {
		path := path
		collect := func(sum string, err error) {
			remaining--
			if err != nil {
				failed++
				a.logger.Error("digest failed", log.String("file", path), log.Err(err))
				return
			}
			fmt.Fprintf(a.opts.out, "%s  %s\n", sum, path)
		}

		err := deferred.OffloadFunc(a.host.Scheduler(), digestTask, func() (string, error) {
			return digestFile(path)
		}, collect)
		if errors.Is(err, deferred.ErrNotConfigured) {
			collect(digestFile(path))
			continue
		}
		if err != nil {
			return 1, fmt.Errorf("offload %s: %w", path, err)
		}
	}

	if err := a.host.Loop(ctx, func() bool { return remaining == 0 }); err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Warn("interrupted", log.Int("remaining", remaining))
			return exitInterrupted, nil
		}
		return 1, err
	}

	a.logger.Info("digest complete", log.Int("files", len(a.files)), log.Int("failed", failed))
	if failed > 0 {
		return 1, nil
	}
	return 0, nil
}

// Crash delegates to the frontend.
func (a *digestApp) Crash(report lifecycle.ErrorReport) bool {
	return a.fe.Crash(report)
}

// Close stops the tick loop, the watcher and the pool, then the frontend.
func (a *digestApp) Close() error {
	return errors.Join(a.host.Close(), a.fe.Close())
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
