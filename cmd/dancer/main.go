package main

import (
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/dancer/internal/config"
	"github.com/bft-labs/dancer/pkg/lifecycle"
	"github.com/bft-labs/dancer/pkg/log"
)

const program = "dancer"

const helpDescription = `
Hash files on a background worker pool while the foreground drains results
on a fixed tick, under a crash and restart supervisor.

Highlights:
  - Results are collected a few at a time per tick so the foreground never stalls.
  - Failures end in one readable report; the terminal frontend offers a restart.
  - Optional update check against a release manifest.
  - Configure via file, env (DANCER_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  dancer go.mod go.sum
  dancer --frontend headless --status-addr :9102 --restart-on-crash *.iso
  dancer --config $HOME/.dancer/config.toml --logging-mode DEBUG file.bin
`)

// version is set with -ldflags "-X main.version=1.2.0".
var version = ""

func getVersion() string {
	if version != "" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var cfgPath string
	exitCode := 0

	logger := config.Logger()

	root := &cobra.Command{
		Use:           program + " [files...]",
		Short:         "Digest files on a worker pool under a crash/restart supervisor",
		Long:          strings.TrimSpace(helpDescription),
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath()
			}

			// Build set of changed flags
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			base := cfg
			loaded, err := config.Load(cfgFile, base, changed)
			if err != nil {
				return err
			}

			level, err := log.ParseLevel(loaded.LoggingMode)
			if err != nil {
				logger.Error().Err(err).Msg("invalid logging mode")
			}
			zerolog.SetGlobalLevel(level)
			logger.Debug().Interface("config", loaded).Msg("configuration")

			ctrl := &lifecycle.Controller{
				Program: program,
				Factory: newApp(appOptions{
					program: program,
					version: getVersion(),
					cfg:     loaded,
					cfgPath: cfgFile,
					base:    base,
					changed: changed,
					in:      os.Stdin,
					out:     os.Stdout,
					err:     os.Stderr,
					states:  relay,
				}),
				Args:      lifecycle.Args{Flags: cmd.Flags(), Positional: args},
				Level:     level,
				ExitCodes: exitCodes(loaded.MaxRestarts),
				Logger:    log.NewZerologAdapterWithLogger(logger),
				Emitter:   relay,
			}
			exitCode = ctrl.Run()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfg.LoggingMode, "logging-mode", cfg.LoggingMode, "log level: DEBUG, INFO, WARN, WARNING or ERROR")

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.dancer/config.toml)")
	root.Flags().StringVar(&cfg.Frontend, "frontend", cfg.Frontend, "frontend: auto, terminal or headless")
	root.Flags().DurationVar(&cfg.TickInterval, "tick-interval", cfg.TickInterval, "period of the foreground tick")
	root.Flags().IntVar(&cfg.MaxItemsPerTick, "max-items-per-tick", cfg.MaxItemsPerTick, "results collected per tick")

	root.Flags().BoolVar(&cfg.PoolEnabled, "pool", cfg.PoolEnabled, "digest on the worker pool (false digests in the foreground)")
	root.Flags().IntVar(&cfg.PoolMinWorkers, "pool-min-workers", cfg.PoolMinWorkers, "workers kept alive while idle")
	root.Flags().IntVar(&cfg.PoolMaxWorkers, "pool-max-workers", cfg.PoolMaxWorkers, "maximum number of workers")
	root.Flags().DurationVar(&cfg.PoolIdleTimeout, "pool-idle-timeout", cfg.PoolIdleTimeout, "idle time before a worker above the minimum retires")
	root.Flags().IntVar(&cfg.PoolQueueCapacity, "pool-queue-capacity", cfg.PoolQueueCapacity, "jobs that may wait for a worker")

	root.Flags().BoolVar(&cfg.CheckForUpdates, "check-for-updates", cfg.CheckForUpdates, "check the release manifest at startup")
	root.Flags().StringVar(&cfg.ManifestURL, "manifest-url", cfg.ManifestURL, "release manifest URL")
	root.Flags().DurationVar(&cfg.UpdateTimeout, "update-timeout", cfg.UpdateTimeout, "timeout of the manifest request")
	root.Flags().StringVar(&cfg.SorryURL, "sorry-url", cfg.SorryURL, "page opened when a release has no update URL")
	root.Flags().BoolVar(&cfg.InformOnUpdate, "inform-on-update", cfg.InformOnUpdate, "prompt when an update is available")
	root.Flags().BoolVar(&cfg.InformNoUpdate, "inform-no-update", cfg.InformNoUpdate, "prompt when no recommended update exists")
	root.Flags().BoolVar(&cfg.ShowUpdateTimeout, "show-update-timeout", cfg.ShowUpdateTimeout, "prompt when the update check times out")
	root.Flags().BoolVar(&cfg.ShowUpdateError, "show-update-error", cfg.ShowUpdateError, "prompt when the update check fails")

	root.Flags().BoolVar(&cfg.RestartOnCrash, "restart-on-crash", cfg.RestartOnCrash, "headless: restart after a crash")
	root.Flags().IntVar(&cfg.MaxRestarts, "max-restarts", cfg.MaxRestarts, "consecutive restarts allowed (0 disables restarting, negative is unlimited)")
	root.Flags().StringVar(&cfg.Theme, "theme", cfg.Theme, "terminal theme: light or dark")
	root.Flags().StringVar(&cfg.StatusAddr, "status-addr", cfg.StatusAddr, "headless: address of the status endpoint (empty disables)")

	if err := root.Execute(); err != nil {
		logger.Error().Err(err).Msg(program)
		os.Exit(1)
	}
	os.Exit(exitCode)
}

var relay = &stateRelay{}

// exitCodes maps the restart code unless restarting is disabled.
func exitCodes(maxRestarts int) lifecycle.ExitCodes {
	if maxRestarts == 0 {
		return nil
	}
	return lifecycle.DefaultExitCodes(&lifecycle.Restarter{
		MaxRestarts: maxRestarts,
		Backoff:     lifecycle.NewBackoff(time.Second, 30*time.Second),
	})
}
