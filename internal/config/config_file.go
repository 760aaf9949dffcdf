package config

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	LoggingMode string `toml:"logging_mode"`
	Frontend    string `toml:"frontend"`

	TickInterval    string `toml:"tick_interval"`
	MaxItemsPerTick int    `toml:"max_items_per_tick"`

	PoolEnabled       *bool  `toml:"pool_enabled"`
	PoolMinWorkers    *int   `toml:"pool_min_workers"`
	PoolMaxWorkers    int    `toml:"pool_max_workers"`
	PoolIdleTimeout   string `toml:"pool_idle_timeout"`
	PoolQueueCapacity *int   `toml:"pool_queue_capacity"`

	CheckForUpdates   *bool  `toml:"check_for_updates"`
	ManifestURL       string `toml:"manifest_url"`
	UpdateTimeout     string `toml:"update_timeout"`
	SorryURL          string `toml:"sorry_url"`
	InformOnUpdate    *bool  `toml:"inform_on_update"`
	InformNoUpdate    *bool  `toml:"inform_no_update"`
	ShowUpdateTimeout *bool  `toml:"show_update_timeout"`
	ShowUpdateError   *bool  `toml:"show_update_error"`

	RestartOnCrash *bool `toml:"restart_on_crash"`
	MaxRestarts    *int  `toml:"max_restarts"`

	Theme      string `toml:"theme"`
	StatusAddr string `toml:"status_addr"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.dancer/config.toml if user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".dancer", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("logging-mode", fc.LoggingMode, &cfg.LoggingMode)
	s.setString("frontend", fc.Frontend, &cfg.Frontend)
	s.setString("manifest-url", fc.ManifestURL, &cfg.ManifestURL)
	s.setString("sorry-url", fc.SorryURL, &cfg.SorryURL)
	s.setString("theme", fc.Theme, &cfg.Theme)
	s.setString("status-addr", fc.StatusAddr, &cfg.StatusAddr)

	if err := s.setDuration("tick-interval", fc.TickInterval, &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("pool-idle-timeout", fc.PoolIdleTimeout, &cfg.PoolIdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("update-timeout", fc.UpdateTimeout, &cfg.UpdateTimeout); err != nil {
		return err
	}

	s.setInt("max-items-per-tick", fc.MaxItemsPerTick, &cfg.MaxItemsPerTick)
	s.setInt("pool-max-workers", fc.PoolMaxWorkers, &cfg.PoolMaxWorkers)
	s.setIntPtr("pool-min-workers", fc.PoolMinWorkers, &cfg.PoolMinWorkers)
	s.setIntPtr("pool-queue-capacity", fc.PoolQueueCapacity, &cfg.PoolQueueCapacity)
	s.setIntPtr("max-restarts", fc.MaxRestarts, &cfg.MaxRestarts)

	s.setBool("pool", fc.PoolEnabled, &cfg.PoolEnabled)
	s.setBool("check-for-updates", fc.CheckForUpdates, &cfg.CheckForUpdates)
	s.setBool("inform-on-update", fc.InformOnUpdate, &cfg.InformOnUpdate)
	s.setBool("inform-no-update", fc.InformNoUpdate, &cfg.InformNoUpdate)
	s.setBool("show-update-timeout", fc.ShowUpdateTimeout, &cfg.ShowUpdateTimeout)
	s.setBool("show-update-error", fc.ShowUpdateError, &cfg.ShowUpdateError)
	s.setBool("restart-on-crash", fc.RestartOnCrash, &cfg.RestartOnCrash)

	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
