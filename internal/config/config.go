package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/bft-labs/dancer/pkg/deferred"
	"github.com/bft-labs/dancer/pkg/update"
)

// Frontend names.
const (
	FrontendAuto     = "auto"
	FrontendTerminal = "terminal"
	FrontendHeadless = "headless"
)

// DefaultTheme is used when neither file nor DANCER_THEME sets one.
const DefaultTheme = "light"

// Config holds the host configuration.
type Config struct {
	LoggingMode string
	Frontend    string

	TickInterval    time.Duration
	MaxItemsPerTick int

	PoolEnabled       bool
	PoolMinWorkers    int
	PoolMaxWorkers    int
	PoolIdleTimeout   time.Duration
	PoolQueueCapacity int

	CheckForUpdates   bool
	ManifestURL       string
	UpdateTimeout     time.Duration
	SorryURL          string
	InformOnUpdate    bool
	InformNoUpdate    bool
	ShowUpdateTimeout bool
	ShowUpdateError   bool

	RestartOnCrash bool
	MaxRestarts    int

	Theme      string
	StatusAddr string
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Frontend:          FrontendAuto,
		TickInterval:      500 * time.Millisecond,
		MaxItemsPerTick:   deferred.DefaultMaxItemsPerTick,
		PoolEnabled:       true,
		PoolMinWorkers:    0,
		PoolMaxWorkers:    runtime.NumCPU(),
		PoolIdleTimeout:   30 * time.Second,
		PoolQueueCapacity: 64,
		UpdateTimeout:     update.DefaultTimeout,
		InformOnUpdate:    true,
		InformNoUpdate:    false,
		ShowUpdateTimeout: true,
		ShowUpdateError:   true,
		MaxRestarts:       3,
		Theme:             DefaultTheme,
	}
}

// Validate checks the configuration for errors and sets derived defaults.
func (c *Config) Validate() error {
	c.Frontend = strings.ToLower(strings.TrimSpace(c.Frontend))
	switch c.Frontend {
	case "":
		c.Frontend = FrontendAuto
	case FrontendAuto, FrontendTerminal, FrontendHeadless:
	default:
		return fmt.Errorf("unknown frontend %q (want auto, terminal or headless)", c.Frontend)
	}

	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive")
	}
	if c.MaxItemsPerTick < 1 {
		return fmt.Errorf("max items per tick must be at least 1")
	}
	if c.PoolMaxWorkers < 1 {
		return fmt.Errorf("pool max workers must be at least 1")
	}
	if c.PoolMinWorkers < 0 {
		return fmt.Errorf("pool min workers must not be negative")
	}
	if c.PoolMinWorkers > c.PoolMaxWorkers {
		return fmt.Errorf("pool min workers (%d) exceeds max workers (%d)", c.PoolMinWorkers, c.PoolMaxWorkers)
	}
	if c.PoolQueueCapacity < 0 {
		return fmt.Errorf("pool queue capacity must not be negative")
	}
	if c.PoolIdleTimeout <= 0 {
		return fmt.Errorf("pool idle timeout must be positive")
	}
	if c.CheckForUpdates && c.ManifestURL == "" {
		return fmt.Errorf("manifest-url is required when checking for updates")
	}
	if c.UpdateTimeout <= 0 {
		c.UpdateTimeout = update.DefaultTimeout
	}
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}

	return nil
}

// SchedulerConfig converts the pool settings.
func (c Config) SchedulerConfig() deferred.SchedulerConfig {
	sc := deferred.DefaultSchedulerConfig()
	sc.Pooling = c.PoolEnabled
	sc.MaxItemsPerTick = c.MaxItemsPerTick
	sc.Pool = deferred.PoolConfig{
		MinWorkers:    c.PoolMinWorkers,
		MaxWorkers:    c.PoolMaxWorkers,
		IdleTimeout:   c.PoolIdleTimeout,
		QueueCapacity: c.PoolQueueCapacity,
	}
	return sc
}

// UpdateSettings converts the inform/show flags.
func (c Config) UpdateSettings() update.Settings {
	return update.Settings{
		InformOnUpdate: c.InformOnUpdate,
		InformNoUpdate: c.InformNoUpdate,
		ShowTimeout:    c.ShowUpdateTimeout,
		ShowError:      c.ShowUpdateError,
	}
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

// newConfigSetter creates a new setter with the given changed flags map.
func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int where zero and negative values are meaningful.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setDuration parses and sets a duration from string if valid and flag not changed.
func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

// setBool sets a bool value from a pointer if not nil and flag not changed.
func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Used for environment variables that come as strings.
func (s *configSetter) setIntFromString(flag, value string, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = i
	return nil
}

// setBoolFromString parses a string to bool and sets the destination.
// Accepts "true", "1" as true, anything else as false.
// Used for environment variables that come as strings.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
