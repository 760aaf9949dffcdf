package config

import "os"

// ApplyEnvConfig applies DANCER_* environment variables to the Config.
// Flags explicitly set on the command line take precedence.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("logging-mode", os.Getenv("DANCER_LOGGING_MODE"), &cfg.LoggingMode)
	s.setString("frontend", os.Getenv("DANCER_FRONTEND"), &cfg.Frontend)
	s.setString("manifest-url", os.Getenv("DANCER_MANIFEST_URL"), &cfg.ManifestURL)
	s.setString("sorry-url", os.Getenv("DANCER_SORRY_URL"), &cfg.SorryURL)
	s.setString("theme", os.Getenv("DANCER_THEME"), &cfg.Theme)
	s.setString("status-addr", os.Getenv("DANCER_STATUS_ADDR"), &cfg.StatusAddr)

	if err := s.setDuration("tick-interval", os.Getenv("DANCER_TICK_INTERVAL"), &cfg.TickInterval); err != nil {
		return err
	}
	if err := s.setDuration("pool-idle-timeout", os.Getenv("DANCER_POOL_IDLE_TIMEOUT"), &cfg.PoolIdleTimeout); err != nil {
		return err
	}
	if err := s.setDuration("update-timeout", os.Getenv("DANCER_UPDATE_TIMEOUT"), &cfg.UpdateTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("max-items-per-tick", os.Getenv("DANCER_MAX_ITEMS_PER_TICK"), &cfg.MaxItemsPerTick); err != nil {
		return err
	}
	if err := s.setIntFromString("pool-min-workers", os.Getenv("DANCER_POOL_MIN_WORKERS"), &cfg.PoolMinWorkers); err != nil {
		return err
	}
	if err := s.setIntFromString("pool-max-workers", os.Getenv("DANCER_POOL_MAX_WORKERS"), &cfg.PoolMaxWorkers); err != nil {
		return err
	}
	if err := s.setIntFromString("pool-queue-capacity", os.Getenv("DANCER_POOL_QUEUE_CAPACITY"), &cfg.PoolQueueCapacity); err != nil {
		return err
	}
	if err := s.setIntFromString("max-restarts", os.Getenv("DANCER_MAX_RESTARTS"), &cfg.MaxRestarts); err != nil {
		return err
	}

	s.setBoolFromString("pool", os.Getenv("DANCER_POOL_ENABLED"), &cfg.PoolEnabled)
	s.setBoolFromString("check-for-updates", os.Getenv("DANCER_CHECK_FOR_UPDATES"), &cfg.CheckForUpdates)
	s.setBoolFromString("inform-on-update", os.Getenv("DANCER_INFORM_ON_UPDATE"), &cfg.InformOnUpdate)
	s.setBoolFromString("inform-no-update", os.Getenv("DANCER_INFORM_NO_UPDATE"), &cfg.InformNoUpdate)
	s.setBoolFromString("show-update-timeout", os.Getenv("DANCER_SHOW_UPDATE_TIMEOUT"), &cfg.ShowUpdateTimeout)
	s.setBoolFromString("show-update-error", os.Getenv("DANCER_SHOW_UPDATE_ERROR"), &cfg.ShowUpdateError)
	s.setBoolFromString("restart-on-crash", os.Getenv("DANCER_RESTART_ON_CRASH"), &cfg.RestartOnCrash)

	return nil
}
