package config

import "fmt"

// Load layers the config file at path and the environment over base, then
// validates. base already carries defaults and flag values; changed names
// the flags set on the command line. A missing file is not an error.
func Load(path string, base Config, changed map[string]bool) (Config, error) {
	cfg := base
	if path != "" && FileExists(path) {
		fc, err := LoadFileConfig(path)
		if err != nil {
			return cfg, fmt.Errorf("load config: %w", err)
		}
		if err := ApplyFileConfig(&cfg, fc, changed); err != nil {
			return cfg, err
		}
	}

	// These override file config but are overridden by flags (checked via changed map)
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		return cfg, err
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
