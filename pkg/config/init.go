package config

import (
	"fmt"
	"os"
)

const configHeader = `# Strata Configuration File
#
# Every key can be overridden with an environment variable using the STRATA_
# prefix, e.g. STRATA_DATABASE_TYPE=postgres or STRATA_CACHE_PROVIDER=redis.

`

// InitConfig writes a default config file to the default location and
// returns its path. An existing file is kept unless force is set.
func InitConfig(force bool) (string, error) {
	path := GetDefaultConfigPath()
	return path, InitConfigToPath(path, force)
}

// InitConfigToPath writes a default config file to path.
func InitConfigToPath(path string, force bool) error {
	return WriteConfig(path, GetDefaultConfig(), force)
}

// WriteConfig writes cfg to path with the explanatory header. An existing
// file is kept unless force is set.
func WriteConfig(path string, cfg *Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := SaveConfig(cfg, path); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read generated config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0600)
}
