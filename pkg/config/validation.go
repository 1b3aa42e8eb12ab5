package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/stratacms/strata/internal/telemetry"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tag constraints and cross-field rules.
//
// Validation does not normalize values; ApplyDefaults does that.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return err
	}

	if err := cfg.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	switch cfg.Cache.Provider {
	case CacheProviderRedis:
		if cfg.Cache.Redis.Addr == "" {
			return fmt.Errorf("cache: redis addr is required when provider is redis")
		}
	case CacheProviderBadger:
		if cfg.Cache.Badger.Path == "" && !cfg.Cache.Badger.InMemory {
			return fmt.Errorf("cache: badger path is required unless in_memory is set")
		}
	}

	for _, pt := range cfg.Telemetry.Profiling.ProfileTypes {
		if !telemetry.ValidProfileType(pt) {
			return fmt.Errorf("telemetry: unknown profile type %q", pt)
		}
	}

	return nil
}
