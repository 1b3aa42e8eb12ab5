package config

import (
	"path/filepath"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	cfg.Database.ApplyDefaults()
	applyCacheDefaults(&cfg.Cache)
	applyMetricsDefaults(&cfg.Metrics)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyRetentionDefaults(&cfg.Retention)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyCacheDefaults sets entity cache defaults.
func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Provider == "" {
		cfg.Provider = CacheProviderMemory
	}
	cfg.Provider = strings.ToLower(cfg.Provider)

	if cfg.DefaultTTL == 0 {
		cfg.DefaultTTL = 30 * time.Minute
	}
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = 10000
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = "localhost:6379"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "strata"
	}
	if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
		cfg.Badger.Path = filepath.Join(getConfigDir(), "cache")
	}
}

// applyMetricsDefaults sets Prometheus defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Namespace == "" {
		cfg.Namespace = "strata"
	}
}

// applyTelemetryDefaults sets tracing and profiling defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{"cpu", "alloc_space", "inuse_space", "goroutines"}
	}
}

// applyRetentionDefaults sets log retention defaults.
func applyRetentionDefaults(cfg *RetentionConfig) {
	if cfg.CacheInstructions == 0 {
		cfg.CacheInstructions = 48 * time.Hour
	}
	if cfg.Audit == 0 {
		cfg.Audit = 90 * 24 * time.Hour
	}
	if cfg.LongRunningOperations == 0 {
		cfg.LongRunningOperations = 7 * 24 * time.Hour
	}
}

// GetDefaultConfig returns a Config with all default values applied.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
