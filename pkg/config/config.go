// Package config loads strata configuration from file, environment and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stratacms/strata/pkg/database"
)

// EnvPrefix is the prefix of environment variable overrides.
const EnvPrefix = "STRATA"

// Config represents the strata configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (STRATA_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Database configures the SQL backend (SQLite or PostgreSQL)
	Database database.Config `mapstructure:"database" yaml:"database"`

	// Cache configures the second-level entity cache
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Metrics controls Prometheus instrumentation
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// Retention controls how long log tables keep rows before cleanup
	Retention RetentionConfig `mapstructure:"retention" yaml:"retention"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// Cache provider names.
const (
	CacheProviderMemory = "memory"
	CacheProviderRedis  = "redis"
	CacheProviderBadger = "badger"
	CacheProviderNone   = "none"
)

// CacheConfig configures the entity cache shared by all repositories.
type CacheConfig struct {
	// Provider selects the backing store: memory, redis, badger or none.
	// "none" disables caching entirely.
	Provider string `mapstructure:"provider" validate:"required,oneof=memory redis badger none" yaml:"provider"`

	// DefaultTTL is how long an entry lives. Zero keeps entries until evicted.
	DefaultTTL time.Duration `mapstructure:"default_ttl" validate:"gte=0" yaml:"default_ttl"`

	// MaxEntries bounds each in-memory region. Zero means unbounded.
	MaxEntries int `mapstructure:"max_entries" validate:"gte=0" yaml:"max_entries"`

	Redis  RedisCacheConfig  `mapstructure:"redis" yaml:"redis"`
	Badger BadgerCacheConfig `mapstructure:"badger" yaml:"badger"`
}

// RedisCacheConfig configures the redis cache provider.
type RedisCacheConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password,omitempty"`
	DB       int    `mapstructure:"db" validate:"gte=0" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// BadgerCacheConfig configures the badger cache provider.
type BadgerCacheConfig struct {
	Path     string `mapstructure:"path" yaml:"path"`
	InMemory bool   `mapstructure:"in_memory" yaml:"in_memory"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	// Enabled registers cache and repository collectors
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Namespace prefixes every metric name
	Namespace string `mapstructure:"namespace" validate:"omitempty,alphanumunicode" yaml:"namespace"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// Each unit of work is exported as one span.
type TelemetryConfig struct {
	// Enabled turns tracing on. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the fraction of units of work traced (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" validate:"omitempty,url" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect
	// Default: cpu, alloc_space, inuse_space, goroutines
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// RetentionConfig controls cleanup of log tables.
type RetentionConfig struct {
	CacheInstructions     time.Duration `mapstructure:"cache_instructions" validate:"gte=0" yaml:"cache_instructions"`
	Audit                 time.Duration `mapstructure:"audit" validate:"gte=0" yaml:"audit"`
	LongRunningOperations time.Duration `mapstructure:"long_running_operations" validate:"gte=0" yaml:"long_running_operations"`
}

// Load loads configuration from file, environment variables, and defaults.
//
// If configPath is empty, the default location is searched:
// $XDG_CONFIG_HOME/strata/config.yaml. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold database and redis passwords.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures environment overrides and the config file location.
func setupViper(v *viper.Viper, configPath string) {
	// STRATA_DATABASE_POSTGRES_HOST overrides database.postgres.host
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeOf(Config{}), "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvs registers every mapstructure key so environment overrides apply
// even when the key is absent from the config file.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}
		if field.Type.Kind() == reflect.Struct && field.Type != reflect.TypeOf(time.Time{}) {
			bindEnvs(v, field.Type, key)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the configured file. It reports false when no file exists.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "720h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/strata, or ~/.config/strata.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "strata")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "strata")
}

// GetDefaultConfigPath returns the path of the default config file.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether the default config file exists.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the strata configuration directory.
func GetConfigDir() string {
	return getConfigDir()
}

// MustLoad loads configuration and fails when the config file is missing.
//
// If configPath is empty, the default location is used.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  strata init\n\n"+
				"Or specify a custom config file:\n"+
				"  strata <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s\n\n"+
			"Please create the configuration file:\n"+
			"  strata init --config %s",
			configPath, configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}
