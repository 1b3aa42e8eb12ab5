package config

import (
	"strings"
	"testing"

	"github.com/stratacms/strata/pkg/database"
)

func TestValidate_ValidConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Errorf("Expected valid config to pass validation, got error: %v", err)
	}
}

func TestValidate_InvalidLogLevel(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Level = "INVALID"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level")
	}
	if !strings.Contains(err.Error(), "oneof") {
		t.Errorf("Expected 'oneof' validation error, got: %v", err)
	}
}

func TestValidate_InvalidLogFormat(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Logging.Format = "xml"

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for invalid log format")
	}
}

func TestValidate_InvalidPostgresPort(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Database = database.Config{
		Type:     database.DatabaseTypePostgres,
		Postgres: database.PostgresConfig{Host: "db", Database: "cms", User: "cms", Port: 70000},
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for port out of range")
	}
	if !strings.Contains(err.Error(), "max") {
		t.Errorf("Expected 'max' validation error, got: %v", err)
	}
}

func TestValidate_PostgresMissingHost(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Database = database.Config{Type: database.DatabaseTypePostgres}
	cfg.Database.ApplyDefaults()

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for missing postgres host")
	}
	if !strings.Contains(err.Error(), "host") {
		t.Errorf("Expected host error, got: %v", err)
	}
}

func TestValidate_NegativeTTL(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Cache.DefaultTTL = -1

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for negative ttl")
	}
}

func TestValidate_RedisRequiresAddr(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Cache.Provider = CacheProviderRedis
	cfg.Cache.Redis.Addr = ""

	if err := Validate(cfg); err == nil {
		t.Fatal("Expected validation error for redis without addr")
	}
}

func TestValidate_LogLevelNormalization(t *testing.T) {
	testCases := []string{"info", "INFO", "debug", "DEBUG", "warn", "WARN", "error", "ERROR"}

	for _, level := range testCases {
		cfg := GetDefaultConfig()
		cfg.Logging.Level = level

		if err := Validate(cfg); err != nil {
			t.Errorf("Validation failed for level %q: %v", level, err)
		}

		// Validation should NOT normalize - level should remain as-is
		if cfg.Logging.Level != level {
			t.Errorf("Expected level to remain %q after validation, got %q", level, cfg.Logging.Level)
		}
	}

	cfg := &Config{Logging: LoggingConfig{Level: "info"}}
	ApplyDefaults(cfg)
	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected ApplyDefaults to normalize 'info' to 'INFO', got %q", cfg.Logging.Level)
	}
}

func TestValidate_Telemetry(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Telemetry.SampleRate = 1.5
	if err := Validate(cfg); err == nil {
		t.Error("Expected validation error for sample rate above 1")
	}

	cfg = GetDefaultConfig()
	cfg.Telemetry.Profiling.ProfileTypes = []string{"cpu", "heap"}
	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation error for unknown profile type")
	}
	if !strings.Contains(err.Error(), "heap") {
		t.Errorf("Expected error to name the profile type, got: %v", err)
	}
}
