package commands

import (
	"context"
	"fmt"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// openRuntime loads the configuration, initializes logging, metrics and
// telemetry and opens the database and cache. Closing the runtime also
// flushes telemetry.
func openRuntime(ctx context.Context) (*config.Config, *config.Runtime, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, nil, err
	}
	if err := InitLogger(cfg); err != nil {
		return nil, nil, err
	}
	config.InitializeMetrics(cfg)

	shutdown, err := config.InitializeTelemetry(ctx, cfg, Version)
	if err != nil {
		return nil, nil, err
	}

	rt, err := config.OpenRuntime(ctx, cfg)
	if err != nil {
		_ = shutdown(ctx)
		return nil, nil, err
	}
	rt.OnClose(func() error {
		if err := shutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
			return err
		}
		return nil
	})
	return cfg, rt, nil
}
