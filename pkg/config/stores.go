package config

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/internal/telemetry"
	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/cache/badger"
	"github.com/stratacms/strata/pkg/cache/redis"
	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/metrics"
	"github.com/stratacms/strata/pkg/repository"
	"github.com/stratacms/strata/pkg/scope"
)

// InitializeMetrics enables collection when configured and returns the
// registry, or nil when metrics are disabled.
func InitializeMetrics(cfg *Config) *prometheus.Registry {
	if !cfg.Metrics.Enabled {
		metrics.Reset()
		return nil
	}
	return metrics.InitRegistry(cfg.Metrics.Namespace)
}

// InitializeTelemetry starts tracing and profiling as configured. The
// returned function stops both and flushes pending spans.
func InitializeTelemetry(ctx context.Context, cfg *Config, version string) (func(context.Context) error, error) {
	stopTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	stopProfiling, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    telemetry.ServiceName,
		ServiceVersion: version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		_ = stopTracing(ctx)
		return nil, fmt.Errorf("failed to initialize profiling: %w", err)
	}

	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint)
	}

	return func(ctx context.Context) error {
		profErr := stopProfiling()
		if err := stopTracing(ctx); err != nil {
			return err
		}
		return profErr
	}, nil
}

// CreateCacheProvider creates the entity cache provider from configuration.
func CreateCacheProvider(ctx context.Context, cfg CacheConfig, m cache.Metrics) (cache.Provider, error) {
	switch cfg.Provider {
	case CacheProviderMemory, "":
		return cache.NewMemoryProvider(cache.MemoryOptions{
			DefaultTTL: cfg.DefaultTTL,
			MaxEntries: cfg.MaxEntries,
			Metrics:    m,
		}), nil
	case CacheProviderRedis:
		return redis.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix, cfg.DefaultTTL)
	case CacheProviderBadger:
		if cfg.Badger.Path == "" && !cfg.Badger.InMemory {
			return nil, fmt.Errorf("badger cache requires path or in_memory to be set")
		}
		return badger.Open(cfg.Badger.Path, cfg.Badger.InMemory, cfg.DefaultTTL)
	case CacheProviderNone:
		return cache.Disabled(), nil
	default:
		return nil, fmt.Errorf("unknown cache provider: %q", cfg.Provider)
	}
}

// Runtime bundles the database, cache and repositories opened from a
// configuration.
type Runtime struct {
	Database     *database.Database
	Cache        cache.Provider
	Scopes       *scope.Provider
	Repositories *repository.Repositories

	closers []func() error
}

// OpenRuntime connects to the database, migrates the schema and opens the
// cache. Metrics must be initialized first for collectors to be attached.
func OpenRuntime(ctx context.Context, cfg *Config) (*Runtime, error) {
	db, err := database.OpenAndMigrate(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	cacheMetrics := metrics.NewCacheMetrics()
	provider, err := CreateCacheProvider(ctx, cfg.Cache, cacheMetrics)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("cache provider opened", "provider", cfg.Cache.Provider)

	scopes := scope.NewProvider(db, provider).
		WithMetrics(cacheMetrics, metrics.NewRepositoryMetrics())

	return &Runtime{
		Database:     db,
		Cache:        provider,
		Scopes:       scopes,
		Repositories: repository.New(),
	}, nil
}

// OnClose registers fn to run after the cache and database are closed.
func (r *Runtime) OnClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

// Close releases the cache and the database connection, then runs the
// OnClose hooks in reverse order. The first error is returned.
func (r *Runtime) Close() error {
	errs := []error{r.Cache.Close(), r.Database.Close()}
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
