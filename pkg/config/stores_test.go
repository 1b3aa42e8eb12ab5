package config

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/models"
)

func TestCreateCacheProvider(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		cfg     CacheConfig
		enabled bool
	}{
		{"memory", CacheConfig{Provider: CacheProviderMemory, MaxEntries: 10}, true},
		{"none", CacheConfig{Provider: CacheProviderNone}, false},
		{"badger in memory", CacheConfig{Provider: CacheProviderBadger, Badger: BadgerCacheConfig{InMemory: true}}, true},
		{"redis", CacheConfig{Provider: CacheProviderRedis, Redis: RedisCacheConfig{Addr: mr.Addr(), Prefix: "test"}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := CreateCacheProvider(ctx, tt.cfg, nil)
			if err != nil {
				t.Fatalf("CreateCacheProvider: %v", err)
			}
			defer func() { _ = provider.Close() }()

			if provider.Enabled() != tt.enabled {
				t.Errorf("Enabled() = %v, want %v", provider.Enabled(), tt.enabled)
			}
			region := provider.Region("languages")
			if err := region.Set(ctx, "id:1", []byte("x")); err != nil {
				t.Fatalf("Set: %v", err)
			}
			_, ok, err := region.Get(ctx, "id:1")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if ok != tt.enabled {
				t.Errorf("Get hit = %v, want %v", ok, tt.enabled)
			}
		})
	}
}

func TestCreateCacheProvider_Errors(t *testing.T) {
	ctx := context.Background()
	if _, err := CreateCacheProvider(ctx, CacheConfig{Provider: "memcached"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
	if _, err := CreateCacheProvider(ctx, CacheConfig{Provider: CacheProviderBadger}, nil); err == nil {
		t.Error("Expected error for badger without path")
	}
	if _, err := CreateCacheProvider(ctx, CacheConfig{Provider: CacheProviderRedis, Redis: RedisCacheConfig{Addr: "127.0.0.1:1"}}, nil); err == nil {
		t.Error("Expected error for unreachable redis")
	}
}

func TestOpenRuntime(t *testing.T) {
	ctx := context.Background()
	cfg := GetDefaultConfig()
	cfg.Database = *database.InMemory()
	cfg.Cache.Provider = CacheProviderMemory

	rt, err := OpenRuntime(ctx, cfg)
	if err != nil {
		t.Fatalf("OpenRuntime: %v", err)
	}
	defer func() { _ = rt.Close() }()

	if _, ok := rt.Cache.(*cache.MemoryProvider); !ok {
		t.Errorf("Expected memory provider, got %T", rt.Cache)
	}

	s, err := rt.Scopes.CreateScope(ctx)
	if err != nil {
		t.Fatalf("CreateScope: %v", err)
	}
	if err := rt.Repositories.Languages.Save(s, models.NewLanguage("en-US", "English")); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestInitializeTelemetry_Disabled(t *testing.T) {
	ctx := context.Background()
	shutdown, err := InitializeTelemetry(ctx, GetDefaultConfig(), "test")
	if err != nil {
		t.Fatalf("InitializeTelemetry: %v", err)
	}
	if err := shutdown(ctx); err != nil {
		t.Errorf("shutdown: %v", err)
	}
}

func TestMustLoad_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")
	_, err := MustLoad(path)
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
	if !strings.Contains(err.Error(), "strata init --config") {
		t.Errorf("Expected init hint in error, got: %v", err)
	}
}

func TestMustLoad_GeneratedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath: %v", err)
	}
	cfg, err := MustLoad(path)
	if err != nil {
		t.Fatalf("MustLoad: %v", err)
	}
	if cfg.Cache.Provider != CacheProviderMemory {
		t.Errorf("Expected memory cache provider, got %q", cfg.Cache.Provider)
	}
}
