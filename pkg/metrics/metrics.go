// Package metrics holds the process-wide prometheus registry and the
// constructors for the collectors used by the cache and the repositories.
//
// Collection is opt-in: until InitRegistry is called every constructor
// returns nil, and callers treat a nil collector as "metrics disabled".
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu        sync.RWMutex
	registry  *prometheus.Registry
	namespace = "strata"
)

// InitRegistry enables metrics collection with a fresh registry.
// An empty ns keeps the default "strata" namespace.
func InitRegistry(ns string) *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()

	registry = prometheus.NewRegistry()
	if ns != "" {
		namespace = ns
	}
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil when disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Namespace returns the metric name prefix.
func Namespace() string {
	mu.RLock()
	defer mu.RUnlock()
	return namespace
}

// Reset disables metrics collection.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
	namespace = "strata"
}
