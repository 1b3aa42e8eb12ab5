package metrics

import (
	"github.com/stratacms/strata/pkg/cache"
)

// NewCacheMetrics creates a prometheus-backed cache.Metrics.
//
// Returns nil if metrics are not enabled or no implementation is linked in.
// A nil cache.Metrics disables collection in the cache package.
//
//	metrics.InitRegistry("strata")
//	provider := cache.NewMemoryProvider(cache.MemoryOptions{Metrics: metrics.NewCacheMetrics()})
func NewCacheMetrics() cache.Metrics {
	if !IsEnabled() || newPrometheusCacheMetrics == nil {
		return nil
	}
	return newPrometheusCacheMetrics()
}

// newPrometheusCacheMetrics is set by pkg/metrics/prometheus to avoid an
// import cycle.
var newPrometheusCacheMetrics func() cache.Metrics

// RegisterCacheMetricsConstructor registers the prometheus cache metrics constructor.
func RegisterCacheMetricsConstructor(constructor func() cache.Metrics) {
	newPrometheusCacheMetrics = constructor
}
