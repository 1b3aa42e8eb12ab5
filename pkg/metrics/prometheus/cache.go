// Package prometheus implements the collectors declared by pkg/metrics.
//
// Importing this package (usually for side effects) links the prometheus
// implementations into metrics.NewCacheMetrics and metrics.NewRepositoryMetrics.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/metrics"
)

func init() {
	metrics.RegisterCacheMetricsConstructor(func() cache.Metrics {
		return NewCacheMetrics(metrics.GetRegistry(), metrics.Namespace())
	})
}

// cacheMetrics is the prometheus implementation of cache.Metrics.
type cacheMetrics struct {
	hits      *prometheus.CounterVec
	misses    *prometheus.CounterVec
	evictions *prometheus.CounterVec
	flushed   prometheus.Histogram
}

// NewCacheMetrics registers the cache collectors on reg.
func NewCacheMetrics(reg prometheus.Registerer, namespace string) *cacheMetrics {
	return &cacheMetrics{
		hits: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "hits_total",
				Help:      "Total number of entity cache hits by region",
			},
			[]string{"region"},
		),
		misses: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "misses_total",
				Help:      "Total number of entity cache misses by region",
			},
			[]string{"region"},
		),
		evictions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "evictions_total",
				Help:      "Total number of entries evicted from in-memory regions",
			},
			[]string{"region"},
		),
		flushed: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "flush_entries",
				Help:      "Number of cache mutations applied per committed scope",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250, 1000},
			},
		),
	}
}

func (m *cacheMetrics) ObserveHit(region string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(region).Inc()
}

func (m *cacheMetrics) ObserveMiss(region string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(region).Inc()
}

func (m *cacheMetrics) ObserveEviction(region string, n int) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(region).Add(float64(n))
}

func (m *cacheMetrics) ObserveFlush(entries int) {
	if m == nil {
		return
	}
	m.flushed.Observe(float64(entries))
}
