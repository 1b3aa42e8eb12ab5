package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stratacms/strata/pkg/metrics"
)

func init() {
	metrics.RegisterRepositoryMetricsConstructor(func() metrics.RepositoryMetrics {
		return NewRepositoryMetrics(metrics.GetRegistry(), metrics.Namespace())
	})
}

type repositoryMetrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	scopes     *prometheus.CounterVec
	scopeTime  prometheus.Histogram
	statements prometheus.Histogram
}

// NewRepositoryMetrics registers the repository collectors on reg.
func NewRepositoryMetrics(reg prometheus.Registerer, namespace string) *repositoryMetrics {
	return &repositoryMetrics{
		operations: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "operations_total",
				Help:      "Total number of repository operations by repository, operation and status",
			},
			[]string{"repository", "operation", "status"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "repository",
				Name:      "operation_duration_milliseconds",
				Help:      "Duration of repository operations in milliseconds",
				Buckets: []float64{
					0.1, // cache hits
					0.5,
					1,
					5,
					10,
					50,
					100,
					500,
					1000,
				},
			},
			[]string{"repository", "operation"},
		),
		scopes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "scope",
				Name:      "completed_total",
				Help:      "Total number of outermost scopes by outcome",
			},
			[]string{"outcome"},
		),
		scopeTime: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scope",
				Name:      "duration_milliseconds",
				Help:      "Lifetime of outermost scopes in milliseconds",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 14),
			},
		),
		statements: promauto.With(reg).NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "scope",
				Name:      "statements",
				Help:      "SQL statements executed per outermost scope",
				Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 500},
			},
		),
	}
}

func (m *repositoryMetrics) ObserveOperation(repository, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operations.WithLabelValues(repository, operation, status).Inc()
	m.duration.WithLabelValues(repository, operation).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *repositoryMetrics) ObserveScope(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.scopes.WithLabelValues(outcome).Inc()
	m.scopeTime.Observe(float64(duration.Microseconds()) / 1000)
}

func (m *repositoryMetrics) ObserveStatements(n int64) {
	if m == nil {
		return
	}
	m.statements.Observe(float64(n))
}
