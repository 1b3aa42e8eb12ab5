package metrics

import "time"

// RepositoryMetrics receives repository and unit-of-work events.
type RepositoryMetrics interface {
	// ObserveOperation records one repository operation (get, save, page, ...).
	ObserveOperation(repository, operation string, duration time.Duration, err error)

	// ObserveScope records the outcome of an outermost scope: "commit" or "rollback".
	ObserveScope(outcome string, duration time.Duration)

	// ObserveStatements records the SQL statements executed by one scope.
	ObserveStatements(n int64)
}

// NewRepositoryMetrics creates a prometheus-backed RepositoryMetrics.
// Returns nil if metrics are not enabled.
func NewRepositoryMetrics() RepositoryMetrics {
	if !IsEnabled() || newPrometheusRepositoryMetrics == nil {
		return nil
	}
	return newPrometheusRepositoryMetrics()
}

var newPrometheusRepositoryMetrics func() RepositoryMetrics

// RegisterRepositoryMetricsConstructor registers the prometheus repository metrics constructor.
func RegisterRepositoryMetricsConstructor(constructor func() RepositoryMetrics) {
	newPrometheusRepositoryMetrics = constructor
}
