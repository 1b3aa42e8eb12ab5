package prometheus

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/metrics"
)

func TestCacheMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCacheMetrics(reg, "strata")

	m.ObserveHit("language")
	m.ObserveHit("language")
	m.ObserveMiss("language")
	m.ObserveEviction("user", 3)
	m.ObserveFlush(4)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.hits.WithLabelValues("language")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.misses.WithLabelValues("language")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.evictions.WithLabelValues("user")))

	count, err := testutil.GatherAndCount(reg, "strata_cache_flush_entries")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCacheMetrics_NilSafe(t *testing.T) {
	var m *cacheMetrics
	m.ObserveHit("x")
	m.ObserveMiss("x")
	m.ObserveEviction("x", 1)
	m.ObserveFlush(1)
}

func TestRepositoryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewRepositoryMetrics(reg, "strata")

	m.ObserveOperation("language", "get", time.Millisecond, nil)
	m.ObserveOperation("language", "save", time.Millisecond, errors.New("boom"))
	m.ObserveScope("commit", 2*time.Millisecond)
	m.ObserveStatements(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("language", "get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operations.WithLabelValues("language", "save", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scopes.WithLabelValues("commit")))
}

func TestConstructorsFollowRegistry(t *testing.T) {
	metrics.Reset()
	assert.Nil(t, metrics.NewCacheMetrics())
	assert.Nil(t, metrics.NewRepositoryMetrics())

	reg := metrics.InitRegistry("strata_test")
	t.Cleanup(metrics.Reset)

	cm := metrics.NewCacheMetrics()
	require.NotNil(t, cm)
	cm.ObserveHit("tag")

	rm := metrics.NewRepositoryMetrics()
	require.NotNil(t, rm)
	rm.ObserveScope("rollback", time.Millisecond)

	count, err := testutil.GatherAndCount(reg, "strata_test_cache_hits_total", "strata_test_scope_completed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
