package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// recordSpans routes spans to an in-memory recorder for the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := tracer
	tracer = tp.Tracer(ServiceName)
	t.Cleanup(func() {
		tracer = prev
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func attrMap(attrs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[string(a.Key)] = a.Value
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "strata", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
	assert.False(t, IsEnabled())

	// The no-op tracer still hands out usable spans.
	_, span := StartSpan(ctx, "noop")
	span.End()
	assert.Empty(t, TraceID(ctx))
}

func TestSampler(t *testing.T) {
	assert.Equal(t, sdktrace.AlwaysSample().Description(), sampler(1.5).Description())
	assert.Equal(t, sdktrace.NeverSample().Description(), sampler(0).Description())
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased")
}

func TestScopeSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, span := StartScopeSpan(context.Background(), "abc123")
	assert.NotEmpty(t, TraceID(ctx))

	RecordOperation(ctx, "language", "save", 1500*time.Microsecond, nil)
	RecordOperation(ctx, "language", "get", time.Millisecond, errors.New("boom"))
	EndScopeSpan(span, "rollback", nil)

	ended := rec.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, SpanScope, s.Name())

	attrs := attrMap(s.Attributes())
	assert.Equal(t, "abc123", attrs[AttrScopeID].AsString())
	assert.Equal(t, "rollback", attrs[AttrScopeOutcome].AsString())

	var ops []string
	for _, ev := range s.Events() {
		if ev.Name == EventRepository {
			ev := attrMap(ev.Attributes)
			ops = append(ops, ev[AttrOperation].AsString())
			assert.Equal(t, "language", ev[AttrRepository].AsString())
		}
	}
	assert.Equal(t, []string{"save", "get"}, ops)
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "boom", s.Status().Description)
}

func TestEndScopeSpan_Error(t *testing.T) {
	rec := recordSpans(t)

	_, span := StartScopeSpan(context.Background(), "x")
	EndScopeSpan(span, "commit", errors.New("commit failed"))

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

func TestCacheFlushSpan(t *testing.T) {
	rec := recordSpans(t)

	ctx, parent := StartScopeSpan(context.Background(), "p")
	_, span := StartCacheFlushSpan(ctx, CacheEntries(3))
	span.End()
	parent.End()

	ended := rec.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, SpanCacheFlush, ended[0].Name())
	assert.Equal(t, int64(3), attrMap(ended[0].Attributes())[AttrCacheEntries].AsInt64())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}

func TestInitProfilingDisabled(t *testing.T) {
	shutdown, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown())
	assert.False(t, IsProfilingEnabled())
}

func TestParseProfileTypes(t *testing.T) {
	types, err := parseProfileTypes([]string{"cpu", "inuse_space"})
	require.NoError(t, err)
	assert.Len(t, types, 2)

	_, err = parseProfileTypes([]string{"cpu", "heap"})
	assert.Error(t, err)

	assert.True(t, ValidProfileType("goroutines"))
	assert.False(t, ValidProfileType("heap"))
}
