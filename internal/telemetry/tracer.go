package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys.
const (
	AttrScopeID       = "scope.id"
	AttrScopeOutcome  = "scope.outcome"
	AttrRepository    = "repository.name"
	AttrOperation     = "repository.operation"
	AttrDurationMs    = "repository.duration_ms"
	AttrCacheRegion   = "cache.region"
	AttrCacheEntries  = "cache.entries"
	AttrStatementRuns = "db.statements"
)

// Span and event names.
const (
	SpanScope       = "scope"
	SpanCacheFlush  = "cache.flush"
	EventRepository = "repository.operation"
)

// ScopeID returns an attribute for a unit-of-work identifier.
func ScopeID(id string) attribute.KeyValue {
	return attribute.String(AttrScopeID, id)
}

// Repository returns an attribute for a repository name.
func Repository(name string) attribute.KeyValue {
	return attribute.String(AttrRepository, name)
}

// Operation returns an attribute for a repository operation.
func Operation(op string) attribute.KeyValue {
	return attribute.String(AttrOperation, op)
}

// CacheRegion returns an attribute for a cache region.
func CacheRegion(region string) attribute.KeyValue {
	return attribute.String(AttrCacheRegion, region)
}

// CacheEntries returns an attribute for a number of cache mutations.
func CacheEntries(n int) attribute.KeyValue {
	return attribute.Int(AttrCacheEntries, n)
}

// Statements returns an attribute for a number of executed SQL statements.
func Statements(n int64) attribute.KeyValue {
	return attribute.Int64(AttrStatementRuns, n)
}

// StartScopeSpan starts the span covering one unit of work.
func StartScopeSpan(ctx context.Context, id string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	all := append([]attribute.KeyValue{ScopeID(id)}, attrs...)
	return StartSpan(ctx, SpanScope, trace.WithAttributes(all...))
}

// EndScopeSpan ends span with the unit of work's outcome.
func EndScopeSpan(span trace.Span, outcome string, err error) {
	span.SetAttributes(attribute.String(AttrScopeOutcome, outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// RecordOperation adds a repository operation event to the span in ctx.
// A failed operation also marks the span failed.
func RecordOperation(ctx context.Context, repo, op string, elapsed time.Duration, err error) {
	AddEvent(ctx, EventRepository,
		Repository(repo),
		Operation(op),
		attribute.Float64(AttrDurationMs, float64(elapsed.Microseconds())/1000),
	)
	RecordError(ctx, err)
}

// StartCacheFlushSpan starts a span for publishing buffered cache mutations.
func StartCacheFlushSpan(ctx context.Context, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return StartSpan(ctx, SpanCacheFlush, trace.WithAttributes(attrs...))
}
