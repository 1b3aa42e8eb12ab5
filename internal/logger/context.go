package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds operation-scoped logging context
type LogContext struct {
	ScopeID    string    // Unit-of-work identifier
	Repository string    // Repository servicing the call
	Operation  string    // Operation name (get, save, ...)
	StartTime  time.Time // For duration calculation
}

// WithContext returns a new context with the given LogContext
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for the given scope
func NewLogContext(scopeID string) *LogContext {
	return &LogContext{
		ScopeID:   scopeID,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	c := *lc
	return &c
}

// WithOperation returns a copy with repository and operation set
func (lc *LogContext) WithOperation(repository, operation string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Repository = repository
		clone.Operation = operation
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
