package models

import "errors"

// Common errors for repository and scope operations.
var (
	// ErrNotFound is returned when a mutation targets a row that does not exist.
	// Read operations return a nil entity instead.
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidOperation is returned for pre-checked invalid state transitions.
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrNotSaved is returned when an operation requires a persisted entity.
	ErrNotSaved = errors.New("entity has no identity")

	// Scope errors
	ErrScopeClosed        = errors.New("scope is closed")
	ErrScopeCompleted     = errors.New("scope already completed")
	ErrNestedScopeOpen    = errors.New("nested scope is still open")
	ErrTransactionAborted = errors.New("transaction aborted by a nested scope")
)
