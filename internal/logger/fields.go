package logger

import (
	"log/slog"
	"time"
)

// Standard field keys for structured logging.
// Use these keys consistently so repository logs can be aggregated and queried.
const (
	// ========================================================================
	// Repository & Operation
	// ========================================================================
	KeyRepository = "repository" // Repository name: document, tag, relation, ...
	KeyOperation  = "operation"  // Operation: get, save, delete, page, move, ...
	KeyObjectType = "object_type"
	KeyScopeID    = "scope_id"    // Unit-of-work identifier
	KeyScopeDepth = "scope_depth" // Nesting depth of the scope (0 = outermost)

	// ========================================================================
	// Entity Identity
	// ========================================================================
	KeyEntityID  = "entity_id"  // Integer identity
	KeyEntityKey = "entity_key" // GUID key
	KeyAlias     = "alias"      // Alias / unique name
	KeyParentID  = "parent_id"
	KeyPath      = "path"
	KeyOldPath   = "old_path" // Path before a move
	KeyNewPath   = "new_path" // Path after a move

	// ========================================================================
	// Versioning
	// ========================================================================
	KeyVersionID          = "version_id"
	KeyPublishedVersionID = "published_version_id"
	KeyPublishedState     = "published_state"

	// ========================================================================
	// Cache Layer
	// ========================================================================
	KeyRegion  = "region" // Cache region name
	KeyHits    = "hits"
	KeyMisses  = "misses"
	KeyEvicted = "evicted"

	// ========================================================================
	// SQL
	// ========================================================================
	KeySQL      = "sql"
	KeyRows     = "rows"
	KeyDatabase = "database"

	// ========================================================================
	// Paging & Counts
	// ========================================================================
	KeyPageIndex = "page_index"
	KeyPageSize  = "page_size"
	KeyTotal     = "total"
	KeyCount     = "count"

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyOlderThan  = "older_than"
)

// ----------------------------------------------------------------------------
// Attr helpers
// ----------------------------------------------------------------------------

// Repository returns a slog.Attr for the repository name
func Repository(name string) slog.Attr {
	return slog.String(KeyRepository, name)
}

// Operation returns a slog.Attr for the operation name
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

// EntityID returns a slog.Attr for an entity id
func EntityID(id int) slog.Attr {
	return slog.Int(KeyEntityID, id)
}

// VersionID returns a slog.Attr for a content version id
func VersionID(id int) slog.Attr {
	return slog.Int(KeyVersionID, id)
}

// Region returns a slog.Attr for a cache region
func Region(name string) slog.Attr {
	return slog.String(KeyRegion, name)
}

// SQL returns a slog.Attr for a SQL statement
func SQL(stmt string) slog.Attr {
	return slog.String(KeySQL, stmt)
}

// Rows returns a slog.Attr for affected/returned rows
func Rows(n int64) slog.Attr {
	return slog.Int64(KeyRows, n)
}

// DurationMs returns a slog.Attr for an elapsed duration in milliseconds
func DurationMs(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMs, float64(d.Microseconds())/1000.0)
}

// Err returns a slog.Attr for an error. Nil errors produce an empty attr.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
