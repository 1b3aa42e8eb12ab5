// Package scope implements the unit of work shared by repositories.
//
// A Scope owns one database transaction and one cache batch. Nested scopes
// share the outermost scope's transaction and batch; only the outermost Close
// commits or rolls back. Cache mutations made inside a scope are visible to
// later reads in the same scope and reach the shared cache only after the
// transaction commits.
//
// Typical usage:
//
//	s, err := provider.CreateScope(ctx)
//	if err != nil {
//		return err
//	}
//	defer s.Close()
//
//	if err := repos.Language.Save(s, lang); err != nil {
//		return err
//	}
//	return s.Complete()
package scope

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/internal/telemetry"
	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/database"
	"github.com/stratacms/strata/pkg/metrics"
	"github.com/stratacms/strata/pkg/models"
)

// Provider creates scopes over one database and one shared cache.
type Provider struct {
	db           *database.Database
	cache        cache.Provider
	cacheMetrics cache.Metrics
	metrics      metrics.RepositoryMetrics
}

// NewProvider creates a scope provider. A nil cache disables caching.
func NewProvider(db *database.Database, c cache.Provider) *Provider {
	if c == nil {
		c = cache.Disabled()
	}
	return &Provider{db: db, cache: c}
}

// WithMetrics attaches collectors. Either may be nil.
func (p *Provider) WithMetrics(cm cache.Metrics, rm metrics.RepositoryMetrics) *Provider {
	p.cacheMetrics = cm
	p.metrics = rm
	return p
}

// Database returns the underlying database.
func (p *Provider) Database() *database.Database { return p.db }

// Cache returns the shared cache provider.
func (p *Provider) Cache() cache.Provider { return p.cache }

// CreateScope begins a transaction and returns the outermost scope.
func (p *Provider) CreateScope(ctx context.Context) (*Scope, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	id := uuid.NewString()[:8]
	ctx = logger.WithContext(ctx, logger.NewLogContext(id))
	ctx, span := telemetry.StartScopeSpan(ctx, id)

	tx := p.db.DB().WithContext(ctx).Begin()
	if tx.Error != nil {
		err := fmt.Errorf("failed to begin transaction: %w", tx.Error)
		telemetry.EndScopeSpan(span, "begin", err)
		return nil, err
	}

	root := &state{
		id:         id,
		tx:         tx,
		batch:      cache.NewBatch(p.cache, p.cacheMetrics),
		span:       span,
		started:    time.Now(),
		statements: p.db.StatementCount(),
	}
	logger.DebugCtx(ctx, "scope opened")
	return &Scope{provider: p, root: root, ctx: ctx}, nil
}

// state is shared by a scope and all of its nested scopes.
type state struct {
	id         string
	tx         *gorm.DB
	batch      *cache.Batch
	span       trace.Span
	started    time.Time
	statements int64

	mu     sync.Mutex
	doomed bool
}

// Scope is one level of a unit of work.
type Scope struct {
	provider *Provider
	root     *state
	parent   *Scope
	ctx      context.Context
	depth    int

	child     *Scope
	completed bool
	closed    bool
}

// ID returns the identifier shared by the scope and its nested scopes.
func (s *Scope) ID() string { return s.root.id }

// Depth returns the nesting depth; the outermost scope is 0.
func (s *Scope) Depth() int { return s.depth }

// DB returns the transaction handle.
func (s *Scope) DB() *gorm.DB { return s.root.tx }

// Context returns the scope's context, carrying its log context.
func (s *Scope) Context() context.Context { return s.ctx }

// Cache returns the scope's cache batch.
func (s *Scope) Cache() *cache.Batch { return s.root.batch }

// Metrics returns the repository collector, or nil.
func (s *Scope) Metrics() metrics.RepositoryMetrics { return s.provider.metrics }

// CreateScope opens a nested scope sharing this scope's transaction.
// Only one nested scope may be open at a time.
func (s *Scope) CreateScope() (*Scope, error) {
	switch {
	case s.closed:
		return nil, models.ErrScopeClosed
	case s.completed:
		return nil, models.ErrScopeCompleted
	case s.child != nil:
		return nil, models.ErrNestedScopeOpen
	}
	child := &Scope{
		provider: s.provider,
		root:     s.root,
		parent:   s,
		ctx:      s.ctx,
		depth:    s.depth + 1,
	}
	s.child = child
	return child, nil
}

// Complete marks the scope for commit. It does not end the scope.
func (s *Scope) Complete() error {
	if s.closed {
		return models.ErrScopeClosed
	}
	if s.child != nil {
		return models.ErrNestedScopeOpen
	}
	s.completed = true
	return nil
}

// Close ends the scope. Closing a nested scope that was not completed dooms
// the whole unit of work. Closing the outermost scope commits when it was
// completed and nothing was doomed, and rolls back otherwise.
//
// Close is idempotent.
func (s *Scope) Close() error {
	if s.closed {
		return nil
	}
	if s.child != nil {
		return models.ErrNestedScopeOpen
	}
	s.closed = true

	if s.parent != nil {
		s.parent.child = nil
		if !s.completed {
			s.root.mu.Lock()
			s.root.doomed = true
			s.root.mu.Unlock()
			logger.DebugCtx(s.ctx, "nested scope closed without completion",
				logger.KeyScopeDepth, s.depth)
		}
		return nil
	}

	s.root.mu.Lock()
	doomed := s.root.doomed
	s.root.mu.Unlock()

	if !s.completed || doomed {
		return s.rollback(doomed)
	}
	return s.commit()
}

func (s *Scope) rollback(doomed bool) error {
	s.root.batch.Discard()
	err := s.root.tx.Rollback().Error
	s.observe("rollback")
	logger.DebugCtx(s.ctx, "scope rolled back", logger.Err(err))

	switch {
	case err != nil:
		err = fmt.Errorf("failed to roll back transaction: %w", err)
	case s.completed && doomed:
		err = models.ErrTransactionAborted
	}
	telemetry.EndScopeSpan(s.root.span, "rollback", err)
	return err
}

func (s *Scope) commit() error {
	if err := s.root.tx.Commit().Error; err != nil {
		s.root.batch.Discard()
		s.observe("rollback")
		err = fmt.Errorf("failed to commit transaction: %w", err)
		telemetry.EndScopeSpan(s.root.span, "rollback", err)
		return err
	}
	s.observe("commit")

	// Errors are logged by Flush; the data is already committed.
	_ = s.root.batch.Flush(s.ctx)
	logger.DebugCtx(s.ctx, "scope committed")
	telemetry.EndScopeSpan(s.root.span, "commit", nil)
	return nil
}

func (s *Scope) observe(outcome string) {
	statements := s.provider.db.StatementCount() - s.root.statements
	s.root.span.SetAttributes(telemetry.Statements(statements))

	m := s.provider.metrics
	if m == nil {
		return
	}
	m.ObserveScope(outcome, time.Since(s.root.started))
	m.ObserveStatements(statements)
}
