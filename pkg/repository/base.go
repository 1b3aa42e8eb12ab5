package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/pkg/cache"
	"github.com/stratacms/strata/pkg/models"
	"github.com/stratacms/strata/pkg/query"
	"github.com/stratacms/strata/pkg/scope"
)

// source binds the generic repository to one entity type's tables.
type source[E models.Entity] interface {
	// name identifies the repository in logs and metrics.
	name() string

	// fields whitelists the query and ordering fields.
	fields() query.FieldMap

	// idColumn and keyColumn are qualified column names.
	idColumn() string
	keyColumn() string

	// baseQuery returns the query every read is built on. It must select
	// from the entity's root table with any 1:1 joins the fields need.
	baseQuery(s *scope.Scope) *gorm.DB

	// load materializes the entities matching where, ordered by id.
	// A nil where loads everything.
	load(s *scope.Scope, where clause.Expression) ([]E, error)

	insert(s *scope.Scope, e E) error
	update(s *scope.Scope, e E) error

	// remove deletes the entity's rows and dependent rows.
	remove(s *scope.Scope, e E) error
}

// orderer is implemented by sources that resolve orderings the field map
// cannot express, such as property aliases or culture-variant names.
type orderer interface {
	order(s *scope.Scope, db *gorm.DB, i int, o query.Ordering) (*gorm.DB, bool, error)
}

// Repository implements the read/write contract shared by every cached
// entity type.
type Repository[E models.Entity] struct {
	src   source[E]
	cache *cache.EntityCache[E]
}

func newRepository[E models.Entity](src source[E], region string, newFn func() E) *Repository[E] {
	return &Repository[E]{src: src, cache: cache.NewEntityCache(region, newFn)}
}

func column(qualified string) clause.Column {
	col, _ := query.FieldMap{"c": qualified}.Column("c")
	return col
}

// Get returns the entity with the given id, or nil.
func (r *Repository[E]) Get(s *scope.Scope, id int) (e E, err error) {
	defer observe(s, r.src.name(), "get", time.Now(), &err)

	if cached, ok := r.cache.Get(s.Context(), s.Cache(), id); ok {
		debug(s, "cache hit", logger.KeyRepository, r.src.name(), logger.KeyEntityID, id)
		return cached, nil
	}
	return r.loadOne(s, clause.Eq{Column: column(r.src.idColumn()), Value: id})
}

// GetByKey returns the entity with the given key, or nil.
func (r *Repository[E]) GetByKey(s *scope.Scope, key uuid.UUID) (e E, err error) {
	defer observe(s, r.src.name(), "get", time.Now(), &err)

	if cached, ok := r.cache.GetByKey(s.Context(), s.Cache(), key); ok {
		debug(s, "cache hit", logger.KeyRepository, r.src.name(), logger.KeyEntityKey, key)
		return cached, nil
	}
	return r.loadOne(s, clause.Eq{Column: column(r.src.keyColumn()), Value: keyString(key)})
}

func (r *Repository[E]) loadOne(s *scope.Scope, where clause.Expression) (E, error) {
	var zero E
	items, err := r.src.load(s, where)
	if err != nil || len(items) == 0 {
		return zero, err
	}
	r.cache.Put(s.Context(), s.Cache(), items[0])
	return items[0], nil
}

// GetMany returns the entities with the given ids in the order requested,
// skipping ids that do not exist. Cached entities are served from the cache
// and the rest are fetched in one query. No ids returns every entity.
func (r *Repository[E]) GetMany(s *scope.Scope, ids ...int) (items []E, err error) {
	if len(ids) == 0 {
		return r.GetAll(s)
	}
	defer observe(s, r.src.name(), "get_many", time.Now(), &err)

	found, missing := r.cache.GetMany(s.Context(), s.Cache(), ids)
	if len(missing) > 0 {
		loaded, err := r.src.load(s, clause.IN{Column: column(r.src.idColumn()), Values: toAny(missing)})
		if err != nil {
			return nil, err
		}
		r.cache.PutMany(s.Context(), s.Cache(), loaded)
		for _, e := range loaded {
			found[e.GetID()] = e
		}
	}

	seen := make(map[int]bool, len(ids))
	items = make([]E, 0, len(found))
	for _, id := range ids {
		if e, ok := found[id]; ok && !seen[id] {
			items = append(items, e)
			seen[id] = true
		}
	}
	return items, nil
}

// GetManyByKeys returns the entities with the given keys in the order
// requested, skipping keys that do not exist.
func (r *Repository[E]) GetManyByKeys(s *scope.Scope, keys ...uuid.UUID) (items []E, err error) {
	if len(keys) == 0 {
		return r.GetAll(s)
	}
	defer observe(s, r.src.name(), "get_many", time.Now(), &err)

	found := make(map[uuid.UUID]E, len(keys))
	var missing []any
	for _, k := range keys {
		if _, ok := found[k]; ok {
			continue
		}
		if e, ok := r.cache.GetByKey(s.Context(), s.Cache(), k); ok {
			found[k] = e
		} else {
			missing = append(missing, keyString(k))
		}
	}
	if len(missing) > 0 {
		loaded, err := r.src.load(s, clause.IN{Column: column(r.src.keyColumn()), Values: missing})
		if err != nil {
			return nil, err
		}
		r.cache.PutMany(s.Context(), s.Cache(), loaded)
		for _, e := range loaded {
			found[e.GetKey()] = e
		}
	}

	seen := make(map[uuid.UUID]bool, len(keys))
	items = make([]E, 0, len(found))
	for _, k := range keys {
		if e, ok := found[k]; ok && !seen[k] {
			items = append(items, e)
			seen[k] = true
		}
	}
	return items, nil
}

// GetAll returns every entity ordered by id.
func (r *Repository[E]) GetAll(s *scope.Scope) (items []E, err error) {
	defer observe(s, r.src.name(), "get_all", time.Now(), &err)

	items, err = r.src.load(s, nil)
	if err != nil {
		return nil, err
	}
	r.cache.PutMany(s.Context(), s.Cache(), items)
	return items, nil
}

// Exists reports whether an entity with the given id exists.
func (r *Repository[E]) Exists(s *scope.Scope, id int) (bool, error) {
	if _, ok := r.cache.Get(s.Context(), s.Cache(), id); ok {
		return true, nil
	}
	return r.exists(s, clause.Eq{Column: column(r.src.idColumn()), Value: id})
}

// ExistsByKey reports whether an entity with the given key exists.
func (r *Repository[E]) ExistsByKey(s *scope.Scope, key uuid.UUID) (bool, error) {
	if _, ok := r.cache.GetByKey(s.Context(), s.Cache(), key); ok {
		return true, nil
	}
	return r.exists(s, clause.Eq{Column: column(r.src.keyColumn()), Value: keyString(key)})
}

func (r *Repository[E]) exists(s *scope.Scope, where clause.Expression) (bool, error) {
	var n int64
	if err := r.src.baseQuery(s).Where(where).Limit(1).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of entities matching q.
func (r *Repository[E]) Count(s *scope.Scope, q *query.Query) (n int64, err error) {
	defer observe(s, r.src.name(), "count", time.Now(), &err)

	db, err := r.filtered(s, q)
	if err != nil {
		return 0, err
	}
	err = db.Count(&n).Error
	return n, err
}

// Query returns the entities matching q ordered by id.
func (r *Repository[E]) Query(s *scope.Scope, q *query.Query) (items []E, err error) {
	defer observe(s, r.src.name(), "query", time.Now(), &err)

	where, err := query.Translate(q.Expr(), r.src.fields())
	if err != nil {
		return nil, err
	}
	items, err = r.src.load(s, where)
	if err != nil {
		return nil, err
	}
	r.cache.PutMany(s.Context(), s.Cache(), items)
	return items, nil
}

// QueryOrdered returns the entities matching q sorted by orderings, then
// by id.
func (r *Repository[E]) QueryOrdered(s *scope.Scope, q *query.Query, orderings ...query.Ordering) (items []E, err error) {
	defer observe(s, r.src.name(), "query", time.Now(), &err)

	db, err := r.filtered(s, q)
	if err != nil {
		return nil, err
	}
	if db, err = r.applyOrderings(s, db, orderings); err != nil {
		return nil, err
	}
	var ids []int
	if err := db.Pluck(r.src.idColumn(), &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []E{}, nil
	}
	return r.GetMany(s, ids...)
}

// GetPage returns one page of the entities matching q and filter, and the
// total number of matching entities. Pages are ordered by orderings and
// then by id, so that consecutive pages never overlap.
func (r *Repository[E]) GetPage(s *scope.Scope, q *query.Query, pageIndex, pageSize int, filter *query.Query, orderings ...query.Ordering) (items []E, total int64, err error) {
	defer observe(s, r.src.name(), "page", time.Now(), &err)

	if pageIndex < 0 || pageSize <= 0 {
		return nil, 0, fmt.Errorf("invalid page %d of size %d", pageIndex, pageSize)
	}

	combined := query.New().Where(q.Expr()).Where(filter.Expr())
	build := func() (*gorm.DB, error) { return r.filtered(s, combined) }

	db, err := build()
	if err != nil {
		return nil, 0, err
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 || int64(pageIndex*pageSize) >= total {
		return []E{}, total, nil
	}

	db, err = build()
	if err != nil {
		return nil, 0, err
	}
	db, err = r.applyOrderings(s, db, orderings)
	if err != nil {
		return nil, 0, err
	}

	var ids []int
	if err := db.Offset(pageIndex*pageSize).Limit(pageSize).Pluck(r.src.idColumn(), &ids).Error; err != nil {
		return nil, 0, err
	}
	debug(s, "page", logger.KeyRepository, r.src.name(), logger.KeyPageIndex, pageIndex,
		logger.KeyPageSize, pageSize, logger.KeyTotal, total)

	items, err = r.GetMany(s, ids...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *Repository[E]) filtered(s *scope.Scope, q *query.Query) (*gorm.DB, error) {
	db := r.src.baseQuery(s)
	where, err := query.Translate(q.Expr(), r.src.fields())
	if err != nil {
		return nil, err
	}
	if where != nil {
		db = db.Where(where)
	}
	return db, nil
}

func (r *Repository[E]) applyOrderings(s *scope.Scope, db *gorm.DB, orderings []query.Ordering) (*gorm.DB, error) {
	custom, _ := r.src.(orderer)
	for i, o := range orderings {
		if custom != nil {
			next, handled, err := custom.order(s, db, i, o)
			if err != nil {
				return nil, err
			}
			if handled {
				db = next
				continue
			}
		}
		if o.IsCustomField {
			return nil, fmt.Errorf("%s does not support ordering by custom field %q", r.src.name(), o.Field)
		}
		col, err := r.src.fields().Column(o.Field)
		if err != nil {
			return nil, err
		}
		db = db.Order(clause.OrderByColumn{Column: col, Desc: o.IsDescending()})
	}
	return db.Order(clause.OrderByColumn{Column: column(r.src.idColumn())}), nil
}

// Save inserts the entity when it has no identity and updates it otherwise.
// The write runs in a savepoint, so a failed save leaves no partial rows.
func (r *Repository[E]) Save(s *scope.Scope, e E) (err error) {
	defer observe(s, r.src.name(), "save", time.Now(), &err)

	e.Touch(now())
	if e.GetKey() == uuid.Nil {
		e.SetKey(uuid.New())
	}

	isNew := !e.HasIdentity()
	err = s.DB().Transaction(func(*gorm.DB) error {
		if isNew {
			return r.src.insert(s, e)
		}
		return r.src.update(s, e)
	})
	if err != nil {
		if isNew {
			e.SetID(0)
		}
		return err
	}

	r.cache.Put(s.Context(), s.Cache(), e)
	debug(s, "saved", logger.KeyRepository, r.src.name(), logger.KeyEntityID, e.GetID(), "new", isNew)
	return nil
}

// Delete removes the entity and everything that depends on it.
func (r *Repository[E]) Delete(s *scope.Scope, e E) (err error) {
	defer observe(s, r.src.name(), "delete", time.Now(), &err)

	if !e.HasIdentity() {
		return models.ErrNotSaved
	}
	err = s.DB().Transaction(func(*gorm.DB) error {
		return r.src.remove(s, e)
	})
	if err != nil {
		return err
	}
	r.cache.Remove(s.Context(), s.Cache(), e.GetID(), e.GetKey())
	debug(s, "deleted", logger.KeyRepository, r.src.name(), logger.KeyEntityID, e.GetID())
	return nil
}

// ClearCache invalidates every cached entity of this repository.
func (r *Repository[E]) ClearCache(s *scope.Scope) {
	r.cache.Clear(s.Context(), s.Cache())
}

// invalidate removes one entity from the cache.
func (r *Repository[E]) invalidate(s *scope.Scope, id int, key uuid.UUID) {
	r.cache.Remove(s.Context(), s.Cache(), id, key)
}

func toAny[T any](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
