package cache

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/stratacms/strata/internal/logger"
)

// Identifiable is implemented by cacheable entities.
type Identifiable interface {
	GetID() int
	GetKey() uuid.UUID
}

// EntityCache is the identity map of one entity type.
//
// A record is stored once under "id:<n>". Its GUID key is an alias
// "key:<uuid>" holding the id, so a lookup by either key resolves to the
// same record and both are invalidated together.
type EntityCache[E Identifiable] struct {
	region string
	newFn  func() E
}

// NewEntityCache creates the identity map for a region. newFn allocates an
// empty entity to decode into.
func NewEntityCache[E Identifiable](region string, newFn func() E) *EntityCache[E] {
	return &EntityCache[E]{region: region, newFn: newFn}
}

// RegionName returns the region backing this cache.
func (c *EntityCache[E]) RegionName() string { return c.region }

func idKey(id int) string { return "id:" + strconv.Itoa(id) }

func aliasKey(key uuid.UUID) string { return "key:" + key.String() }

// Get returns the record with the given id.
func (c *EntityCache[E]) Get(ctx context.Context, b *Batch, id int) (E, bool) {
	var zero E
	if !b.Enabled() {
		return zero, false
	}
	e, ok := c.read(ctx, b.Region(c.region), idKey(id))
	c.observe(b, ok)
	return e, ok
}

// GetByKey resolves the key alias and returns the aliased record.
func (c *EntityCache[E]) GetByKey(ctx context.Context, b *Batch, key uuid.UUID) (E, bool) {
	var zero E
	if !b.Enabled() || key == uuid.Nil {
		return zero, false
	}
	region := b.Region(c.region)

	raw, ok, err := region.Get(ctx, aliasKey(key))
	if err != nil {
		logger.WarnCtx(ctx, "cache read failed", logger.KeyRegion, c.region, logger.Err(err))
	}
	if !ok || err != nil {
		c.observe(b, false)
		return zero, false
	}
	id, err := strconv.Atoi(string(raw))
	if err != nil {
		c.observe(b, false)
		return zero, false
	}

	e, ok := c.read(ctx, region, idKey(id))
	if ok && e.GetKey() != key {
		// Stale alias: the id was reused or rekeyed.
		ok = false
	}
	c.observe(b, ok)
	return e, ok
}

// GetMany returns the cached records among ids and the ids that missed,
// preserving the order of ids in missing.
func (c *EntityCache[E]) GetMany(ctx context.Context, b *Batch, ids []int) (map[int]E, []int) {
	found := make(map[int]E, len(ids))
	if !b.Enabled() {
		return found, append([]int(nil), ids...)
	}
	region := b.Region(c.region)

	var missing []int
	for _, id := range ids {
		if _, dup := found[id]; dup {
			continue
		}
		e, ok := c.read(ctx, region, idKey(id))
		c.observe(b, ok)
		if ok {
			found[id] = e
		} else {
			missing = append(missing, id)
		}
	}
	return found, missing
}

// Put stores e under its id and aliases its key.
func (c *EntityCache[E]) Put(ctx context.Context, b *Batch, e E) {
	if !b.Enabled() || e.GetID() == 0 {
		return
	}
	data, err := Encode(e)
	if err != nil {
		logger.WarnCtx(ctx, "cache encode failed", logger.KeyRegion, c.region, logger.Err(err))
		return
	}

	region := b.Region(c.region)
	if err := region.Set(ctx, idKey(e.GetID()), data); err != nil {
		logger.WarnCtx(ctx, "cache write failed", logger.KeyRegion, c.region, logger.Err(err))
		return
	}
	if key := e.GetKey(); key != uuid.Nil {
		if err := region.Set(ctx, aliasKey(key), []byte(strconv.Itoa(e.GetID()))); err != nil {
			logger.WarnCtx(ctx, "cache write failed", logger.KeyRegion, c.region, logger.Err(err))
		}
	}
}

// PutMany stores every entity.
func (c *EntityCache[E]) PutMany(ctx context.Context, b *Batch, entities []E) {
	for _, e := range entities {
		c.Put(ctx, b, e)
	}
}

// Remove invalidates the record and its key alias.
func (c *EntityCache[E]) Remove(ctx context.Context, b *Batch, id int, key uuid.UUID) {
	Invalidate(ctx, b, c.region, id, key)
}

// Invalidate removes one record and its key alias from a region without
// knowing the region's entity type.
func Invalidate(ctx context.Context, b *Batch, region string, id int, key uuid.UUID) {
	if !b.Enabled() {
		return
	}
	r := b.Region(region)
	_ = r.Delete(ctx, idKey(id))
	if key != uuid.Nil {
		_ = r.Delete(ctx, aliasKey(key))
	}
}

// ClearRegion invalidates a whole region by name.
func ClearRegion(ctx context.Context, b *Batch, region string) {
	if !b.Enabled() {
		return
	}
	_ = b.Region(region).Clear(ctx)
}

// Clear invalidates every record of the region.
func (c *EntityCache[E]) Clear(ctx context.Context, b *Batch) {
	ClearRegion(ctx, b, c.region)
}

func (c *EntityCache[E]) read(ctx context.Context, region Region, key string) (E, bool) {
	var zero E
	raw, ok, err := region.Get(ctx, key)
	if err != nil {
		logger.WarnCtx(ctx, "cache read failed", logger.KeyRegion, c.region, logger.Err(err))
		return zero, false
	}
	if !ok {
		return zero, false
	}
	e := c.newFn()
	if err := Decode(raw, e); err != nil {
		logger.WarnCtx(ctx, "cache decode failed", logger.KeyRegion, c.region, logger.Err(err))
		return zero, false
	}
	return e, true
}

func (c *EntityCache[E]) observe(b *Batch, hit bool) {
	if b.metrics == nil {
		return
	}
	if hit {
		b.metrics.ObserveHit(c.region)
	} else {
		b.metrics.ObserveMiss(c.region)
	}
}
