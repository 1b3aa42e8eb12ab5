package cache

import (
	"context"
	"sync"

	"github.com/stratacms/strata/internal/logger"
	"github.com/stratacms/strata/internal/telemetry"
)

// Batch is a scope-local overlay over a Provider.
//
// Reads see the batch's own pending writes first, then the shared region.
// Writes stay in the batch until Flush, so a rolled-back scope never leaks
// uncommitted records into the shared cache.
type Batch struct {
	provider Provider
	metrics  Metrics

	mu      sync.Mutex
	regions map[string]*batchRegion
	order   []string
}

// NewBatch creates an empty batch over provider. A nil provider behaves as Disabled.
func NewBatch(provider Provider, metrics Metrics) *Batch {
	if provider == nil {
		provider = Disabled()
	}
	return &Batch{
		provider: provider,
		metrics:  metrics,
		regions:  make(map[string]*batchRegion),
	}
}

// Enabled reports whether the underlying provider caches anything.
func (b *Batch) Enabled() bool {
	return b != nil && b.provider.Enabled()
}

// Region returns the overlay for the named region.
func (b *Batch) Region(name string) Region {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.regions[name]
	if !ok {
		r = &batchRegion{
			batch:   b,
			shared:  b.provider.Region(name),
			writes:  make(map[string][]byte),
			deletes: make(map[string]struct{}),
		}
		b.regions[name] = r
		b.order = append(b.order, name)
	}
	return r
}

// Pending returns the number of buffered mutations.
func (b *Batch) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, r := range b.regions {
		n += len(r.writes) + len(r.deletes)
		if r.cleared {
			n++
		}
	}
	return n
}

// Flush applies buffered mutations to the shared regions and empties the batch.
//
// Flush continues past individual failures so that as many invalidations as
// possible reach the shared cache; the first error is returned.
func (b *Batch) Flush(ctx context.Context) error {
	b.mu.Lock()
	regions := b.regions
	order := b.order
	b.regions = make(map[string]*batchRegion)
	b.order = nil
	b.mu.Unlock()

	if len(order) == 0 {
		return nil
	}
	ctx, span := telemetry.StartCacheFlushSpan(ctx)
	defer span.End()

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	entries := 0
	for _, name := range order {
		r := regions[name]
		if r.cleared {
			keep(r.shared.Clear(ctx))
			entries++
		}
		for key := range r.deletes {
			keep(r.shared.Delete(ctx, key))
			entries++
		}
		for key, value := range r.writes {
			keep(r.shared.Set(ctx, key, value))
			entries++
		}
	}

	span.SetAttributes(telemetry.CacheEntries(entries))
	if b.metrics != nil && entries > 0 {
		b.metrics.ObserveFlush(entries)
	}
	if firstErr != nil {
		telemetry.RecordError(ctx, firstErr)
		logger.WarnCtx(ctx, "cache flush incomplete", logger.KeyCount, entries, logger.Err(firstErr))
	}
	return firstErr
}

// Discard drops every buffered mutation.
func (b *Batch) Discard() {
	b.mu.Lock()
	b.regions = make(map[string]*batchRegion)
	b.order = nil
	b.mu.Unlock()
}

// batchRegion overlays one shared region. Guarded by batch.mu.
type batchRegion struct {
	batch   *Batch
	shared  Region
	writes  map[string][]byte
	deletes map[string]struct{}
	cleared bool
}

func (r *batchRegion) Name() string { return r.shared.Name() }

func (r *batchRegion) Get(ctx context.Context, key string) ([]byte, bool, error) {
	r.batch.mu.Lock()
	if v, ok := r.writes[key]; ok {
		r.batch.mu.Unlock()
		return append([]byte(nil), v...), true, nil
	}
	_, deleted := r.deletes[key]
	cleared := r.cleared
	r.batch.mu.Unlock()

	if deleted || cleared {
		return nil, false, nil
	}
	return r.shared.Get(ctx, key)
}

func (r *batchRegion) Set(_ context.Context, key string, value []byte) error {
	r.batch.mu.Lock()
	defer r.batch.mu.Unlock()
	r.writes[key] = append([]byte(nil), value...)
	delete(r.deletes, key)
	return nil
}

func (r *batchRegion) Delete(_ context.Context, key string) error {
	r.batch.mu.Lock()
	defer r.batch.mu.Unlock()
	delete(r.writes, key)
	if !r.cleared {
		r.deletes[key] = struct{}{}
	}
	return nil
}

func (r *batchRegion) Clear(_ context.Context) error {
	r.batch.mu.Lock()
	defer r.batch.mu.Unlock()
	r.cleared = true
	r.writes = make(map[string][]byte)
	r.deletes = make(map[string]struct{})
	return nil
}
