package cache

import (
	"context"
	"math"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/stratacms/strata/internal/logger"
)

// MemoryOptions configures the in-process provider.
type MemoryOptions struct {
	// DefaultTTL is the lifetime of an entry. Zero keeps entries until evicted.
	DefaultTTL time.Duration

	// MaxEntries bounds each region. Zero means unbounded.
	MaxEntries int

	// Metrics is optional.
	Metrics Metrics

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// MemoryProvider keeps regions in process memory.
//
// Each region is an LRU list. Expired entries are dropped lazily on read;
// adding past MaxEntries evicts the least recently used entry.
type MemoryProvider struct {
	opts    MemoryOptions
	mu      sync.RWMutex
	regions map[string]*memoryRegion
}

// NewMemoryProvider creates an in-process provider.
func NewMemoryProvider(opts MemoryOptions) *MemoryProvider {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MemoryProvider{
		opts:    opts,
		regions: make(map[string]*memoryRegion),
	}
}

// Region returns the named region, creating it on first use.
func (p *MemoryProvider) Region(name string) Region {
	p.mu.RLock()
	r, ok := p.regions[name]
	p.mu.RUnlock()
	if ok {
		return r
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok = p.regions[name]; ok {
		return r
	}
	r = newMemoryRegion(name, &p.opts)
	p.regions[name] = r
	return r
}

// Enabled always reports true.
func (p *MemoryProvider) Enabled() bool { return true }

// Close drops every region.
func (p *MemoryProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.regions = make(map[string]*memoryRegion)
	return nil
}

// Len returns the number of live entries in a region.
func (p *MemoryProvider) Len(name string) int {
	p.mu.RLock()
	r, ok := p.regions[name]
	p.mu.RUnlock()
	if !ok {
		return 0
	}
	return r.entries.Len()
}

type memoryEntry struct {
	value   []byte
	expires time.Time
}

type memoryRegion struct {
	name    string
	opts    *MemoryOptions
	entries *lru.Cache[string, memoryEntry]
}

func newMemoryRegion(name string, opts *MemoryOptions) *memoryRegion {
	size := opts.MaxEntries
	if size <= 0 {
		size = math.MaxInt32
	}
	// Only fails for a non-positive size.
	entries, _ := lru.New[string, memoryEntry](size)
	return &memoryRegion{name: name, opts: opts, entries: entries}
}

func (r *memoryRegion) Name() string { return r.name }

func (r *memoryRegion) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := r.entries.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && r.opts.Now().After(e.expires) {
		r.entries.Remove(key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}

func (r *memoryRegion) Set(_ context.Context, key string, value []byte) error {
	e := memoryEntry{value: append([]byte(nil), value...)}
	if r.opts.DefaultTTL > 0 {
		e.expires = r.opts.Now().Add(r.opts.DefaultTTL)
	}

	if evicted := r.entries.Add(key, e); evicted {
		if r.opts.Metrics != nil {
			r.opts.Metrics.ObserveEviction(r.name, 1)
		}
		logger.Debug("cache region evicted", logger.KeyRegion, r.name, logger.KeyEvicted, 1)
	}
	return nil
}

func (r *memoryRegion) Delete(_ context.Context, key string) error {
	r.entries.Remove(key)
	return nil
}

func (r *memoryRegion) Clear(_ context.Context) error {
	r.entries.Purge()
	return nil
}
