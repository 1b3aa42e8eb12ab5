// Package badger implements a cache provider on an embedded badger store.
package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/stratacms/strata/pkg/cache"
)

// Provider serves cache regions from a badger database. Keys are stored as
// "<region>/<key>".
type Provider struct {
	db    *badgerdb.DB
	ttl   time.Duration
	owned bool
}

// NewProvider wraps an already opened database. Close does not close db.
func NewProvider(db *badgerdb.DB, ttl time.Duration) *Provider {
	return &Provider{db: db, ttl: ttl}
}

// Open opens a badger database at path, or an in-memory one.
func Open(path string, inMemory bool, ttl time.Duration) (*Provider, error) {
	opts := badgerdb.DefaultOptions(path)
	if inMemory {
		opts = badgerdb.DefaultOptions("").WithInMemory(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache: %w", err)
	}
	return &Provider{db: db, ttl: ttl, owned: true}, nil
}

// Region returns the named region.
func (p *Provider) Region(name string) cache.Region {
	return &region{p: p, name: name, prefix: []byte(name + "/")}
}

// Enabled always reports true.
func (p *Provider) Enabled() bool { return true }

// Close closes the database if it was opened by Open.
func (p *Provider) Close() error {
	if !p.owned {
		return nil
	}
	return p.db.Close()
}

type region struct {
	p      *Provider
	name   string
	prefix []byte
}

func (r *region) key(k string) []byte {
	out := make([]byte, 0, len(r.prefix)+len(k))
	out = append(out, r.prefix...)
	return append(out, k...)
}

func (r *region) Name() string { return r.name }

func (r *region) Get(_ context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := r.p.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(r.key(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if err == badgerdb.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (r *region) Set(_ context.Context, key string, value []byte) error {
	return r.p.db.Update(func(txn *badgerdb.Txn) error {
		e := badgerdb.NewEntry(r.key(key), value)
		if r.p.ttl > 0 {
			e = e.WithTTL(r.p.ttl)
		}
		return txn.SetEntry(e)
	})
}

func (r *region) Delete(_ context.Context, key string) error {
	return r.p.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(r.key(key))
	})
}

func (r *region) Clear(_ context.Context) error {
	return r.p.db.DropPrefix(r.prefix)
}
