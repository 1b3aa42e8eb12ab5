// Package redis implements a cache provider backed by redis.
//
// Keys are laid out as "<prefix>:<region>:<key>" so that one redis database
// can be shared by several strata deployments and regions can be cleared
// independently.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/stratacms/strata/pkg/cache"
)

// clearBatchSize bounds the keys fetched per SCAN and deleted per DEL.
const clearBatchSize = 500

// Provider serves cache regions from redis.
type Provider struct {
	client goredis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewProvider wraps client. Entries expire after ttl; zero disables expiry.
func NewProvider(client goredis.UniversalClient, prefix string, ttl time.Duration) *Provider {
	return &Provider{client: client, prefix: prefix, ttl: ttl}
}

// Dial connects to addr and verifies the connection.
func Dial(ctx context.Context, addr, password string, db int, prefix string, ttl time.Duration) (*Provider, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr, Password: password, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return NewProvider(client, prefix, ttl), nil
}

// Region returns the named region.
func (p *Provider) Region(name string) cache.Region {
	return &region{p: p, name: name, base: p.prefix + ":" + name + ":"}
}

// Enabled always reports true.
func (p *Provider) Enabled() bool { return true }

// Close closes the redis client.
func (p *Provider) Close() error { return p.client.Close() }

type region struct {
	p    *Provider
	name string
	base string
}

func (r *region) Name() string { return r.name }

func (r *region) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := r.p.client.Get(ctx, r.base+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (r *region) Set(ctx context.Context, key string, value []byte) error {
	return r.p.client.Set(ctx, r.base+key, value, r.p.ttl).Err()
}

func (r *region) Delete(ctx context.Context, key string) error {
	return r.p.client.Del(ctx, r.base+key).Err()
}

// Clear collects every key of the region before deleting, since deleting
// while a SCAN cursor is open can make the scan skip keys.
func (r *region) Clear(ctx context.Context) error {
	var keys []string
	iter := r.p.client.Scan(ctx, 0, r.base+"*", clearBatchSize).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	for start := 0; start < len(keys); start += clearBatchSize {
		end := min(start+clearBatchSize, len(keys))
		if err := r.p.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			return err
		}
	}
	return nil
}
