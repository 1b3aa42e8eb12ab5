package cache

import "context"

// Disabled returns a provider that caches nothing.
//
// Repositories check Enabled and skip the cache, so a disabled provider
// yields behavior that depends on the database alone.
func Disabled() Provider { return disabledProvider{} }

type disabledProvider struct{}

func (disabledProvider) Region(name string) Region { return disabledRegion{name: name} }
func (disabledProvider) Enabled() bool             { return false }
func (disabledProvider) Close() error              { return nil }

type disabledRegion struct{ name string }

func (r disabledRegion) Name() string { return r.name }

func (disabledRegion) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (disabledRegion) Set(context.Context, string, []byte) error         { return nil }
func (disabledRegion) Delete(context.Context, string) error              { return nil }
func (disabledRegion) Clear(context.Context) error                       { return nil }
