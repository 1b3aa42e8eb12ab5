package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	mr "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/stratacms/strata/pkg/cache"
)

func newTestProvider(t *testing.T, ttl time.Duration) (*Provider, *mr.Miniredis) {
	t.Helper()
	m, err := mr.Run()
	require.NoError(t, err)
	t.Cleanup(m.Close)

	client := goredis.NewClient(&goredis.Options{Addr: m.Addr()})
	p := NewProvider(client, "test", ttl)
	t.Cleanup(func() { _ = p.Close() })
	return p, m
}

func TestRegion_SetGetDelete(t *testing.T) {
	p, m := newTestProvider(t, 0)
	ctx := context.Background()
	r := p.Region("language")

	require.NoError(t, r.Set(ctx, "id:1", []byte(`{"id":1}`)))
	require.True(t, m.Exists("test:language:id:1"))

	got, ok, err := r.Get(ctx, "id:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `{"id":1}`, string(got))

	require.NoError(t, r.Delete(ctx, "id:1"))
	_, ok, err = r.Get(ctx, "id:1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegion_TTLExpiry(t *testing.T) {
	p, m := newTestProvider(t, time.Second)
	ctx := context.Background()
	r := p.Region("domain")

	require.NoError(t, r.Set(ctx, "id:7", []byte("x")))
	m.FastForward(2 * time.Second)

	_, ok, err := r.Get(ctx, "id:7")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRegion_ClearIsIsolated(t *testing.T) {
	p, m := newTestProvider(t, 0)
	ctx := context.Background()
	languages := p.Region("language")
	domains := p.Region("domain")

	for i := 0; i < 1200; i++ {
		require.NoError(t, languages.Set(ctx, fmt.Sprintf("id:%d", i), []byte("v")))
	}
	require.NoError(t, domains.Set(ctx, "id:1", []byte("d")))

	require.NoError(t, languages.Clear(ctx))

	_, ok, err := languages.Get(ctx, "id:42")
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, []string{"test:domain:id:1"}, m.Keys(), "every key of the cleared region is gone")

	got, ok, err := domains.Get(ctx, "id:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "d", string(got))
}

func TestRegion_WorksAsEntityCacheBackend(t *testing.T) {
	p, _ := newTestProvider(t, 0)
	ctx := context.Background()

	b := cache.NewBatch(p, nil)
	require.NoError(t, b.Region("r").Set(ctx, "id:1", []byte("1")))
	require.Equal(t, 1, b.Pending())
	require.NoError(t, b.Flush(ctx))

	got, ok, err := p.Region("r").Get(ctx, "id:1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1", string(got))
}

func TestDial_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dial(ctx, "127.0.0.1:1", "", 0, "test", 0)
	require.Error(t, err)
}
