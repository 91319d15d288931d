package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryStoreLazyExpiry(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: time.Unix(1000, 0)}
	s := NewMemoryStore(WithClock(clock.Now))

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	raw, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), raw)

	clock.Advance(time.Minute)
	assert.Equal(t, 1, s.Len(), "expired entry stays until looked up")

	_, ok, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for _, k := range []string{"canon:tag:a", "canon:tag:b", "canon:hierarchy:a"} {
		require.NoError(t, s.Set(ctx, k, []byte("1"), time.Minute))
	}

	require.NoError(t, s.DeletePrefix(ctx, "canon:tag:"))
	assert.Equal(t, 1, s.Len())

	require.NoError(t, s.DeletePrefix(ctx, ""))
	assert.Equal(t, 0, s.Len())
}

func TestCacheGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := New[[]string](NewMemoryStore(), "hierarchy", time.Minute)

	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	first, err := c.GetOrLoad(ctx, "path:x:", load)
	require.NoError(t, err)
	first[0] = "mutated"

	second, err := c.GetOrLoad(ctx, "path:x:", load)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, second, "hits decode a fresh copy")
	assert.Equal(t, 1, calls)

	require.NoError(t, c.Clear(ctx))
	_, err = c.GetOrLoad(ctx, "path:x:", load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	ctx := context.Background()
	c := New[int](NewMemoryStore(), "tag", time.Minute)
	boom := errors.New("boom")

	_, err := c.GetOrLoad(ctx, "k", func(context.Context) (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestCacheZeroTTLDisablesCaching(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := New[int](store, "tag", 0)
	c.Set(ctx, "k", 1)
	assert.Equal(t, 0, store.Len())
}

func TestCacheUndecodableEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "canon:tag:k", []byte("{not json"), time.Minute))

	c := New[map[string]int](store, "tag", time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		id      string
		options any
		want    string
	}{
		{"no options", "children", "p1", nil, "children:p1:"},
		{"struct options", "path", "c1", struct {
			MaxDepth int `json:"maxDepth"`
		}{10}, `path:c1:{"maxDepth":10}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Key(tt.method, tt.id, tt.options))
		})
	}
}

func TestMemoryStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = s.Set(ctx, "shared", []byte("x"), time.Minute)
				_, _, _ = s.Get(ctx, "shared")
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, s.Len())
}
