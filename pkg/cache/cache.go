// Package cache holds resolver query results for a bounded time.
//
// A Store moves opaque bytes with a TTL. Cache wraps a Store with a key
// namespace and JSON encoding, so every hit decodes a fresh value and callers
// never share slices through the cache.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/alchemy-game-studios/game-planner/pkg/metrics"
)

// Store is a byte cache with per-entry TTL. Implementations must be safe for
// concurrent use. Concurrent writers to one key resolve last-writer-wins.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix. An empty prefix
	// clears the store.
	DeletePrefix(ctx context.Context, prefix string) error
}

// KeyPrefix namespaces every key the context engine writes.
const KeyPrefix = "canon:"

// Cache is a typed view over a Store under one namespace.
type Cache[V any] struct {
	store     Store
	namespace string
	ttl       time.Duration
}

// New returns a cache storing values under "canon:<namespace>:".
func New[V any](store Store, namespace string, ttl time.Duration) *Cache[V] {
	return &Cache[V]{store: store, namespace: namespace, ttl: ttl}
}

// Key builds a cache key from a method name, an id and the query options.
func Key(method, id string, options any) string {
	var b strings.Builder
	b.WriteString(method)
	b.WriteByte(':')
	b.WriteString(id)
	b.WriteByte(':')
	if options != nil {
		raw, err := json.Marshal(options)
		if err == nil {
			b.Write(raw)
		}
	}
	return b.String()
}

func (c *Cache[V]) prefix() string {
	return KeyPrefix + c.namespace + ":"
}

// Get returns the cached value. Backend errors and undecodable entries are
// logged and reported as misses.
func (c *Cache[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	if c == nil || c.store == nil {
		return zero, false
	}
	raw, ok, err := c.store.Get(ctx, c.prefix()+key)
	if err != nil {
		logger.Warn("[Cache][Get] backend error, treating as miss", "cache", c.namespace, "key", key, "err", err)
		return zero, false
	}
	if !ok {
		return zero, false
	}
	var v V
	if err := json.Unmarshal(raw, &v); err != nil {
		logger.Warn("[Cache][Get] undecodable entry, treating as miss", "cache", c.namespace, "key", key, "err", err)
		return zero, false
	}
	return v, true
}

// Set stores v with the cache TTL. Failures are logged, never returned.
func (c *Cache[V]) Set(ctx context.Context, key string, v V) {
	if c == nil || c.store == nil || c.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		logger.Warn("[Cache][Set] failed to encode value", "cache", c.namespace, "key", key, "err", err)
		return
	}
	if err := c.store.Set(ctx, c.prefix()+key, raw, c.ttl); err != nil {
		logger.Warn("[Cache][Set] backend error", "cache", c.namespace, "key", key, "err", err)
	}
}

// GetOrLoad returns the cached value or calls load and caches its result.
// Load errors are returned and nothing is cached.
func (c *Cache[V]) GetOrLoad(ctx context.Context, key string, load func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(ctx, key); ok {
		metrics.Default().IncCacheLookup(c.namespace, true)
		logger.Debug("[Cache][GetOrLoad] cache hit", "cache", c.namespace, "key", key)
		return v, nil
	}
	metrics.Default().IncCacheLookup(c.namespace, false)
	v, err := load(ctx)
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(ctx, key, v)
	return v, nil
}

// Clear drops every entry in this cache's namespace.
func (c *Cache[V]) Clear(ctx context.Context) error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.DeletePrefix(ctx, c.prefix())
}
