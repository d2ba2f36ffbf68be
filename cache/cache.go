package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/isdmx/portfolio/config"
)

// DefaultTTL is used when neither the caller nor Options set a TTL.
const DefaultTTL = 300 * time.Second

// Options configures a Cache.
type Options struct {
	// DefaultTTL applies to Set calls made with a non-positive ttl.
	DefaultTTL time.Duration
	// Capacity bounds the number of live entries. When the bound is reached
	// the least recently used entry is evicted. Zero means unbounded.
	Capacity uint64
	Logger   *zap.Logger
}

// Cache is a concurrency-safe key/value store with per-entry expiry.
//
// Expiry is lazy: an expired entry is dropped the next time its key is read.
// No background janitor runs, so keys that are never read again stay in
// memory until Clear or, with a Capacity set, until they are evicted.
type Cache[V any] struct {
	store      *ttlcache.Cache[string, V]
	defaultTTL time.Duration
	logger     *zap.Logger
	group      singleflight.Group
	// mu orders writes against the removal of stale entries
	mu sync.Mutex
}

// New creates a Cache from opts.
func New[V any](opts Options) *Cache[V] {
	ttl := opts.DefaultTTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	storeOpts := []ttlcache.Option[string, V]{
		ttlcache.WithTTL[string, V](ttl),
		// the expiry instant is fixed at write time; reads never extend it
		ttlcache.WithDisableTouchOnHit[string, V](),
	}
	if opts.Capacity > 0 {
		storeOpts = append(storeOpts, ttlcache.WithCapacity[string, V](opts.Capacity))
	}

	return &Cache[V]{
		store:      ttlcache.New[string, V](storeOpts...),
		defaultTTL: ttl,
		logger:     logger,
	}
}

// NewFromConfig creates the shared result cache described by cfg.
func NewFromConfig(logger *zap.Logger, cfg *config.Config) *Cache[any] {
	return New[any](Options{
		DefaultTTL: cfg.DefaultTTL(),
		Capacity:   uint64(max(cfg.Cache.Capacity, 0)), //nolint:gosec // non-negative
		Logger:     logger.Named("cache"),
	})
}

// Get returns the value stored for key if it has not expired.
func (c *Cache[V]) Get(key string) (V, bool) {
	if item := c.store.Get(key); item != nil && !item.IsExpired() {
		return item.Value(), true
	}

	// Drop a stale entry, if any, so it does not linger until a sweep. The
	// key is looked up again under mu so a value written since the first
	// lookup is returned instead of deleted.
	c.mu.Lock()
	defer c.mu.Unlock()
	if item := c.store.Get(key); item != nil && !item.IsExpired() {
		return item.Value(), true
	}
	c.store.Delete(key)
	var zero V
	return zero, false
}

// Set stores value under key, replacing any existing entry. A non-positive
// ttl selects the cache's default TTL.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Set(key, value, ttl)
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.store.Delete(key)
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.store.DeleteAll()
}

// Len reports the number of stored entries, including expired ones that
// have not been read since they expired.
func (c *Cache[V]) Len() int {
	return c.store.Len()
}

// Metrics returns hit, miss, insertion and eviction counters.
func (c *Cache[V]) Metrics() ttlcache.Metrics {
	return c.store.Metrics()
}

// GetOrCompute returns the cached value for key or computes it with fn.
// Concurrent callers missing on the same key share a single fn call. A value
// is only stored when fn succeeds. The returned bool reports a cache hit.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) (V, error)) (V, bool, error) {
	if v, ok := c.Get(key); ok {
		c.logger.Debug("cache hit", zap.String("key", key))
		return v, true, nil
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		c.Set(key, v, ttl)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, false, err
	}

	v, ok := res.(V)
	if !ok {
		var zero V
		return zero, false, fmt.Errorf("cache: unexpected value type %T for key %q", res, key)
	}
	return v, false, nil
}
