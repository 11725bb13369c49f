package storage

import (
	"context"
	"time"

	"github.com/student-ai-platform/internal/logging"
	"github.com/student-ai-platform/internal/metrics"
)

// FetchFunc produces a fresh value on a cache miss
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Typed is a read-through view of a Cache for one resource type
type Typed[T any] struct {
	cache    Cache
	resource string
	window   time.Duration
	metrics  *metrics.Registry
	now      func() time.Time
}

// NewTyped creates a typed cache; a non-positive window never expires
func NewTyped[T any](cache Cache, resource string, window time.Duration, m *metrics.Registry) *Typed[T] {
	return &Typed[T]{cache: cache, resource: resource, window: window, metrics: m, now: time.Now}
}

// Load returns the cached value under key while it is fresh, unless force is set.
// Otherwise it calls fetch and writes the result back with a new timestamp.
// Cache faults are logged and treated as misses.
func (t *Typed[T]) Load(ctx context.Context, key string, force bool, fetch FetchFunc[T]) (T, error) {
	logger := logging.FromContext(ctx).WithFields(map[string]interface{}{
		"resource": t.resource,
		"key":      key,
	})

	if !force {
		if v, ok := t.fresh(ctx, key, logger); ok {
			t.metrics.CacheHit(t.resource)
			return v, nil
		}
	}
	t.metrics.CacheMiss(t.resource)

	v, err := fetch(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	if err := t.cache.Put(ctx, key, v); err != nil {
		logger.WithError(err).Warn("Failed to write cache entry")
	}
	return v, nil
}

func (t *Typed[T]) fresh(ctx context.Context, key string, logger *logging.Logger) (T, bool) {
	var v T
	entry, found, err := t.cache.Get(ctx, key, &v)
	if err != nil {
		logger.WithError(err).Warn("Cache read failed")
		return v, false
	}
	if !found || !Fresh(entry.StoredAt, t.now(), t.window) {
		return v, false
	}
	return v, true
}

// Store writes v under key
func (t *Typed[T]) Store(ctx context.Context, key string, v T) error {
	return t.cache.Put(ctx, key, v)
}

// Invalidate removes keys and their timestamps
func (t *Typed[T]) Invalidate(ctx context.Context, keys ...string) error {
	return t.cache.Delete(ctx, keys...)
}
