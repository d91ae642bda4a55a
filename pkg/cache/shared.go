package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Shared layers single-flight loading over a Store: concurrent misses on
// the same key run the loader once and share its result. The Store keeps
// its own semantics; only calls made through Shared are deduplicated.
type Shared[V any] struct {
	store *Store[V]
	group singleflight.Group
}

// NewShared wraps store.
func NewShared[V any](store *Store[V]) *Shared[V] {
	return &Shared[V]{store: store}
}

// Store returns the wrapped store.
func (s *Shared[V]) Store() *Store[V] {
	return s.store
}

// Get returns the cached value for key or loads it once for all
// concurrent callers. The loader runs with the context of the caller
// that started the flight. Loader errors are returned to every waiting
// caller and nothing is cached.
func (s *Shared[V]) Get(ctx context.Context, key string, loader Loader[V]) (V, error) {
	// Fast path: try cache first.
	if v, ok := s.store.Get(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		start := time.Now()
		val, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		s.store.Put(key, val, time.Since(start))
		return val, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	val, _ := v.(V) // nil interface results come back as the zero V
	return val, nil
}

// Forget drops any in-flight load for key so the next Get starts a new one.
func (s *Shared[V]) Forget(key string) {
	s.group.Forget(key)
}
