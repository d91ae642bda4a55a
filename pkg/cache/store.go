package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

// Loader computes a value on a cache miss.
type Loader[V any] func(ctx context.Context) (V, error)

// Store is the key to entry table of one cached operation in one scope.
// It applies TTL expiry on read and eviction on write, and keeps Stats.
//
// Store is safe for concurrent use. Entry use counters are bumped without
// coordinating with other readers, so concurrent hits may undercount.
// ComputeIfAbsent does not deduplicate concurrent misses on the same key:
// the loader may run several times and the last Put wins. Wrap the store
// in Shared when single-flight loading is required.
type Store[V any] struct {
	items    map[string]*Entry[V]
	stats    *recorder
	opts     *storeOptions
	hold     func(v V, soft bool) holder[V]
	done     chan struct{}
	settings Settings
	mu       sync.RWMutex
	closed   bool
}

// NewStore creates a store governed by settings.
//
// Example:
//
//	s := cache.NewStore[Report](cache.MustSettings(
//	    cache.WithTTL(5*time.Minute),
//	    cache.WithMaxEntries(100),
//	))
//	defer s.Close()
//
//	r, err := s.ComputeIfAbsent(ctx, "report:42", func(ctx context.Context) (Report, error) {
//	    return repo.BuildReport(ctx, 42)
//	})
func NewStore[V any](settings Settings, opts ...StoreOption) *Store[V] {
	o := defaultStoreOptions()
	for _, opt := range opts {
		opt(o)
	}

	s := &Store[V]{
		items:    make(map[string]*Entry[V]),
		stats:    &recorder{parent: o.parent},
		opts:     o,
		hold:     newHolder[V],
		done:     make(chan struct{}),
		settings: settings,
	}

	if o.cleanupInterval > 0 {
		go s.janitor()
	}

	return s
}

// Settings returns the settings the store was created with.
func (s *Store[V]) Settings() Settings {
	return s.settings
}

// Get returns the cached value for key.
// A missing, expired or reclaimed entry is a miss; expired and reclaimed
// entries are removed and counted as evictions.
func (s *Store[V]) Get(key string) (V, bool) {
	var zero V

	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()

	if !ok {
		s.stats.miss()
		return zero, false
	}

	if e.IsExpired(s.opts.clock()) {
		s.discard(e)
		s.stats.miss()
		return zero, false
	}

	// The value may be reclaimed between the expiry check and here.
	v, ok := e.Value()
	if !ok {
		s.discard(e)
		s.stats.miss()
		return zero, false
	}

	e.touch()
	s.stats.hit()
	return v, true
}

// Peek returns the entry for key without touching stats or use counters.
func (s *Store[V]) Peek(key string) (*Entry[V], bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[key]
	return e, ok
}

// Put stores value under key, replacing any previous entry, and records a
// load that took cost. When the store exceeds its entry limit the
// configured strategy chooses victims among the other entries.
func (s *Store[V]) Put(key string, value V, cost time.Duration) {
	e := newEntry(key, s.hold(value, s.settings.SoftValues()), s.opts.clock(), s.settings.TTL(), cost)

	s.mu.Lock()
	s.items[key] = e
	evicted := s.enforceCapacityLocked(key)
	s.mu.Unlock()

	s.stats.load(cost)
	if evicted > 0 {
		s.stats.evict(evicted)
	}
}

// ComputeIfAbsent returns the cached value for key, or runs loader, caches
// its result and returns it. Loader errors are returned unchanged and
// leave the store untouched. Concurrent misses are not deduplicated.
func (s *Store[V]) ComputeIfAbsent(ctx context.Context, key string, loader Loader[V]) (V, error) {
	if v, ok := s.Get(key); ok {
		return v, nil
	}

	start := time.Now()
	v, err := loader(ctx)
	if err != nil {
		var zero V
		return zero, err
	}

	s.Put(key, v, time.Since(start))
	return v, nil
}

// Invalidate removes key. Stats are not affected.
func (s *Store[V]) Invalidate(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, key)
}

// Clear removes every entry. Stats are not affected.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
}

// Len returns the number of entries, including expired ones not yet swept.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Keys returns the current keys in sorted order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	s.mu.RUnlock()

	slices.Sort(keys)
	return keys
}

// Stats returns a snapshot of the store's counters.
func (s *Store[V]) Stats() Stats {
	return s.stats.snapshot()
}

// Sweep removes expired and reclaimed entries and returns how many were
// removed. Each removal counts as an eviction.
func (s *Store[V]) Sweep() int {
	now := s.opts.clock()

	s.mu.Lock()
	n := 0
	for k, e := range s.items {
		if e.IsExpired(now) {
			delete(s.items, k)
			n++
		}
	}
	s.mu.Unlock()

	if n > 0 {
		s.stats.evict(n)
	}
	return n
}

// Close stops the background sweeper. Entries stay readable.
// Close is idempotent.
func (s *Store[V]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	close(s.done)

	return nil
}

// janitor periodically sweeps expired entries.
func (s *Store[V]) janitor() {
	ticker := time.NewTicker(s.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// discard removes e if it is still the live entry for its key.
func (s *Store[V]) discard(e *Entry[V]) {
	s.mu.Lock()
	removed := false
	if cur, ok := s.items[e.key]; ok && cur == e {
		delete(s.items, e.key)
		removed = true
	}
	s.mu.Unlock()

	if removed {
		s.stats.evict(1)
	}
}

// enforceCapacityLocked evicts entries other than keep until the store
// fits its limit and returns the number removed.
// Caller must hold the write lock.
func (s *Store[V]) enforceCapacityLocked(keep string) int {
	limit := s.settings.MaxEntries()
	if limit <= 0 || len(s.items) <= limit {
		return 0
	}

	candidates := make([]Candidate, 0, len(s.items)-1)
	for k, e := range s.items {
		if k != keep {
			candidates = append(candidates, e.candidate())
		}
	}

	removed := s.removeLocked(s.settings.Strategy().SelectVictims(candidates, len(s.items)-limit), keep, limit)

	// A custom strategy may return too few keys; fall back to the oldest entries.
	if len(s.items) > limit {
		candidates = candidates[:0]
		for k, e := range s.items {
			if k != keep {
				candidates = append(candidates, e.candidate())
			}
		}
		removed += s.removeLocked(selectOldest(candidates, len(s.items)-limit), keep, limit)
	}

	return removed
}

// removeLocked deletes keys until the store is back within limit.
func (s *Store[V]) removeLocked(keys []string, keep string, limit int) int {
	n := 0
	for _, k := range keys {
		if len(s.items) <= limit {
			break
		}
		if k == keep {
			continue
		}
		if _, ok := s.items[k]; ok {
			delete(s.items, k)
			n++
		}
	}
	return n
}
