package cache

import (
	"time"

	"go.uber.org/atomic"
)

// Entry is one cached result with its metadata.
// Everything except the use counter is fixed at creation.
type Entry[V any] struct {
	createdAt time.Time
	holder    holder[V]
	uses      *atomic.Int64
	key       string
	ttl       time.Duration
	cost      time.Duration
}

func newEntry[V any](key string, h holder[V], createdAt time.Time, ttl, cost time.Duration) *Entry[V] {
	return &Entry[V]{
		key:       key,
		holder:    h,
		createdAt: createdAt,
		ttl:       ttl,
		cost:      cost,
		uses:      atomic.NewInt64(1), // the load itself counts as a use
	}
}

// Key returns the entry's key.
func (e *Entry[V]) Key() string { return e.key }

// CreatedAt returns the time the entry was inserted.
func (e *Entry[V]) CreatedAt() time.Time { return e.createdAt }

// TTL returns the entry's time-to-live. Zero means the entry never expires.
func (e *Entry[V]) TTL() time.Duration { return e.ttl }

// ComputeCost returns how long the loader took to produce the value.
func (e *Entry[V]) ComputeCost() time.Duration { return e.cost }

// UseCount returns the number of reads observed so far, including the load.
// The count is approximate under concurrent reads.
func (e *Entry[V]) UseCount() int64 { return e.uses.Load() }

// Soft reports whether the value is held through a reclaimable reference.
func (e *Entry[V]) Soft() bool { return e.holder.reclaimable() }

// Score is the cost-weighted popularity used by CostWeighted eviction:
// uses * (cost in milliseconds + 1).
func (e *Entry[V]) Score() int64 {
	return score(e.UseCount(), e.cost)
}

// IsExpired reports whether the TTL has passed at now or the soft value
// has been reclaimed.
func (e *Entry[V]) IsExpired(now time.Time) bool {
	if e.ttl > 0 && now.After(e.createdAt.Add(e.ttl)) {
		return true
	}
	return e.holder.reclaimed()
}

// Value returns the held value. ok is false when a soft value was reclaimed.
func (e *Entry[V]) Value() (V, bool) {
	return e.holder.load()
}

// touch records a read. Load and store are separate steps on purpose:
// concurrent readers may overwrite each other's increment, which keeps
// the hot read path free of locks and CAS retries.
func (e *Entry[V]) touch() {
	e.uses.Store(e.uses.Load() + 1)
}

func (e *Entry[V]) candidate() Candidate {
	uses := e.UseCount()
	return Candidate{
		Key:         e.key,
		CreatedAt:   e.createdAt,
		UseCount:    uses,
		ComputeCost: e.cost,
		Score:       score(uses, e.cost),
	}
}

func score(uses int64, cost time.Duration) int64 {
	return uses * (cost.Milliseconds() + 1)
}
