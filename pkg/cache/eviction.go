package cache

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Candidate is a read-only view of an entry offered to an EvictionStrategy.
type Candidate struct {
	CreatedAt   time.Time
	Key         string
	UseCount    int64
	ComputeCost time.Duration
	Score       int64
}

// EvictionStrategy selects which entries to remove when a store exceeds
// its capacity. Implementations must be stateless and must not retain
// or modify the candidates slice.
type EvictionStrategy interface {
	// SelectVictims returns up to overBy keys to remove.
	SelectVictims(candidates []Candidate, overBy int) []string
}

// StrategyFunc adapts a function to EvictionStrategy.
type StrategyFunc func(candidates []Candidate, overBy int) []string

// SelectVictims calls f.
func (f StrategyFunc) SelectVictims(candidates []Candidate, overBy int) []string {
	return f(candidates, overBy)
}

// Eviction identifies a built-in eviction strategy.
type Eviction int

const (
	// CostWeighted removes entries with the lowest uses*(cost+1) score,
	// oldest first on ties. It keeps entries that are both popular and
	// expensive to recompute.
	CostWeighted Eviction = iota

	// LRU removes the least recently inserted entries. Read recency is not tracked.
	LRU

	// LFU removes the least used entries, oldest first on ties.
	LFU

	// Custom marks settings that carry a caller-supplied strategy.
	Custom
)

// String returns the identifier accepted by ParseEviction.
func (e Eviction) String() string {
	switch e {
	case CostWeighted:
		return "cost-weighted"
	case LRU:
		return "lru"
	case LFU:
		return "lfu"
	case Custom:
		return "custom"
	default:
		return fmt.Sprintf("eviction(%d)", int(e))
	}
}

// ParseEviction maps an identifier such as "lru" or "cost-weighted" to an Eviction.
func ParseEviction(s string) (Eviction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cost-weighted", "costweighted", "cost":
		return CostWeighted, nil
	case "lru":
		return LRU, nil
	case "lfu":
		return LFU, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownEviction, s)
	}
}

// Strategy returns the built-in strategy for e.
func (e Eviction) Strategy() (EvictionStrategy, error) {
	switch e {
	case CostWeighted:
		return StrategyFunc(selectCostWeighted), nil
	case LRU:
		return StrategyFunc(selectOldest), nil
	case LFU:
		return StrategyFunc(selectLeastUsed), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownEviction, e)
	}
}

func selectOldest(candidates []Candidate, overBy int) []string {
	return pick(candidates, overBy, func(a, b Candidate) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.Key, b.Key))
	})
}

func selectCostWeighted(candidates []Candidate, overBy int) []string {
	return pick(candidates, overBy, func(a, b Candidate) int {
		return cmp.Or(
			cmp.Compare(a.Score, b.Score),
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.Key, b.Key),
		)
	})
}

func selectLeastUsed(candidates []Candidate, overBy int) []string {
	return pick(candidates, overBy, func(a, b Candidate) int {
		return cmp.Or(
			cmp.Compare(a.UseCount, b.UseCount),
			a.CreatedAt.Compare(b.CreatedAt),
			strings.Compare(a.Key, b.Key),
		)
	})
}

// pick sorts a copy of candidates and returns the first overBy keys.
func pick(candidates []Candidate, overBy int, compare func(a, b Candidate) int) []string {
	if overBy <= 0 || len(candidates) == 0 {
		return nil
	}
	sorted := slices.Clone(candidates)
	slices.SortFunc(sorted, compare)

	n := min(overBy, len(sorted))
	keys := make([]string, 0, n)
	for _, c := range sorted[:n] {
		keys = append(keys, c.Key)
	}
	return keys
}
