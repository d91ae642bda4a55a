package cache

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/atomic"
)

// Stats is an immutable snapshot of cache counters.
type Stats struct {
	Hits          int64         `json:"hits"`
	Misses        int64         `json:"misses"`
	Loads         int64         `json:"loads"`
	TotalLoadTime time.Duration `json:"total_load_time_ns"`
	Evictions     int64         `json:"evictions"`
}

// Plus returns the sum of s and o.
func (s Stats) Plus(o Stats) Stats {
	return Stats{
		Hits:          s.Hits + o.Hits,
		Misses:        s.Misses + o.Misses,
		Loads:         s.Loads + o.Loads,
		TotalLoadTime: s.TotalLoadTime + o.TotalLoadTime,
		Evictions:     s.Evictions + o.Evictions,
	}
}

// Minus returns s with o subtracted. Use it to compute the delta between
// two snapshots taken at the edges of a reporting window.
func (s Stats) Minus(o Stats) Stats {
	return Stats{
		Hits:          s.Hits - o.Hits,
		Misses:        s.Misses - o.Misses,
		Loads:         s.Loads - o.Loads,
		TotalLoadTime: s.TotalLoadTime - o.TotalLoadTime,
		Evictions:     s.Evictions - o.Evictions,
	}
}

// RequestCount returns hits plus misses.
func (s Stats) RequestCount() int64 {
	return s.Hits + s.Misses
}

// HitRate returns hits / requests, or 0 when there were no requests.
func (s Stats) HitRate() float64 {
	n := s.RequestCount()
	if n == 0 {
		return 0
	}
	return float64(s.Hits) / float64(n)
}

// MissRate returns misses / requests, or 0 when there were no requests.
func (s Stats) MissRate() float64 {
	n := s.RequestCount()
	if n == 0 {
		return 0
	}
	return float64(s.Misses) / float64(n)
}

// HitRatePercent formats HitRate as a percentage with two decimals, e.g. "66.67%".
func (s Stats) HitRatePercent() string {
	return percent(s.HitRate())
}

// MissRatePercent formats MissRate as a percentage with two decimals.
func (s Stats) MissRatePercent() string {
	return percent(s.MissRate())
}

// AverageLoadTime returns the mean loader duration, or 0 when nothing was loaded.
func (s Stats) AverageLoadTime() time.Duration {
	if s.Loads == 0 {
		return 0
	}
	return s.TotalLoadTime / time.Duration(s.Loads)
}

// String renders one counter per line.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "hitCount = %d\n", s.Hits)
	fmt.Fprintf(&b, "missCount = %d\n", s.Misses)
	fmt.Fprintf(&b, "requestCount = %d\n", s.RequestCount())
	fmt.Fprintf(&b, "loadCount = %d\n", s.Loads)
	fmt.Fprintf(&b, "totalLoadTime = %d\n", s.TotalLoadTime.Nanoseconds())
	fmt.Fprintf(&b, "averageLoadTime = %d\n", s.AverageLoadTime().Nanoseconds())
	fmt.Fprintf(&b, "evictionCount = %d\n", s.Evictions)
	return b.String()
}

func percent(rate float64) string {
	return strconv.FormatFloat(rate*100, 'f', 2, 64) + "%"
}

// recorder holds live counters. Every counter is updated on its own;
// a snapshot is not a transaction across counters.
// Updates are forwarded to parent when set.
type recorder struct {
	parent        *recorder
	hits          atomic.Int64
	misses        atomic.Int64
	loads         atomic.Int64
	evictions     atomic.Int64
	totalLoadTime atomic.Duration
}

func (r *recorder) hit() {
	for ; r != nil; r = r.parent {
		r.hits.Inc()
	}
}

func (r *recorder) miss() {
	for ; r != nil; r = r.parent {
		r.misses.Inc()
	}
}

func (r *recorder) load(d time.Duration) {
	for ; r != nil; r = r.parent {
		r.loads.Inc()
		r.totalLoadTime.Add(d)
	}
}

func (r *recorder) evict(n int) {
	for ; r != nil; r = r.parent {
		r.evictions.Add(int64(n))
	}
}

func (r *recorder) snapshot() Stats {
	return Stats{
		Hits:          r.hits.Load(),
		Misses:        r.misses.Load(),
		Loads:         r.loads.Load(),
		TotalLoadTime: r.totalLoadTime.Load(),
		Evictions:     r.evictions.Load(),
	}
}
