package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

func TestStats_PlusMinus(t *testing.T) {
	t.Parallel()

	snapshots := []cache.Stats{
		{},
		{Hits: 1},
		{Hits: 10, Misses: 5, Loads: 5, TotalLoadTime: 250 * time.Millisecond, Evictions: 2},
		{Hits: 1 << 40, Misses: 1 << 30, Loads: 7, TotalLoadTime: time.Hour, Evictions: 99},
	}

	for _, a := range snapshots {
		for _, b := range snapshots {
			require.Equal(t, a, a.Plus(b).Minus(b))
		}
	}

	t.Run("operands are not mutated", func(t *testing.T) {
		t.Parallel()

		a := cache.Stats{Hits: 3, Misses: 1}
		b := cache.Stats{Hits: 1, Misses: 1}
		sum := a.Plus(b)

		require.Equal(t, cache.Stats{Hits: 4, Misses: 2}, sum)
		require.Equal(t, cache.Stats{Hits: 3, Misses: 1}, a)
		require.Equal(t, cache.Stats{Hits: 1, Misses: 1}, b)
	})
}

func TestStats_Derived(t *testing.T) {
	t.Parallel()

	t.Run("empty snapshot has zero rates", func(t *testing.T) {
		t.Parallel()

		var s cache.Stats
		require.Equal(t, int64(0), s.RequestCount())
		require.Zero(t, s.HitRate())
		require.Zero(t, s.MissRate())
		require.Zero(t, s.AverageLoadTime())
		require.Equal(t, "0.00%", s.HitRatePercent())
	})

	t.Run("rates and averages", func(t *testing.T) {
		t.Parallel()

		s := cache.Stats{Hits: 2, Misses: 1, Loads: 4, TotalLoadTime: 100 * time.Millisecond}
		require.Equal(t, int64(3), s.RequestCount())
		require.InDelta(t, 2.0/3.0, s.HitRate(), 1e-9)
		require.InDelta(t, 1.0/3.0, s.MissRate(), 1e-9)
		require.Equal(t, "66.67%", s.HitRatePercent())
		require.Equal(t, "33.33%", s.MissRatePercent())
		require.Equal(t, 25*time.Millisecond, s.AverageLoadTime())
	})

	t.Run("string lists every counter", func(t *testing.T) {
		t.Parallel()

		s := cache.Stats{Hits: 2, Misses: 1, Loads: 1, TotalLoadTime: 10, Evictions: 3}
		out := s.String()
		require.Contains(t, out, "hitCount = 2\n")
		require.Contains(t, out, "missCount = 1\n")
		require.Contains(t, out, "requestCount = 3\n")
		require.Contains(t, out, "loadCount = 1\n")
		require.Contains(t, out, "totalLoadTime = 10\n")
		require.Contains(t, out, "averageLoadTime = 10\n")
		require.Contains(t, out, "evictionCount = 3\n")
	})
}
