package cache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

func TestShared_Get(t *testing.T) {
	t.Parallel()

	t.Run("concurrent misses load once", func(t *testing.T) {
		t.Parallel()

		sh := cache.NewShared(cache.NewStore[string](cache.Settings{}))
		release := make(chan struct{})
		var calls atomic.Int64

		loader := func(context.Context) (string, error) {
			calls.Add(1)
			<-release
			return "value", nil
		}

		var g errgroup.Group
		results := make([]string, 16)
		for i := range results {
			g.Go(func() error {
				v, err := sh.Get(context.Background(), "k", loader)
				results[i] = v
				return err
			})
		}

		// Let every caller reach the flight before the loader returns.
		require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(20 * time.Millisecond)
		close(release)

		require.NoError(t, g.Wait())
		require.Equal(t, int64(1), calls.Load())
		for _, v := range results {
			require.Equal(t, "value", v)
		}

		v, ok := sh.Store().Get("k")
		require.True(t, ok)
		require.Equal(t, "value", v)
	})

	t.Run("cached values skip the loader", func(t *testing.T) {
		t.Parallel()

		store := cache.NewStore[int](cache.Settings{})
		store.Put("k", 7, 0)
		sh := cache.NewShared(store)

		v, err := sh.Get(context.Background(), "k", func(context.Context) (int, error) {
			t.Fatal("loader must not run")
			return 0, nil
		})
		require.NoError(t, err)
		require.Equal(t, 7, v)
	})

	t.Run("errors are not cached", func(t *testing.T) {
		t.Parallel()

		sh := cache.NewShared(cache.NewStore[int](cache.Settings{}))
		errBoom := errors.New("boom")

		_, err := sh.Get(context.Background(), "k", func(context.Context) (int, error) { return 0, errBoom })
		require.ErrorIs(t, err, errBoom)
		require.Zero(t, sh.Store().Len())

		v, err := sh.Get(context.Background(), "k", func(context.Context) (int, error) { return 3, nil })
		require.NoError(t, err)
		require.Equal(t, 3, v)
	})

	t.Run("nil interface values", func(t *testing.T) {
		t.Parallel()

		sh := cache.NewShared(cache.NewStore[error](cache.Settings{}))
		v, err := sh.Get(context.Background(), "k", func(context.Context) (error, error) { return nil, nil })
		require.NoError(t, err)
		require.Nil(t, v)

		sh.Forget("k")
		require.Equal(t, 1, sh.Store().Len())
	})
}
