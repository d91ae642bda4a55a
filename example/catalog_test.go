package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekit/pkg/cache"
	"github.com/dmitrymomot/cachekit/pkg/cacheconf"
	"github.com/dmitrymomot/cachekit/pkg/logger"
)

func newTestCatalog(t *testing.T, file *cacheconf.File) (*catalog, *cache.Registry) {
	t.Helper()

	reg := cache.NewRegistry()
	cat, err := newCatalog(reg, logger.NewNope(), file)
	require.NoError(t, err)
	cat.latency = time.Millisecond
	t.Cleanup(func() {
		_ = cat.Close()
		_ = reg.Close()
	})
	return cat, reg
}

func TestCatalog_CachesPrices(t *testing.T) {
	t.Parallel()

	cat, reg := newTestCatalog(t, nil)
	ctx := context.Background()

	for range 3 {
		q, err := cat.Price(ctx, "tea-001", "USD")
		require.NoError(t, err)
		require.InDelta(t, 13.5, q.Amount, 1e-9)
	}

	price, ok := reg.Stats("main.catalog.Price")
	require.True(t, ok)
	require.Equal(t, int64(2), price.Hits)
	require.Equal(t, int64(1), price.Loads)

	rates, ok := reg.Stats("main.catalog.Rates")
	require.True(t, ok)
	require.Equal(t, int64(1), rates.Loads)

	_, err := cat.Price(ctx, "nope", "EUR")
	require.ErrorIs(t, err, errUnknownProduct)
}

func TestCatalog_ConfigOverrides(t *testing.T) {
	t.Parallel()

	file, err := cacheconf.Load(strings.NewReader("caches:\n  main.catalog.Search:\n    max_entries: 1\n    eviction: lru\n"))
	require.NoError(t, err)

	cat, reg := newTestCatalog(t, file)
	ctx := context.Background()

	_, err = cat.Search(ctx, "tea")
	require.NoError(t, err)
	_, err = cat.Search(ctx, "coffee")
	require.NoError(t, err)

	s, err := cache.StoreFor[[]product](reg, cat, cat.method(searchMethod))
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.Equal(t, cache.LRU, s.Settings().Eviction())

	stats, _ := reg.Stats("main.catalog.Search")
	require.Equal(t, int64(1), stats.Evictions)
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	cat, reg := newTestCatalog(t, nil)
	h := routes(cat, reg)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prices/tea-002?currency=EUR", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var q priceQuote
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	require.InDelta(t, 9.9, q.Amount, 1e-9)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prices/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?q=tea", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var products []product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &products))
	require.Len(t, products, 2)
	require.Equal(t, "tea-001", products[0].SKU)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/cache/main.catalog.Price?format=json", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"misses":2`)
}
