package cachereport_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekit/pkg/cache"
	"github.com/dmitrymomot/cachekit/pkg/cachereport"
)

func fixedSource() cachereport.Source {
	return cachereport.SourceFunc(func() map[string]cache.Stats {
		return map[string]cache.Stats{
			"billing.Service.Invoice": {Hits: 3, Misses: 1, Loads: 1, TotalLoadTime: 40 * time.Millisecond},
			"billing.Service.Rates":   {Misses: 2, Loads: 2},
		}
	})
}

func TestHandler(t *testing.T) {
	t.Parallel()

	h := cachereport.Handler(fixedSource())

	t.Run("all stores as json", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/?format=json", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var out map[string]cachereport.StoreReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Len(t, out, 2)

		invoice := out["billing.Service.Invoice"]
		require.Equal(t, int64(3), invoice.Hits)
		require.Equal(t, int64(4), invoice.RequestCount)
		require.InDelta(t, 0.75, invoice.HitRate, 1e-9)
		require.Equal(t, 40*time.Millisecond, invoice.AverageLoadTime)
	})

	t.Run("all stores as text", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := rec.Body.String()
		require.Contains(t, body, "[billing.Service.Invoice]\n")
		require.Contains(t, body, "[billing.Service.Rates]\n")
		require.Contains(t, body, "hitCount = 3\n")
	})

	t.Run("one store", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/billing.Service.Rates", nil)
		req.Header.Set("Accept", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var out cachereport.StoreReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		require.Equal(t, int64(2), out.Misses)
		require.InDelta(t, 1.0, out.MissRate, 1e-9)
	})

	t.Run("unknown store", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/billing.Service.Missing", nil))
		require.Equal(t, http.StatusNotFound, rec.Code)

		req := httptest.NewRequest(http.MethodGet, "/billing.Service.Missing?format=json", nil)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "unknown cache billing.Service.Missing")
	})
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	sink := cachereport.NewLogSink(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	rep, err := cachereport.NewReporter(fixedSource(), cachereport.WithSinks(sink.WithLevel(slog.LevelDebug)))
	require.NoError(t, err)

	_, err = rep.Flush(context.Background())
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "level=DEBUG")
	require.Contains(t, out, "store=billing.Service.Invoice")
	require.Contains(t, out, "hits=3")
	require.Contains(t, out, "hit_rate=75.00%")
	require.Contains(t, out, "store=billing.Service.Rates")

	// A second window has no activity and logs nothing.
	buf.Reset()
	_, err = rep.Flush(context.Background())
	require.NoError(t, err)
	require.Empty(t, buf.String())
}
