package cacheconf_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/cachekit/pkg/cache"
	"github.com/dmitrymomot/cachekit/pkg/cacheconf"
)

const sample = `
defaults:
  ttl: 10m
  max_entries: 100
caches:
  billing.Service.Invoice:
    max_entries: 500
    eviction: lru
  billing.Service.Rates:
    scope: singleton
    ttl: 1h
    soft_values: true
  billing.Service.Plain: {}
`

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := cacheconf.FromEnv("EMPTY_CACHE_")
		require.NoError(t, err)
		require.Equal(t, cacheconf.Default(), cfg)

		s, err := cfg.Settings()
		require.NoError(t, err)
		require.Equal(t, cache.CostWeighted, s.Eviction())
		require.Equal(t, cache.PerInstance, s.Scope())
	})

	t.Run("reads prefixed variables", func(t *testing.T) {
		t.Setenv("INVOICE_CACHE_TTL", "5m")
		t.Setenv("INVOICE_CACHE_MAX_ENTRIES", "500")
		t.Setenv("INVOICE_CACHE_EVICTION", "lfu")
		t.Setenv("INVOICE_CACHE_SCOPE", "singleton")
		t.Setenv("INVOICE_CACHE_SOFT_VALUES", "true")

		cfg, err := cacheconf.FromEnv("INVOICE_CACHE_")
		require.NoError(t, err)

		s, err := cfg.Settings()
		require.NoError(t, err)
		require.Equal(t, 5*time.Minute, s.TTL())
		require.Equal(t, 500, s.MaxEntries())
		require.Equal(t, cache.LFU, s.Eviction())
		require.Equal(t, cache.Singleton, s.Scope())
		require.True(t, s.SoftValues())
	})

	t.Run("malformed values", func(t *testing.T) {
		t.Setenv("BAD_CACHE_TTL", "soon")

		_, err := cacheconf.FromEnv("BAD_CACHE_")
		require.ErrorIs(t, err, cacheconf.ErrParseConfig)
	})
}

func TestConfig_Settings(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		cfg  cacheconf.Config
		want error
	}{
		{name: "unknown eviction", cfg: cacheconf.Config{Eviction: "random"}, want: cache.ErrUnknownEviction},
		{name: "unknown scope", cfg: cacheconf.Config{Scope: "global"}, want: cache.ErrUnknownScope},
		{name: "negative ttl", cfg: cacheconf.Config{TTL: -time.Second}, want: cache.ErrInvalidSettings},
		{name: "negative max entries", cfg: cacheconf.Config{MaxEntries: -1}, want: cache.ErrInvalidSettings},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := tc.cfg.Settings()
			require.ErrorIs(t, err, cacheconf.ErrParseConfig)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("merges defaults", func(t *testing.T) {
		t.Parallel()

		f, err := cacheconf.Load(strings.NewReader(sample))
		require.NoError(t, err)
		require.Equal(t, []string{
			"billing.Service.Invoice",
			"billing.Service.Plain",
			"billing.Service.Rates",
		}, f.Names())

		invoice, err := f.Settings("billing.Service.Invoice")
		require.NoError(t, err)
		require.Equal(t, 10*time.Minute, invoice.TTL())
		require.Equal(t, 500, invoice.MaxEntries())
		require.Equal(t, cache.LRU, invoice.Eviction())
		require.Equal(t, cache.PerInstance, invoice.Scope())

		rates, err := f.Settings("billing.Service.Rates")
		require.NoError(t, err)
		require.Equal(t, time.Hour, rates.TTL())
		require.Equal(t, 100, rates.MaxEntries())
		require.Equal(t, cache.Singleton, rates.Scope())
		require.True(t, rates.SoftValues())

		plain, err := f.Config("billing.Service.Plain")
		require.NoError(t, err)
		require.Equal(t, cacheconf.Config{
			TTL:        10 * time.Minute,
			MaxEntries: 100,
			Eviction:   "cost-weighted",
			Scope:      "instance",
		}, plain)
	})

	t.Run("methods", func(t *testing.T) {
		t.Parallel()

		f, err := cacheconf.Load(strings.NewReader(sample))
		require.NoError(t, err)

		methods, err := f.Methods()
		require.NoError(t, err)
		require.Len(t, methods, 3)
		require.Equal(t, "Invoice", methods["billing.Service.Invoice"].Name)
		require.Equal(t, 500, methods["billing.Service.Invoice"].Settings.MaxEntries())
		require.Equal(t, "Rates", methods["billing.Service.Rates"].Name)
	})

	t.Run("unknown cache", func(t *testing.T) {
		t.Parallel()

		f, err := cacheconf.Load(strings.NewReader(sample))
		require.NoError(t, err)

		_, err = f.Settings("billing.Service.Missing")
		require.ErrorIs(t, err, cacheconf.ErrUnknownCache)
	})

	t.Run("empty document", func(t *testing.T) {
		t.Parallel()

		f, err := cacheconf.Load(strings.NewReader(""))
		require.NoError(t, err)
		require.Empty(t, f.Names())
	})

	t.Run("rejects unknown fields", func(t *testing.T) {
		t.Parallel()

		_, err := cacheconf.Load(strings.NewReader("caches:\n  a:\n    max_entry: 5\n"))
		require.ErrorIs(t, err, cacheconf.ErrParseConfig)
	})

	t.Run("rejects invalid caches", func(t *testing.T) {
		t.Parallel()

		_, err := cacheconf.Load(strings.NewReader("caches:\n  a:\n    eviction: random\n  b:\n    scope: global\n"))
		require.ErrorIs(t, err, cache.ErrUnknownEviction)
		require.ErrorIs(t, err, cache.ErrUnknownScope)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := cacheconf.Load(strings.NewReader("caches: [\n"))
		require.ErrorIs(t, err, cacheconf.ErrParseConfig)
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := cacheconf.LoadFile(path)
	require.NoError(t, err)
	require.Len(t, f.Names(), 3)

	_, err = cacheconf.LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, cacheconf.ErrReadConfig)
}
