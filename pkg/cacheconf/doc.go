// Package cacheconf resolves cache settings from environment variables and
// YAML files.
//
// A single cache is configured from the environment with [FromEnv]:
//
//	cfg, err := cacheconf.FromEnv("INVOICE_CACHE_")
//	// INVOICE_CACHE_TTL=5m INVOICE_CACHE_MAX_ENTRIES=500 INVOICE_CACHE_EVICTION=lru
//	settings, err := cfg.Settings()
//
// Many caches are configured from one file with [LoadFile]. Named entries
// override the shared defaults field by field:
//
//	defaults:
//	  ttl: 10m
//	  eviction: cost-weighted
//	caches:
//	  billing.Service.Invoice:
//	    max_entries: 500
//	  billing.Service.Rates:
//	    scope: singleton
//	    ttl: 1h
//
// Cache names are registry method ids, so [File.Methods] yields
// [cache.Method] values ready for [cache.Invoke].
package cacheconf
