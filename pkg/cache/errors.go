package cache

import "errors"

// Sentinel errors for cache configuration and lookups.
var (
	// ErrInvalidSettings is returned when settings carry a negative TTL or entry limit.
	ErrInvalidSettings = errors.New("cache: invalid settings")

	// ErrUnknownEviction is returned for an eviction identifier that maps to no strategy.
	ErrUnknownEviction = errors.New("cache: unknown eviction strategy")

	// ErrUnknownScope is returned for a scope identifier that is neither per-instance nor singleton.
	ErrUnknownScope = errors.New("cache: unknown scope")

	// ErrUnstableKey is returned when an argument has no stable value representation.
	ErrUnstableKey = errors.New("cache: argument cannot be rendered to a stable key")

	// ErrNotCacheable is returned when a per-instance cached call targets a value
	// that does not implement Cacheable.
	ErrNotCacheable = errors.New("cache: target does not implement Cacheable")

	// ErrStoreType is returned when a method is reused with a different result type.
	ErrStoreType = errors.New("cache: store value type mismatch")
)
