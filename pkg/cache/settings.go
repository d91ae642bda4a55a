package cache

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Scope decides who shares a store.
type Scope int

const (
	// PerInstance keeps one store per owning value (see Cacheable).
	PerInstance Scope = iota

	// Singleton keeps one store per owning type, shared by all its values.
	Singleton
)

// String returns the identifier accepted by ParseScope.
func (s Scope) String() string {
	switch s {
	case PerInstance:
		return "instance"
	case Singleton:
		return "singleton"
	default:
		return fmt.Sprintf("scope(%d)", int(s))
	}
}

// ParseScope maps "instance" (or "per-instance") and "singleton" to a Scope.
func ParseScope(s string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "instance", "per-instance", "perinstance":
		return PerInstance, nil
	case "singleton":
		return Singleton, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownScope, s)
	}
}

// Settings is the resolved, immutable configuration of one cached operation.
// Build it with NewSettings; the zero value is an unbounded, never-expiring,
// cost-weighted, per-instance cache.
type Settings struct {
	strategy   EvictionStrategy
	ttl        time.Duration
	maxEntries int
	eviction   Eviction
	scope      Scope
	softValues bool
}

// SettingsOption configures Settings.
type SettingsOption func(*Settings)

// WithTTL sets how long results stay valid. Zero means they never expire.
func WithTTL(d time.Duration) SettingsOption {
	return func(s *Settings) {
		s.ttl = d
	}
}

// WithMaxEntries caps the number of cached results. Zero means unbounded.
func WithMaxEntries(n int) SettingsOption {
	return func(s *Settings) {
		s.maxEntries = n
	}
}

// WithEviction selects a built-in eviction strategy.
// Default: CostWeighted.
func WithEviction(e Eviction) SettingsOption {
	return func(s *Settings) {
		s.eviction = e
		s.strategy = nil
	}
}

// WithEvictionStrategy installs a caller-supplied strategy.
func WithEvictionStrategy(strategy EvictionStrategy) SettingsOption {
	return func(s *Settings) {
		s.eviction = Custom
		s.strategy = strategy
	}
}

// WithSoftValues holds results through reclaimable references.
// The store keeps only a weak pointer to its own copy of each result, so
// any garbage collection may clear an entry, including pointer results
// whose target is still in use elsewhere. Nil results are held strongly.
func WithSoftValues(soft bool) SettingsOption {
	return func(s *Settings) {
		s.softValues = soft
	}
}

// WithScope sets who shares the store.
// Default: PerInstance.
func WithScope(scope Scope) SettingsOption {
	return func(s *Settings) {
		s.scope = scope
	}
}

// NewSettings builds and validates Settings. Invalid values are rejected,
// never clamped.
func NewSettings(opts ...SettingsOption) (Settings, error) {
	var s Settings
	for _, opt := range opts {
		opt(&s)
	}

	var errs []error
	if s.ttl < 0 {
		errs = append(errs, fmt.Errorf("%w: negative ttl %s", ErrInvalidSettings, s.ttl))
	}
	if s.maxEntries < 0 {
		errs = append(errs, fmt.Errorf("%w: negative max entries %d", ErrInvalidSettings, s.maxEntries))
	}
	if s.scope != PerInstance && s.scope != Singleton {
		errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownScope, s.scope))
	}

	if s.eviction == Custom {
		if s.strategy == nil {
			errs = append(errs, fmt.Errorf("%w: custom eviction without a strategy", ErrUnknownEviction))
		}
	} else {
		strategy, err := s.eviction.Strategy()
		if err != nil {
			errs = append(errs, err)
		}
		s.strategy = strategy
	}

	if err := errors.Join(errs...); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// MustSettings is like NewSettings but panics on invalid configuration.
// Use it for package-level method declarations.
func MustSettings(opts ...SettingsOption) Settings {
	s, err := NewSettings(opts...)
	if err != nil {
		panic(err)
	}
	return s
}

// TTL returns the time-to-live; zero means never expire.
func (s Settings) TTL() time.Duration { return s.ttl }

// MaxEntries returns the entry limit; zero means unbounded.
func (s Settings) MaxEntries() int { return s.maxEntries }

// Eviction returns the eviction identifier.
func (s Settings) Eviction() Eviction { return s.eviction }

// SoftValues reports whether results are held through reclaimable references.
func (s Settings) SoftValues() bool { return s.softValues }

// Scope returns who shares the store.
func (s Settings) Scope() Scope { return s.scope }

// Strategy returns the eviction strategy.
func (s Settings) Strategy() EvictionStrategy {
	if s.strategy == nil {
		return StrategyFunc(selectCostWeighted)
	}
	return s.strategy
}
