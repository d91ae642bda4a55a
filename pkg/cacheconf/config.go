package cacheconf

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

// Config holds the settings of one cache.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	// Zero means entries never expire.
	TTL time.Duration `env:"TTL" envDefault:"0s" yaml:"ttl"`

	// Zero means unbounded.
	MaxEntries int `env:"MAX_ENTRIES" envDefault:"0" yaml:"max_entries"`

	// One of cost-weighted, lru, lfu.
	Eviction string `env:"EVICTION" envDefault:"cost-weighted" yaml:"eviction"`

	// One of instance, singleton.
	Scope string `env:"SCOPE" envDefault:"instance" yaml:"scope"`

	SoftValues bool `env:"SOFT_VALUES" envDefault:"false" yaml:"soft_values"`
}

// Default returns the configuration of an unbounded, non-expiring,
// cost-weighted per-instance cache.
func Default() Config {
	return Config{
		Eviction: cache.CostWeighted.String(),
		Scope:    cache.PerInstance.String(),
	}
}

// FromEnv parses a Config from environment variables named prefix+FIELD,
// e.g. FromEnv("INVOICE_CACHE_") reads INVOICE_CACHE_TTL.
func FromEnv(prefix string) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](env.Options{Prefix: prefix})
	if err != nil {
		return Config{}, errors.Join(ErrParseConfig, err)
	}
	return cfg, nil
}

// Settings converts c into validated cache settings.
func (c Config) Settings() (cache.Settings, error) {
	eviction, evErr := cache.ParseEviction(c.Eviction)
	scope, scErr := cache.ParseScope(c.Scope)
	if err := errors.Join(evErr, scErr); err != nil {
		return cache.Settings{}, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}

	s, err := cache.NewSettings(
		cache.WithTTL(c.TTL),
		cache.WithMaxEntries(c.MaxEntries),
		cache.WithEviction(eviction),
		cache.WithScope(scope),
		cache.WithSoftValues(c.SoftValues),
	)
	if err != nil {
		return cache.Settings{}, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}
	return s, nil
}
