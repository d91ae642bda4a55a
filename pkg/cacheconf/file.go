package cacheconf

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

// Overrides is a partial Config; nil fields inherit.
type Overrides struct {
	TTL        *time.Duration `yaml:"ttl"`
	MaxEntries *int           `yaml:"max_entries"`
	Eviction   *string        `yaml:"eviction"`
	Scope      *string        `yaml:"scope"`
	SoftValues *bool          `yaml:"soft_values"`
}

func (o Overrides) apply(c Config) Config {
	if o.TTL != nil {
		c.TTL = *o.TTL
	}
	if o.MaxEntries != nil {
		c.MaxEntries = *o.MaxEntries
	}
	if o.Eviction != nil {
		c.Eviction = *o.Eviction
	}
	if o.Scope != nil {
		c.Scope = *o.Scope
	}
	if o.SoftValues != nil {
		c.SoftValues = *o.SoftValues
	}
	return c
}

// File is a parsed cache configuration file.
type File struct {
	Caches   map[string]Overrides `yaml:"caches"`
	Defaults Overrides            `yaml:"defaults"`
}

// LoadFile reads and validates the YAML file at path.
func LoadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}
	defer f.Close()

	return Load(f)
}

// Load parses and validates YAML from r. Unknown fields are rejected and
// every cache must resolve to valid settings. An empty document yields an
// empty File.
func Load(r io.Reader) (*File, error) {
	var file File

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrParseConfig, err)
	}

	var errs []error
	for _, name := range file.Names() {
		if _, err := file.Settings(name); err != nil {
			errs = append(errs, fmt.Errorf("cache %q: %w", name, err))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &file, nil
}

// Names returns the configured cache names, sorted.
func (f *File) Names() []string {
	return slices.Sorted(maps.Keys(f.Caches))
}

// Config resolves name: Default, then the file defaults, then the entry.
func (f *File) Config(name string) (Config, error) {
	o, ok := f.Caches[name]
	if !ok {
		return Config{}, fmt.Errorf("%w: %s", ErrUnknownCache, name)
	}
	return o.apply(f.Defaults.apply(Default())), nil
}

// Settings resolves name into validated cache settings.
func (f *File) Settings(name string) (cache.Settings, error) {
	cfg, err := f.Config(name)
	if err != nil {
		return cache.Settings{}, err
	}
	return cfg.Settings()
}

// Methods returns a cache.Method for every configured cache, keyed by cache
// name. The method name is the last dot-separated segment of the cache
// name, so "billing.Service.Invoice" yields Method{Name: "Invoice"}.
func (f *File) Methods() (map[string]cache.Method, error) {
	out := make(map[string]cache.Method, len(f.Caches))
	for _, name := range f.Names() {
		s, err := f.Settings(name)
		if err != nil {
			return nil, fmt.Errorf("cache %q: %w", name, err)
		}
		method := name
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			method = name[i+1:]
		}
		out[name] = cache.Method{Name: method, Settings: s}
	}
	return out, nil
}
