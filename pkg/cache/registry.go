package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"
)

// Method declares a cached operation: its name and settings.
//
//	var invoiceMethod = cache.Method{
//	    Name:     "Invoice",
//	    Settings: cache.MustSettings(cache.WithTTL(time.Minute), cache.WithMaxEntries(500)),
//	}
type Method struct {
	Name     string
	Settings Settings
}

// Cacheable is implemented by values that own per-instance stores.
// Embedding Data in a struct is enough.
type Cacheable interface {
	CacheData() *Data
}

// Data holds the per-instance stores of one value.
// Embed it by value; it must not be copied after first use.
type Data struct {
	stores map[string]any
	mu     sync.Mutex
}

// CacheData returns d.
func (d *Data) CacheData() *Data { return d }

// Close stops the background sweepers of every store owned by d.
func (d *Data) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var errs []error
	for _, s := range d.stores {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// Registry owns singleton stores, method-wide stats and the key provider
// shared by cached calls.
type Registry struct {
	singletons map[string]any
	methods    map[string]*recorder
	keys       KeyProvider
	logger     *slog.Logger
	storeOpts  []StoreOption
	mu         sync.Mutex
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithKeyProvider replaces DefaultKeys.
func WithKeyProvider(p KeyProvider) RegistryOption {
	return func(r *Registry) {
		if p != nil {
			r.keys = p
		}
	}
}

// WithLogger sets the logger for store lifecycle and loader failures.
// Default: discard.
func WithLogger(l *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithStoreOptions applies opts to every store the registry creates.
func WithStoreOptions(opts ...StoreOption) RegistryOption {
	return func(r *Registry) {
		r.storeOpts = append(r.storeOpts, opts...)
	}
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		singletons: make(map[string]any),
		methods:    make(map[string]*recorder),
		keys:       DefaultKeys,
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Names returns the ids of every method seen so far, sorted.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Sorted(maps.Keys(r.methods))
}

// Stats returns the method-wide counters for id, summed over every store
// of that method (all instances for per-instance scope).
func (r *Registry) Stats(id string) (Stats, bool) {
	r.mu.Lock()
	rec, ok := r.methods[id]
	r.mu.Unlock()
	if !ok {
		return Stats{}, false
	}
	return rec.snapshot(), true
}

// Snapshot returns the method-wide counters of every method.
func (r *Registry) Snapshot() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stats, len(r.methods))
	for id, rec := range r.methods {
		out[id] = rec.snapshot()
	}
	return out
}

// Close stops the sweepers of all singleton stores.
// Per-instance stores are closed through their Data.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for _, s := range r.singletons {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

// MethodID returns the registry id of m on target, e.g. "billing.Service.Invoice".
func MethodID(target any, m Method) string {
	return TargetName(target) + "." + m.Name
}

// StoreFor resolves the store of m for target, creating it on first use.
// Singleton methods share one store per target type; per-instance methods
// keep theirs in target's Data. The settings of the first call win.
func StoreFor[V any](r *Registry, target any, m Method) (*Store[V], error) {
	id := MethodID(target, m)

	var (
		tbl *map[string]any
		mu  *sync.Mutex
	)
	switch m.Settings.Scope() {
	case Singleton:
		tbl, mu = &r.singletons, &r.mu
	case PerInstance:
		c, ok := target.(Cacheable)
		if !ok || isNil(target) {
			return nil, fmt.Errorf("%w: %s", ErrNotCacheable, id)
		}
		d := c.CacheData()
		if d == nil {
			return nil, fmt.Errorf("%w: %s has nil Data", ErrNotCacheable, id)
		}
		tbl, mu = &d.stores, &d.mu
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownScope, m.Settings.Scope())
	}

	parent := r.methodStats(id)

	mu.Lock()
	defer mu.Unlock()

	if *tbl == nil {
		*tbl = make(map[string]any)
	}
	if existing, ok := (*tbl)[id]; ok {
		s, ok := existing.(*Store[V])
		if !ok {
			return nil, fmt.Errorf("%w: %s holds %T", ErrStoreType, id, existing)
		}
		return s, nil
	}

	opts := append(slices.Clone(r.storeOpts), withParentStats(parent))
	s := NewStore[V](m.Settings, opts...)
	(*tbl)[id] = s

	r.logger.Debug("cache store created",
		slog.String("store", id),
		slog.String("scope", m.Settings.Scope().String()),
		slog.String("eviction", m.Settings.Eviction().String()),
		slog.Int("max_entries", m.Settings.MaxEntries()),
		slog.Duration("ttl", m.Settings.TTL()),
		slog.Bool("soft_values", m.Settings.SoftValues()),
	)

	return s, nil
}

// Invoke is the entry point for cached calls: it resolves the store,
// computes the key from args and delegates to ComputeIfAbsent.
// The loader's context carries CallInfo.
//
//	func (s *Service) Invoice(ctx context.Context, id int64) (Invoice, error) {
//	    return cache.Invoke(ctx, s.registry, s, invoiceMethod, []any{id}, func(ctx context.Context) (Invoice, error) {
//	        return s.repo.Invoice(ctx, id)
//	    })
//	}
func Invoke[V any](ctx context.Context, r *Registry, target any, m Method, args []any, load Loader[V]) (V, error) {
	var zero V

	s, err := StoreFor[V](r, target, m)
	if err != nil {
		return zero, err
	}

	key, err := r.keys.Key(Call{Target: TargetName(target), Method: m.Name, Args: args})
	if err != nil {
		return zero, err
	}

	ctx = WithCallInfo(ctx, CallInfo{Store: MethodID(target, m), Key: key})
	v, err := s.ComputeIfAbsent(ctx, key, load)
	if err != nil {
		r.logger.WarnContext(ctx, "cache loader failed",
			slog.String("store", MethodID(target, m)),
			slog.String("error", err.Error()),
		)
		return zero, err
	}
	return v, nil
}

func (r *Registry) methodStats(id string) *recorder {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.methods[id]
	if !ok {
		rec = &recorder{}
		r.methods[id] = rec
	}
	return rec
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
