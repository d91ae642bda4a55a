// Package cache memoizes method results in bounded, in-process stores.
//
// A [Store] maps string keys to [Entry] values. Entries record when they
// were created, how long the original computation took and how often they
// were read. Stores enforce an optional TTL and an optional entry limit;
// when a put pushes the store over its limit, victims are chosen by an
// [EvictionStrategy] selected through [Settings]:
//
//   - [CostWeighted] (default) evicts the lowest use count × compute cost first
//   - [LRU] evicts the oldest inserted entry first
//   - [LFU] evicts the least used entry first
//   - [Custom] delegates to a user [EvictionStrategy]
//
// The entry just inserted is never its own victim.
//
// # Stores
//
//	s := cache.NewStore[User](cache.MustSettings(
//	    cache.WithTTL(5*time.Minute),
//	    cache.WithMaxEntries(10_000),
//	), cache.WithCleanupInterval(time.Minute))
//	defer s.Close()
//
//	u, err := s.ComputeIfAbsent(ctx, "user:42", func(ctx context.Context) (User, error) {
//	    return repo.FindUser(ctx, 42)
//	})
//
// ComputeIfAbsent does not deduplicate concurrent misses: every caller
// that misses runs its loader and the last put wins. Wrap the store in
// [Shared] when a loader must run once per key.
//
// # Cached methods
//
// A [Registry] ties stores to methods. Per-instance methods keep their
// stores in a [Data] embedded in the receiver; singleton methods share one
// store per receiver type. Keys come from a [KeyProvider] ([DefaultKeys]
// unless replaced) over the method's arguments:
//
//	type Billing struct {
//	    cache.Data
//	    reg *cache.Registry
//	}
//
//	var invoiceMethod = cache.Method{
//	    Name:     "Invoice",
//	    Settings: cache.MustSettings(cache.WithMaxEntries(500)),
//	}
//
//	func (b *Billing) Invoice(ctx context.Context, id int64) (Invoice, error) {
//	    return cache.Invoke(ctx, b.reg, b, invoiceMethod, []any{id}, func(ctx context.Context) (Invoice, error) {
//	        return b.load(ctx, id)
//	    })
//	}
//
// # Statistics
//
// Every store counts hits, misses, loads, total load time and evictions.
// [Stats] snapshots are immutable values that can be added and
// subtracted; [Registry.Snapshot] returns method-wide totals across all
// instances.
//
// # Errors
//
//   - [ErrInvalidSettings] negative TTL or entry limit
//   - [ErrUnknownEviction] unknown policy, or Custom without a strategy
//   - [ErrUnknownScope] unknown scope
//   - [ErrUnstableKey] an argument has no stable key representation
//   - [ErrNotCacheable] per-instance method on a receiver without [Data]
//   - [ErrStoreType] one method resolved with two value types
//
// Loader errors are returned unchanged and never cached.
package cache
