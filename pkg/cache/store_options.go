package cache

import "time"

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	clock           func() time.Time
	parent          *recorder
	cleanupInterval time.Duration
}

func defaultStoreOptions() *storeOptions {
	return &storeOptions{
		clock:           time.Now,
		cleanupInterval: 0, // 0 = expired entries are only dropped on read or Sweep
	}
}

// WithClock sets the time source used for entry creation and expiry checks.
// Default: time.Now.
func WithClock(clock func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithCleanupInterval starts a background sweeper that removes expired
// and reclaimed entries at the given interval. Call Close to stop it.
// Default: 0 (disabled).
func WithCleanupInterval(d time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.cleanupInterval = d
	}
}

// withParentStats forwards every counter update to an aggregate recorder.
func withParentStats(r *recorder) StoreOption {
	return func(o *storeOptions) {
		o.parent = r
	}
}
