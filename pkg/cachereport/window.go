package cachereport

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

// Source yields cumulative per-store counters. *cache.Registry is a Source.
type Source interface {
	Snapshot() map[string]cache.Stats
}

// SourceFunc adapts a function to Source.
type SourceFunc func() map[string]cache.Stats

// Snapshot calls f.
func (f SourceFunc) Snapshot() map[string]cache.Stats { return f() }

// Window is the activity of every store between two flushes.
type Window struct {
	Start  time.Time              `json:"start"`
	End    time.Time              `json:"end"`
	Deltas map[string]cache.Stats `json:"deltas"`
	Totals map[string]cache.Stats `json:"totals"`
	ID     uuid.UUID              `json:"id"`
}

// Active returns the sorted names of stores with any activity in the window.
func (w Window) Active() []string {
	var names []string
	for name, d := range w.Deltas {
		if d != (cache.Stats{}) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Sink receives reporting windows.
type Sink interface {
	Report(ctx context.Context, w Window) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, w Window) error

// Report calls f.
func (f SinkFunc) Report(ctx context.Context, w Window) error { return f(ctx, w) }

// newWindow computes deltas of totals against prev. Stores missing from
// prev report their totals as deltas.
func newWindow(start, end time.Time, prev, totals map[string]cache.Stats) Window {
	deltas := make(map[string]cache.Stats, len(totals))
	for name, t := range totals {
		deltas[name] = t.Minus(prev[name])
	}
	return Window{
		ID:     uuid.New(),
		Start:  start,
		End:    end,
		Deltas: deltas,
		Totals: totals,
	}
}
