package cachereport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

const (
	defaultSchedule = "@every 1m"
	defaultTimeout  = 10 * time.Second
)

// Option configures a Reporter.
type Option func(*Reporter)

// WithSchedule sets the flush schedule: a 5-field cron expression or a
// descriptor such as "@hourly" or "@every 30s".
// Default: "@every 1m"
func WithSchedule(expr string) Option {
	return func(r *Reporter) {
		r.schedule = expr
	}
}

// WithSinks adds sinks that receive every window.
func WithSinks(sinks ...Sink) Option {
	return func(r *Reporter) {
		r.sinks = append(r.sinks, sinks...)
	}
}

// WithLogger sets the logger for scheduled flush failures.
// Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reporter) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock sets the time source for window bounds.
// Default: time.Now
func WithClock(now func() time.Time) Option {
	return func(r *Reporter) {
		if now != nil {
			r.clock = now
		}
	}
}

// WithTimeout bounds each scheduled flush.
// Default: 10 seconds
func WithTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// Reporter periodically turns cumulative store counters into windows and
// hands them to sinks.
type Reporter struct {
	source   Source
	clock    func() time.Time
	logger   *slog.Logger
	cron     *cron.Cron
	prev     map[string]cache.Stats
	prevAt   time.Time
	schedule string
	sinks    []Sink
	timeout  time.Duration

	flushMu sync.Mutex // serializes flushes
	mu      sync.Mutex // guards cron and started
	started bool
}

// NewReporter creates a reporter over src. The first window starts now.
func NewReporter(src Source, opts ...Option) (*Reporter, error) {
	r := &Reporter{
		source:   src,
		clock:    time.Now,
		logger:   slog.New(slog.DiscardHandler),
		schedule: defaultSchedule,
		timeout:  defaultTimeout,
		prev:     map[string]cache.Stats{},
	}
	for _, opt := range opts {
		opt(r)
	}

	sched, err := parseSchedule(r.schedule)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidSchedule, r.schedule, err)
	}

	r.prevAt = r.clock()
	r.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	r.cron.Schedule(sched, cron.FuncJob(r.tick))

	return r, nil
}

// Flush closes the current window and reports it to every sink
// concurrently. Sink failures are joined under ErrSinkFailed; the window
// is not replayed.
func (r *Reporter) Flush(ctx context.Context) (Window, error) {
	r.flushMu.Lock()
	now := r.clock()
	totals := r.source.Snapshot()
	w := newWindow(r.prevAt, now, r.prev, totals)
	r.prev, r.prevAt = totals, now
	r.flushMu.Unlock()

	errs := make([]error, len(r.sinks))
	var g errgroup.Group
	for i, sink := range r.sinks {
		g.Go(func() error {
			errs[i] = sink.Report(ctx, w)
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return w, fmt.Errorf("%w: %w", ErrSinkFailed, err)
	}
	return w, nil
}

// Start begins scheduled flushing.
func (r *Reporter) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}
	r.cron.Start()
	r.started = true

	r.logger.Info("cache reporter started",
		slog.String("schedule", r.schedule),
		slog.Int("sinks", len(r.sinks)),
	)
	return nil
}

// Stop halts the schedule, waits for a running flush and reports the final
// partial window. Stopping a reporter that was never started is a no-op.
func (r *Reporter) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = false
	r.mu.Unlock()

	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
		return ctx.Err()
	}

	_, err := r.Flush(ctx)
	return err
}

// Shutdown returns a function that stops the reporter, for shutdown hooks.
func (r *Reporter) Shutdown() func(context.Context) error {
	return r.Stop
}

func (r *Reporter) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	w, err := r.Flush(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "cache report failed",
			slog.String("window", w.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func parseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	return parser.Parse(expr)
}
