package cachereport

import (
	"context"
	"log/slog"
)

// LogSink writes one record per active store and window.
type LogSink struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogSink logs windows to logger at Info level.
func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger, level: slog.LevelInfo}
}

// WithLevel returns a copy of s logging at level.
func (s *LogSink) WithLevel(level slog.Level) *LogSink {
	return &LogSink{logger: s.logger, level: level}
}

// Report implements Sink. Idle stores are skipped.
func (s *LogSink) Report(ctx context.Context, w Window) error {
	for _, name := range w.Active() {
		d := w.Deltas[name]
		s.logger.LogAttrs(ctx, s.level, "cache stats",
			slog.String("window", w.ID.String()),
			slog.String("store", name),
			slog.Duration("period", w.End.Sub(w.Start)),
			slog.Int64("hits", d.Hits),
			slog.Int64("misses", d.Misses),
			slog.Int64("loads", d.Loads),
			slog.Int64("evictions", d.Evictions),
			slog.String("hit_rate", d.HitRatePercent()),
			slog.Duration("avg_load_time", d.AverageLoadTime()),
		)
	}
	return nil
}
