package logger

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

type sentryOptions struct {
	dsn         string
	environment string
	minLevel    slog.Level
}

// handler initializes the Sentry SDK and returns a handler that stores
// records at or above minLevel as logs. Errors also create issues.
func (o *sentryOptions) handler() (slog.Handler, error) {
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         o.dsn,
		Environment: o.environment,
		EnableLogs:  true,
	}); err != nil {
		return nil, err
	}

	return sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   levelsFrom(o.minLevel),
	}.NewSentryHandler(context.Background()), nil
}

// levelsFrom lists the standard levels at or above floor.
func levelsFrom(floor slog.Level) []slog.Level {
	var out []slog.Level
	for _, l := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
		if l >= floor {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		out = []slog.Level{slog.LevelError}
	}
	return out
}
