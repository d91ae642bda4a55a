// Package logger builds slog loggers with context extraction and optional
// Sentry reporting.
//
//	log := logger.New(
//		logger.WithCacheAttrs(),
//		logger.WithSentry(os.Getenv("SENTRY_DSN"), "production", slog.LevelWarn),
//	)
//
// A ContextExtractor turns a context into one attribute and runs on every
// record, so values attached to the context right before a call are
// picked up. [WithCacheAttrs] installs cache.LogAttr: a loader that logs
// with its context gets a "cache" group carrying the store and key of the
// call it is computing.
//
// With a Sentry DSN, records go to both the local output and Sentry.
// An empty DSN or a failed SDK init falls back to local output only.
//
// [FromConfig] builds the same logger from a [Config] parsed with
// caarlos0/env.
package logger
