package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

// Format selects the record encoding.
type Format int

const (
	JSON Format = iota
	Text
)

// ParseFormat parses "json" or "text", case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "text":
		return Text, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Config holds logger configuration.
// Embed this in your app config for env parsing with caarlos0/env.
type Config struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`

	// Empty disables Sentry.
	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	// Records at or above this level reach Sentry; errors also create issues.
	SentryLevel string `env:"SENTRY_LEVEL" envDefault:"warn"`
}

// Option configures New.
type Option func(*options)

type options struct {
	output     io.Writer
	level      slog.Leveler
	sentry     *sentryOptions
	extractors []ContextExtractor
	format     Format
}

// WithLevel sets the minimum level written to the output.
// Default: slog.LevelInfo
func WithLevel(level slog.Leveler) Option {
	return func(o *options) {
		if level != nil {
			o.level = level
		}
	}
}

// WithOutput sets the destination. Default: os.Stdout
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		if w != nil {
			o.output = w
		}
	}
}

// WithFormat sets the encoding. Default: JSON
func WithFormat(f Format) Option {
	return func(o *options) {
		o.format = f
	}
}

// WithExtractors adds context extractors applied to every record.
func WithExtractors(extractors ...ContextExtractor) Option {
	return func(o *options) {
		o.extractors = append(o.extractors, extractors...)
	}
}

// WithCacheAttrs attaches the cached call (store and key) to records
// logged with a loader's context.
func WithCacheAttrs() Option {
	return WithExtractors(cache.LogAttr)
}

// WithSentry also sends records at or above minLevel to Sentry.
// An empty dsn is ignored, so local setups can pass an unset variable.
func WithSentry(dsn, environment string, minLevel slog.Level) Option {
	return func(o *options) {
		if dsn == "" {
			o.sentry = nil
			return
		}
		o.sentry = &sentryOptions{dsn: dsn, environment: environment, minLevel: minLevel}
	}
}

// New creates a structured logger. Extractors apply to every destination.
//
//	log := logger.New(logger.WithCacheAttrs(), logger.WithLevel(slog.LevelDebug))
func New(opts ...Option) *slog.Logger {
	o := &options{output: os.Stdout, level: slog.LevelInfo}
	for _, opt := range opts {
		opt(o)
	}

	hopts := &slog.HandlerOptions{Level: o.level}
	var base slog.Handler
	switch o.format {
	case Text:
		base = slog.NewTextHandler(o.output, hopts)
	default:
		base = slog.NewJSONHandler(o.output, hopts)
	}

	handler := base
	if o.sentry != nil {
		if sh, err := o.sentry.handler(); err != nil {
			// Keep logging locally when Sentry cannot start.
			slog.New(base).Error("failed to initialize sentry", slog.String("error", err.Error()))
		} else {
			handler = fanout{base, sh}
		}
	}

	return slog.New(withExtractors(handler, o.extractors))
}

// FromConfig creates a logger from cfg. opts are applied after cfg.
func FromConfig(cfg Config, opts ...Option) (*slog.Logger, error) {
	level := slog.LevelInfo
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, cfg.Level)
		}
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}

	base := []Option{WithLevel(level), WithFormat(format)}
	if cfg.SentryDSN != "" {
		sentryLevel := slog.LevelWarn
		if cfg.SentryLevel != "" {
			if err := sentryLevel.UnmarshalText([]byte(cfg.SentryLevel)); err != nil {
				return nil, fmt.Errorf("%w: sentry %q", ErrInvalidLevel, cfg.SentryLevel)
			}
		}
		base = append(base, WithSentry(cfg.SentryDSN, cfg.SentryEnvironment, sentryLevel))
	}

	return New(append(base, opts...)...), nil
}

// NewNope creates a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
