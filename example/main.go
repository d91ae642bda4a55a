// Command example serves a small product catalog whose slow lookups are
// memoized with cache, with stats reported to logs, Redis and HTTP.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/dmitrymomot/cachekit/pkg/cache"
	"github.com/dmitrymomot/cachekit/pkg/cacheconf"
	"github.com/dmitrymomot/cachekit/pkg/cachereport"
	"github.com/dmitrymomot/cachekit/pkg/logger"
)

type config struct {
	Log logger.Config

	Address         string        `env:"ADDRESS" envDefault:":8080"`
	CacheConfig     string        `env:"CACHE_CONFIG"`
	RedisURL        string        `env:"REDIS_URL"`
	ReportSchedule  string        `env:"CACHE_REPORT_SCHEDULE" envDefault:"@every 1m"`
	CleanupInterval time.Duration `env:"CACHE_CLEANUP_INTERVAL" envDefault:"1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

func main() {
	if err := run(); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := env.ParseAs[config]()
	if err != nil {
		return err
	}

	log, err := logger.FromConfig(cfg.Log, logger.WithCacheAttrs())
	if err != nil {
		return err
	}

	var file *cacheconf.File
	if cfg.CacheConfig != "" {
		if file, err = cacheconf.LoadFile(cfg.CacheConfig); err != nil {
			return err
		}
	}

	reg := cache.NewRegistry(
		cache.WithLogger(log),
		cache.WithStoreOptions(cache.WithCleanupInterval(cfg.CleanupInterval)),
	)

	cat, err := newCatalog(reg, log, file)
	if err != nil {
		return err
	}

	sinks := []cachereport.Sink{cachereport.NewLogSink(log)}
	hooks := []func(context.Context) error{
		closer(cat.Close),
		closer(reg.Close),
	}

	if cfg.RedisURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		client, err := cachereport.DialRedis(ctx, cfg.RedisURL, 3, time.Second)
		cancel()
		if err != nil {
			return err
		}
		sinks = append(sinks, cachereport.NewRedisSink(client, cachereport.WithExpiration(24*time.Hour)))
		hooks = append(hooks, closer(client.Close))
	}

	reporter, err := cachereport.NewReporter(reg,
		cachereport.WithSchedule(cfg.ReportSchedule),
		cachereport.WithSinks(sinks...),
		cachereport.WithLogger(log),
	)
	if err != nil {
		return err
	}
	if err := reporter.Start(); err != nil {
		return err
	}
	// The reporter flushes its last window before the stores close.
	hooks = append([]func(context.Context) error{reporter.Shutdown()}, hooks...)

	return serve(serverConfig{
		handler:         routes(cat, reg),
		address:         cfg.Address,
		logger:          log,
		shutdownTimeout: cfg.ShutdownTimeout,
		shutdownHooks:   hooks,
	})
}

func closer(fn func() error) func(context.Context) error {
	return func(context.Context) error { return fn() }
}
