package cachereport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/cachekit/pkg/cache"
)

const defaultRedisPrefix = "cachekit:stats:"

// Hash fields written by RedisSink.
const (
	fieldHits          = "hits"
	fieldMisses        = "misses"
	fieldLoads         = "loads"
	fieldTotalLoadTime = "total_load_time_ns"
	fieldEvictions     = "evictions"
	fieldUpdatedAt     = "updated_at"
)

// RedisOption configures a RedisSink.
type RedisOption func(*RedisSink)

// WithPrefix sets the key prefix. Default: "cachekit:stats:"
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisSink) {
		s.prefix = prefix
	}
}

// WithExpiration expires store hashes d after their last update.
// Default: 0 (never).
func WithExpiration(d time.Duration) RedisOption {
	return func(s *RedisSink) {
		s.expiration = d
	}
}

// RedisSink accumulates window deltas into one Redis hash per store, so
// several processes reporting the same store add up.
type RedisSink struct {
	client     redis.UniversalClient
	prefix     string
	expiration time.Duration
}

// NewRedisSink creates a sink writing through client.
func NewRedisSink(client redis.UniversalClient, opts ...RedisOption) *RedisSink {
	s := &RedisSink{client: client, prefix: defaultRedisPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report implements Sink. All stores of a window are written in one
// transaction; idle stores are skipped.
func (s *RedisSink) Report(ctx context.Context, w Window) error {
	active := w.Active()
	if len(active) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, name := range active {
			d := w.Deltas[name]
			key := s.prefix + name
			pipe.HIncrBy(ctx, key, fieldHits, d.Hits)
			pipe.HIncrBy(ctx, key, fieldMisses, d.Misses)
			pipe.HIncrBy(ctx, key, fieldLoads, d.Loads)
			pipe.HIncrBy(ctx, key, fieldTotalLoadTime, int64(d.TotalLoadTime))
			pipe.HIncrBy(ctx, key, fieldEvictions, d.Evictions)
			pipe.HSet(ctx, key, fieldUpdatedAt, w.End.UTC().Format(time.RFC3339))
			if s.expiration > 0 {
				pipe.Expire(ctx, key, s.expiration)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis sink: %w", err)
	}
	return nil
}

// Read returns the accumulated counters of store name.
// A store that was never reported yields zero Stats.
func (s *RedisSink) Read(ctx context.Context, name string) (cache.Stats, error) {
	fields, err := s.client.HGetAll(ctx, s.prefix+name).Result()
	if err != nil {
		return cache.Stats{}, fmt.Errorf("redis sink: %w", err)
	}

	var (
		st   cache.Stats
		errs []error
	)
	parse := func(field string, dst *int64) {
		raw, ok := fields[field]
		if !ok {
			return
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("field %s: %w", field, err))
			return
		}
		*dst = n
	}

	var loadTime int64
	parse(fieldHits, &st.Hits)
	parse(fieldMisses, &st.Misses)
	parse(fieldLoads, &st.Loads)
	parse(fieldTotalLoadTime, &loadTime)
	parse(fieldEvictions, &st.Evictions)
	st.TotalLoadTime = time.Duration(loadTime)

	if err := errors.Join(errs...); err != nil {
		return cache.Stats{}, fmt.Errorf("redis sink: %w", err)
	}
	return st, nil
}

// DialRedis creates a Redis client for url and pings it, retrying with a
// linear backoff. Supports redis:// and rediss:// (TLS) URLs.
//
//	client, err := cachereport.DialRedis(ctx, os.Getenv("REDIS_URL"), 3, time.Second)
func DialRedis(ctx context.Context, url string, attempts int, interval time.Duration) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrEmptyRedisURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrInvalidRedisURL
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidRedisURL, err)
	}

	attempts = max(attempts, 1)
	var lastErr error
	for i := range attempts {
		client := redis.NewClient(opts)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()

		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrRedisConnect, ctx.Err())
		case <-time.After(time.Duration(i+1) * interval):
		}
	}

	return nil, errors.Join(ErrRedisConnect, lastErr)
}
