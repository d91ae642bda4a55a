// Package cachereport turns cumulative cache counters into reporting
// windows and publishes them.
//
// A [Reporter] snapshots a [Source] (usually a *cache.Registry) on a cron
// schedule, subtracts the previous snapshot and hands the resulting
// [Window] to every [Sink] concurrently:
//
//	rep, err := cachereport.NewReporter(registry,
//	    cachereport.WithSchedule("@every 30s"),
//	    cachereport.WithSinks(
//	        cachereport.NewLogSink(logger),
//	        cachereport.NewRedisSink(client),
//	    ),
//	)
//	if err := rep.Start(); err != nil { ... }
//	defer rep.Stop(ctx)
//
// [LogSink] writes one structured record per active store. [RedisSink]
// adds deltas to one hash per store with HINCRBY, so processes sharing a
// Redis instance aggregate their counters.
//
// [Handler] exposes current counters over HTTP:
//
//	r.Mount("/debug/cache", cachereport.Handler(registry))
package cachereport
