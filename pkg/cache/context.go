package cache

import (
	"context"
	"log/slog"
)

type callInfoKey struct{}

// CallInfo identifies the cached call a loader is running for.
type CallInfo struct {
	Store string // e.g. "billing.Service.Invoice"
	Key   string
}

// WithCallInfo returns a context carrying info.
func WithCallInfo(ctx context.Context, info CallInfo) context.Context {
	return context.WithValue(ctx, callInfoKey{}, info)
}

// CallInfoFromContext returns the CallInfo set by Invoke, if any.
func CallInfoFromContext(ctx context.Context) (CallInfo, bool) {
	info, ok := ctx.Value(callInfoKey{}).(CallInfo)
	return info, ok
}

// LogAttr extracts a "cache" log group from ctx. Its signature matches
// logger.ContextExtractor, so loaders that log with their context get the
// store and key attached.
func LogAttr(ctx context.Context) (slog.Attr, bool) {
	info, ok := CallInfoFromContext(ctx)
	if !ok {
		return slog.Attr{}, false
	}
	return slog.Group("cache",
		slog.String("store", info.Store),
		slog.String("key", info.Key),
	), true
}
