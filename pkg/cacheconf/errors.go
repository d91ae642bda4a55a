package cacheconf

import "errors"

var (
	ErrReadConfig   = errors.New("cacheconf: failed to read config")
	ErrParseConfig  = errors.New("cacheconf: invalid config")
	ErrUnknownCache = errors.New("cacheconf: unknown cache")
)
