package cachereport

import "errors"

var (
	ErrSinkFailed      = errors.New("cachereport: sink failed")
	ErrAlreadyStarted  = errors.New("cachereport: reporter already started")
	ErrInvalidSchedule = errors.New("cachereport: invalid schedule")
	ErrEmptyRedisURL   = errors.New("cachereport: empty redis URL")
	ErrInvalidRedisURL = errors.New("cachereport: failed to parse redis URL")
	ErrRedisConnect    = errors.New("cachereport: failed to connect to redis")
)
