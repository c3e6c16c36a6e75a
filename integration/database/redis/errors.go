package redis

import "errors"

var (
	ErrEmptyURL   = errors.New("redis: no connection url configured")
	ErrInvalidURL = errors.New("redis: invalid connection url")
	ErrNotReady   = errors.New("redis: server not ready before deadline")
	ErrUnhealthy  = errors.New("redis: ping failed")
)
