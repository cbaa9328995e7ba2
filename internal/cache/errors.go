package cache

import "errors"

var (
	// ErrCacheMiss is returned when a key is absent or its TTL has elapsed
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrCacheUnavailable is returned when the backend cannot be reached
	ErrCacheUnavailable = errors.New("cache: backend unavailable")

	// ErrInvalidValue is returned when a stored value cannot be encoded or decoded
	ErrInvalidValue = errors.New("cache: invalid value")
)
