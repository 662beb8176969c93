package cache

import "errors"

var (
	// ErrNotFound for cache fetches that return a nil value.
	ErrNotFound = errors.New("not found in cache")
	// ErrCastingFailed is returned when a cache value is not of the expected type.
	ErrCastingFailed = errors.New("unable to cast between types")
	// ErrNilCheckpoint is returned when a nil checkpoint is used as a cache key.
	ErrNilCheckpoint = errors.New("nil checkpoint")
)
