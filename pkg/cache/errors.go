package cache

import "errors"

var (
	// ErrMiss is returned when a report is in neither tier
	ErrMiss = errors.New("cache miss")

	// ErrCorrupt is returned when an L2 entry cannot be decoded. The entry
	// has already been deleted.
	ErrCorrupt = errors.New("corrupt cache entry")
)
