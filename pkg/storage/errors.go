package storage

import "errors"

var (
	// ErrClosed is returned by operations on a closed store.
	ErrClosed = errors.New("storage: store is closed")

	// ErrUnsupportedDriver is returned for an unknown database driver name.
	ErrUnsupportedDriver = errors.New("storage: unsupported driver")
)
