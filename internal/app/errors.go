package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrCacheDisabled = errors.New("cache disabled")
	ErrInvalidLimit  = errors.New("invalid limit")
)
