package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidFilterValue = errors.New("invalid filter value")
	ErrUnknownFilter      = errors.New("unknown filter")
	ErrUpstreamIntent     = errors.New("upstream intent failure")
	ErrLoad               = errors.New("load failed")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidConfig      = errors.New("invalid configuration")
)
