package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDepthExceeded     = errors.New("maximum inference depth exceeded")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrSolverUnavailable = errors.New("solver unavailable")
)
