package usecase

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoData marks a cold-start failure: the upstream fetch failed and no
	// previously cached entry exists to fall back on.
	ErrNoData                = errors.New("no data available")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
