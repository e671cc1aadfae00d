package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrMissingSelection marks a fetch skipped because no league or season
	// is selected yet. It is a normal state, never shown to the viewer.
	ErrMissingSelection = errors.New("league or season not selected")
)
