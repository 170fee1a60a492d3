package locations

import "errors"

var (
	ErrLocationNotFound = errors.New("location not found")
	ErrLocationInactive = errors.New("location is not active")
	ErrInvalidRate      = errors.New("hourly rate must be positive")
)
