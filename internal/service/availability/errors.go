package availability

import "errors"

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrInvalidRange  = errors.New("invalid time range")
)
