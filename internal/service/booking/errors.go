package booking

import "errors"

var (
	ErrConflict          = errors.New("slot already booked")
	ErrCapacityExceeded  = errors.New("participants exceed venue capacity")
	ErrInvalidRange      = errors.New("invalid booking range")
	ErrOutsideHours      = errors.New("range outside venue opening hours")
	ErrVenueUnavailable  = errors.New("venue is not accepting bookings")
	ErrVenueNotFound     = errors.New("venue not found")
	ErrBookingNotFound   = errors.New("booking not found")
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrForbidden         = errors.New("forbidden")
	ErrRateLimited       = errors.New("rate limited")
)
