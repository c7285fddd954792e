package catalog

import "errors"

var (
	ErrVenueNotFound = errors.New("venue not found")
	ErrForbidden     = errors.New("forbidden")
	ErrValidation    = errors.New("invalid venue attributes")
)
