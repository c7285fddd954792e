package accounts

import "errors"

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileExists      = errors.New("profile already exists")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrInvitationExists   = errors.New("pending invitation already exists")
	ErrInvitationClosed   = errors.New("invitation is no longer pending")
	ErrForbidden          = errors.New("forbidden")
	ErrValidation         = errors.New("invalid input")
)
