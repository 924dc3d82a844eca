package services

import "errors"

var (
	// ErrInvalidCredentials is returned on any login failure. Unknown
	// username and wrong password are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrNoContactAvailable is returned when no contact person account is
	// provisioned.
	ErrNoContactAvailable = errors.New("contact person not found")
	// ErrRecipientNotFound is returned when a reply targets a user that
	// does not exist or is not a citizen.
	ErrRecipientNotFound = errors.New("citizen not found")
	// ErrInvalidTransition is returned when a status change is not allowed
	// by the issue lifecycle.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrValidation is returned for malformed input. Wrapped with detail.
	ErrValidation = errors.New("validation failed")
)
