// Package common defines shared constants and sentinel errors used across
// client and server layers of gophevents. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Request shape errors.
	ErrMissingFields = errors.New("missing required fields")
	ErrInvalidFormat = errors.New("invalid format")

	// Account errors.
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrAlreadyVerified        = errors.New("account already verified")
	ErrInvalidOrExpired       = errors.New("invalid or expired code")
	ErrInvalidCurrentPassword = errors.New("current password is invalid")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Event errors.
	ErrForbidden     = errors.New("access denied")
	ErrInvalidDates  = errors.New("end date must be after start date")
	ErrInvalidDate   = errors.New("invalid date format")
	ErrAlreadyJoined = errors.New("already joined")
	ErrEventFull     = errors.New("no available places")
	ErrNotAttending  = errors.New("not attending this event")

	// Mail delivery errors.
	ErrDelivery = errors.New("mail delivery failed")
)
