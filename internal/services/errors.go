package services

import (
	"errors"
)

// Kinds of failure the HTTP layer knows how to map.
var (
	ErrNotFound               = errors.New("not found")
	ErrExpired                = errors.New("expired")
	ErrInvalidSecret          = errors.New("invalid secret")
	ErrTooManyAttempts        = errors.New("too many attempts")
	ErrVerificationIncomplete = errors.New("verification incomplete")
	ErrConfiguration          = errors.New("service not configured")
	ErrWeakPassword           = errors.New("password must be at least 8 characters and contain 3 of: uppercase, lowercase, digit, symbol")
	ErrConflict               = errors.New("conflict")
	ErrSlugExhausted          = errors.New("could not allocate a unique slug")
	ErrValidation             = errors.New("validation failed")
	ErrForbidden              = errors.New("forbidden")
	ErrThrottled              = errors.New("too many requests, try again later")
	ErrInvalidCredentials     = errors.New("invalid email or password")
)

var (
	ErrInvalidToken = newError(ErrInvalidSecret, "invalid or expired token")
	ErrInvalidCode  = newError(ErrInvalidSecret, "invalid code")
)

// serviceError carries a client-safe message on top of one of the kinds above.
type serviceError struct {
	kind error
	msg  string
}

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }
