package domain

import "errors"

// Sentinel errors returned by services. The API error handler maps each to a
// deterministic HTTP status; nothing else crosses the transport boundary.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// login failures never reveal whether an account exists.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrAccountNotFound    = errors.New("account not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")

	ErrInvalidResetToken = errors.New("invalid reset token")
	ErrExpiredResetToken = errors.New("reset token expired")

	ErrPermissionDenied = errors.New("permission denied")

	ErrProductNotFound   = errors.New("product not found")
	ErrRFPNotFound       = errors.New("rfp not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)
