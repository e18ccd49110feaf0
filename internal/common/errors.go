// Package common defines shared sentinel errors used across the service.
// Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Storage-level errors.
	ErrNotFound           = errors.New("not found")
	ErrVersionConflict    = errors.New("version conflict")
	ErrBackendUnavailable = errors.New("storage backend unavailable")

	// Auth errors.
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidToken    = errors.New("invalid token")
	ErrTooManyAttempts = errors.New("too many login attempts")

	// Generic internal flow control.
	ErrInternal = errors.New("internal error")
)
