// Package common defines shared constants and sentinel errors used across
// guildgate components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Workflow errors surfaced to the originating action.
	ErrorValidation       = errors.New("validation error")
	ErrorPermissionDenied = errors.New("permission denied")
	ErrorAlreadyDecided   = errors.New("application already decided")
	ErrorSessionExists    = errors.New("photo session already started")
	ErrorPhotosPending    = errors.New("photo collection still in progress")

	// ErrorTransientDelivery marks notification and chat I/O failures. They are
	// logged by the workflow and never returned from a state-changing operation.
	ErrorTransientDelivery = errors.New("transient delivery failure")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
