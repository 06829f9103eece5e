// Package common defines shared constants, helpers and sentinel errors used
// across client and server layers of filekeeper. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// File pipeline errors.
	ErrorInvalidPath     = errors.New("invalid path")
	ErrorInvalidInput    = errors.New("invalid input")
	ErrorPayloadTooLarge = errors.New("file size is too large")
	ErrorQuotaExceeded   = errors.New("user quota exceeded")

	// Token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrNoUserID     = errors.New("token has no user id")
)
