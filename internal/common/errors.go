// Package common defines shared constants and sentinel errors used across
// the server and the client. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrStorage    = errors.New("storage error")

	// Service-level errors.
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Gate errors.
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token")

	// Token verification failures. Each of them also matches ErrInvalidToken.
	ErrTokenMalformed         = tokenError("token malformed")
	ErrTokenSignatureMismatch = tokenError("token signature mismatch")
	ErrTokenExpired           = tokenError("token expired")
	ErrTokenInvalidClaims     = tokenError("token claims invalid")
)

func tokenError(msg string) error {
	return &kindError{msg: msg, parent: ErrInvalidToken}
}

// kindError is a sentinel that also matches a broader parent sentinel.
type kindError struct {
	msg    string
	parent error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.parent }
