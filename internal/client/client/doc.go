// Package client talks to the wastewatch JSON API.
//
// # Overview
//
// Client is the transport-agnostic contract used by the CLI; HTTPClient is
// the implementation over net/http. Every call takes a context and honours
// its cancellation.
//
// # Error Handling
//
// Non-2xx responses come back as *APIError, which also matches the
// corresponding sentinel from internal/common with errors.Is:
//
//	400 common.ErrValidation
//	401 common.ErrInvalidCredentials
//	403 common.ErrInvalidToken
//	404 common.ErrorNotFound
//	409 common.ErrConflict
//
// Transport failures match ErrUnavailable.
package client
