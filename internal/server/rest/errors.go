package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/wastewatch/internal/common"
	"github.com/dmitrijs2005/wastewatch/internal/logging"
	"github.com/dmitrijs2005/wastewatch/internal/server/metrics"
	"github.com/dmitrijs2005/wastewatch/internal/server/services"
)

// Response messages.
const (
	MsgUserCreated       = "User created successfully"
	MsgEmailRegistered   = "Email already registered"
	MsgSignupFirst       = "User not found. Please sign up first."
	MsgIncorrectPassword = "Incorrect password"
	MsgSigninSuccessful  = "Signin successful"
	MsgUserNotFound      = "User not found"
	MsgValidationFailed  = "Validation failed"
	MsgInvalidBody       = "Invalid request body"
	MsgNoToken           = "No token provided"
	MsgInvalidToken      = "Invalid or expired token"
	MsgInvalidPayload    = "Invalid token payload"
	MsgInternal          = "Internal Server Error"
)

var errBadBody = errors.New("malformed request body")

// statusFor maps the error taxonomy onto HTTP status codes. Anything not
// recognised as a domain outcome is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrValidation), errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrNoToken), errors.Is(err, common.ErrInvalidToken):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func outcomeFor(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, common.ErrValidation), errors.Is(err, errBadBody):
		return metrics.OutcomeValidation
	case errors.Is(err, common.ErrConflict):
		return metrics.OutcomeConflict
	case errors.Is(err, common.ErrorNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, common.ErrInvalidCredentials):
		return metrics.OutcomeInvalidCredentials
	case errors.Is(err, common.ErrNoToken):
		return metrics.OutcomeNoToken
	case errors.Is(err, common.ErrInvalidToken):
		return metrics.OutcomeInvalidToken
	default:
		return metrics.OutcomeError
	}
}

// errorBody renders err for the client. notFound is the operation-specific
// wording for common.ErrorNotFound.
func errorBody(err error, notFound string) messageResponse {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return messageResponse{Message: MsgValidationFailed, Errors: ve.Fields}
	case errors.Is(err, errBadBody):
		return messageResponse{Message: MsgInvalidBody}
	case errors.Is(err, common.ErrConflict):
		return messageResponse{Message: MsgEmailRegistered}
	case errors.Is(err, common.ErrorNotFound):
		return messageResponse{Message: notFound}
	case errors.Is(err, common.ErrInvalidCredentials):
		return messageResponse{Message: MsgIncorrectPassword}
	case errors.Is(err, common.ErrNoToken):
		return messageResponse{Message: MsgNoToken}
	case errors.Is(err, common.ErrInvalidToken):
		return messageResponse{Message: MsgInvalidToken}
	default:
		return messageResponse{Message: MsgInternal}
	}
}

// writeError answers with the mapped status. Only unexpected failures are
// logged as errors; domain outcomes are logged at debug.
func writeError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error, notFound string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error(r.Context(), "request failed", "error", err, "path", r.URL.Path, "request_id", RequestIDFromContext(r.Context()))
	} else {
		log.Debug(r.Context(), "request rejected", "error", err, "status", status, "path", r.URL.Path)
	}
	writeJSON(w, status, errorBody(err, notFound))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
