package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/auth"
	"github.com/mcoot/clubhouse/internal/services/club"
	"github.com/mcoot/clubhouse/internal/services/squad"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError.
// RequestID is set on server faults so a report can be matched to the logs.
type ErrorResponse struct {
	Error     APIError `json:"error"`
	RequestID string   `json:"request_id,omitempty"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeEmailTaken           = "EMAIL_TAKEN"
	CodeNotOwner             = "NOT_OWNER"
	CodeNotFound             = "NOT_FOUND"
	CodeDuplicateKey         = "DUPLICATE_KEY"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodePreconditionRequired = "PRECONDITION_REQUIRED"
	CodeInsufficientFunds    = "INSUFFICIENT_FUNDS"
	CodeStorageUnavailable   = "STORAGE_UNAVAILABLE"
	CodeIntegrityViolation   = "INTEGRITY_VIOLATION"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	WriteRequestError(w, err, "")
}

// WriteRequestError writes err like WriteError, naming the request in the body
func WriteRequestError(w http.ResponseWriter, err error, requestID string) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError, RequestID: requestID})
}

// Status returns the HTTP status err maps to
func Status(err error) int {
	return toHTTPError(err).status
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid email or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrEmailTaken):
		return &httpError{http.StatusConflict, APIError{CodeEmailTaken, "Email already registered"}}
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	// Map club and squad errors
	case errors.Is(err, club.ErrNotOwner):
		return &httpError{http.StatusForbidden, APIError{CodeNotOwner, "Club belongs to another user"}}
	case errors.Is(err, club.ErrInsufficientFunds):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientFunds, "Insufficient manager funds"}}
	case errors.Is(err, club.ErrInvalidName),
		errors.Is(err, club.ErrNegativeBudget),
		errors.Is(err, squad.ErrInvalidPlayer),
		errors.Is(err, squad.ErrInvalidMatch):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, err.Error()}}

	// Map storage errors
	case errors.Is(err, model.ErrNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeNotFound, "Resource not found"}}
	case errors.Is(err, model.ErrVersionConflict):
		return &httpError{http.StatusConflict, APIError{CodeVersionConflict, "Resource was modified by another request"}}
	case errors.Is(err, model.ErrDuplicateKey):
		return &httpError{http.StatusConflict, APIError{CodeDuplicateKey, "Resource already exists"}}
	case errors.Is(err, model.ErrStorageUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeStorageUnavailable, "Storage is unavailable"}}
	case errors.Is(err, model.ErrIntegrityViolation):
		return &httpError{http.StatusInternalServerError, APIError{CodeIntegrityViolation, "Write could not be completed"}}
	case errors.Is(err, model.ErrInvalidToken):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, "Malformed If-Match header"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewPreconditionRequiredError is returned when a write omits If-Match
func NewPreconditionRequiredError() error {
	return &httpError{http.StatusPreconditionRequired, APIError{CodePreconditionRequired, "If-Match header is required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
