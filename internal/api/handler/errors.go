package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/mcoot/clubhouse/internal/api/apierr"
	"github.com/mcoot/clubhouse/internal/model"
)

// Re-export from apierr for convenience
type APIError = apierr.APIError
type ErrorResponse = apierr.ErrorResponse

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	apierr.WriteError(w, err)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return apierr.NewInvalidRequestError(message)
}

// decode reads a JSON body into dst
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return NewInvalidRequestError("invalid request body")
	}
	return nil
}

// pathID parses a UUID route variable
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, NewInvalidRequestError(name + " must be a UUID")
	}
	return id, nil
}

// ifMatch reads the version token a write is conditioned on
func ifMatch(r *http.Request) (model.VersionToken, error) {
	raw := r.Header.Get("If-Match")
	if raw == "" {
		return model.VersionToken{}, apierr.NewPreconditionRequiredError()
	}
	return model.ParseVersionToken(raw)
}
