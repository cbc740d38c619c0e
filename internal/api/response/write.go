package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/clubhouse/internal/model"
)

// JSON writes a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WithETag writes a JSON response carrying the entity's version token as a
// strong ETag. Clients send it back in If-Match on their next write.
func WithETag(w http.ResponseWriter, status int, token model.VersionToken, data any) {
	if !token.IsZero() {
		w.Header().Set("ETag", ETag(token))
	}
	JSON(w, status, data)
}

// ETag renders a version token as an HTTP entity tag
func ETag(token model.VersionToken) string {
	return `"` + token.String() + `"`
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
