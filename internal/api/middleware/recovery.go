package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/clubhouse/internal/api/apierr"
	"github.com/mcoot/clubhouse/internal/middleware"
)

// Recovery answers a panicking API handler with INTERNAL_ERROR.
// The body names the request so the client can quote it against the logged stack.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, apiPanicHandler)
}

func apiPanicHandler(w http.ResponseWriter, r *http.Request, _ error) {
	apierr.WriteRequestError(w, apierr.NewInternalError(), middleware.RequestID(r.Context()))
}
