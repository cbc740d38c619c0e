package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicHandler writes the response for a request whose handler panicked
type PanicHandler func(w http.ResponseWriter, r *http.Request, err error)

// Recovery turns a handler panic into an error response built by handler.
// http.ErrAbortHandler is re-raised so the server can drop the connection,
// and a response that has already started is left as it is.
func Recovery(logger *slog.Logger, handler PanicHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := asError(rec)
				started := headerWritten(w)
				logger.Error("panic recovered",
					slog.String("error", err.Error()),
					slog.String("request_id", RequestID(r.Context())),
					slog.String("method", r.Method),
					slog.String("route", routeTemplate(r)),
					slog.Bool("response_started", started),
					slog.String("stack", string(debug.Stack())),
				)
				if !started {
					handler(w, r, err)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func asError(rec any) error {
	if err, ok := rec.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", rec)
}

func headerWritten(w http.ResponseWriter) bool {
	rw, ok := w.(*ResponseWriter)
	return ok && rw.wroteHeader
}
