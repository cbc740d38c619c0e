package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mcoot/clubhouse/internal/api/apierr"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/auth"
	"github.com/mcoot/clubhouse/internal/storage"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	bearerContextKey contextKey = "bearer"
)

// Auth creates authentication middleware.
// The authenticated user is attached to the context and recorded as the storage actor.
func Auth(authService *auth.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				apierr.WriteError(w, apierr.NewUnauthorizedError())
				return
			}

			user, err := authService.Validate(r.Context(), token)
			if err != nil {
				apierr.WriteError(w, err)
				return
			}

			ctx := r.Context()
			ctx = context.WithValue(ctx, bearerContextKey, token)
			ctx = context.WithValue(ctx, userContextKey, user)
			ctx = storage.WithActor(ctx, user.ID.String())

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken extracts the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// GetUser returns the authenticated user from the request context
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

// GetBearer returns the bearer token the request authenticated with
func GetBearer(ctx context.Context) string {
	bearer, _ := ctx.Value(bearerContextKey).(string)
	return bearer
}

// MustGetUser returns the authenticated user or panics
func MustGetUser(ctx context.Context) *model.User {
	user := GetUser(ctx)
	if user == nil {
		panic("no user in context - auth middleware not applied?")
	}
	return user
}
