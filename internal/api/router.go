package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/clubhouse/internal/api/handler"
	"github.com/mcoot/clubhouse/internal/api/middleware"
	"github.com/mcoot/clubhouse/internal/api/response"
	"github.com/mcoot/clubhouse/internal/factory"
	httpmw "github.com/mcoot/clubhouse/internal/middleware"
)

const healthTimeout = 2 * time.Second

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	App    *factory.App
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	app := cfg.App

	// Create handlers
	userHandler := handler.NewUserHandler(app.AuthService)
	clubHandler := handler.NewClubHandler(app.ClubService, app.SquadService, app.FormLength)
	playerHandler := handler.NewPlayerHandler(app.SquadService, app.FormLength)
	objectiveHandler := handler.NewObjectiveHandler(app.ClubService)

	// Create middleware
	authMiddleware := middleware.Auth(app.AuthService)
	loggingMiddleware := httpmw.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// Metrics are served outside the API prefix, without request logging
	r.Handle("/metrics", metricsHandler(app.Registry)).Methods(http.MethodGet)

	// API subrouter with common middleware. Recovery sits inside logging so
	// a panic is logged with its request id and recorded as a 500.
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(loggingMiddleware)
	api.Use(recoveryMiddleware)

	// User routes (no auth required for registering/logging in)
	api.HandleFunc("/users/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/login", userHandler.Login).Methods(http.MethodPost)

	// Protected user routes
	users := api.PathPrefix("/users").Subrouter()
	users.Use(authMiddleware)
	users.HandleFunc("/logout", userHandler.Logout).Methods(http.MethodPost)
	users.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)
	users.HandleFunc("/me/sessions", userHandler.Sessions).Methods(http.MethodGet)

	// Club routes (all require auth)
	clubs := api.PathPrefix("/clubs").Subrouter()
	clubs.Use(authMiddleware)
	clubs.HandleFunc("", clubHandler.List).Methods(http.MethodGet)
	clubs.HandleFunc("", clubHandler.Create).Methods(http.MethodPost)
	clubs.HandleFunc("/{id}", clubHandler.Get).Methods(http.MethodGet)
	clubs.HandleFunc("/{id}", clubHandler.Update).Methods(http.MethodPut)
	clubs.HandleFunc("/{id}", clubHandler.Delete).Methods(http.MethodDelete)
	clubs.HandleFunc("/{id}/funds", clubHandler.AdjustFunds).Methods(http.MethodPost)
	clubs.HandleFunc("/{id}/squad", clubHandler.Squad).Methods(http.MethodGet)
	clubs.HandleFunc("/{id}/players", clubHandler.SignPlayer).Methods(http.MethodPost)
	clubs.HandleFunc("/{id}/objectives", objectiveHandler.List).Methods(http.MethodGet)
	clubs.HandleFunc("/{id}/objectives", objectiveHandler.Create).Methods(http.MethodPost)

	// Player routes (all require auth)
	players := api.PathPrefix("/players").Subrouter()
	players.Use(authMiddleware)
	players.HandleFunc("/{id}", playerHandler.Get).Methods(http.MethodGet)
	players.HandleFunc("/{id}", playerHandler.Update).Methods(http.MethodPut)
	players.HandleFunc("/{id}", playerHandler.Release).Methods(http.MethodDelete)
	players.HandleFunc("/{id}/matches", playerHandler.RecordMatch).Methods(http.MethodPost)
	players.HandleFunc("/{id}/form", playerHandler.Form).Methods(http.MethodGet)

	objectives := api.PathPrefix("/objectives").Subrouter()
	objectives.Use(authMiddleware)
	objectives.HandleFunc("/{id}/complete", objectiveHandler.Complete).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(app, cfg.Logger)).Methods(http.MethodGet)

	return r
}

func metricsHandler(registry *prometheus.Registry) http.Handler {
	if registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

func healthHandler(app *factory.App, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		start := time.Now()
		err := app.Storage.Ping(ctx)
		health := response.Health{Status: "ok", Backend: app.StorageBackend, LatencyMS: time.Since(start).Milliseconds()}
		if err != nil {
			logger.Warn("health check failed",
				slog.String("backend", app.StorageBackend),
				slog.String("error", err.Error()),
			)
			health.Status = "unavailable"
			response.JSON(w, http.StatusServiceUnavailable, health)
			return
		}
		response.JSON(w, http.StatusOK, health)
	}
}
