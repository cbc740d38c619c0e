package factory

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"

	"github.com/mcoot/clubhouse/internal/config"
	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/dependencies/ids"
	"github.com/mcoot/clubhouse/internal/dependencies/random"
	"github.com/mcoot/clubhouse/internal/services/auth"
	"github.com/mcoot/clubhouse/internal/services/club"
	"github.com/mcoot/clubhouse/internal/services/squad"
	"github.com/mcoot/clubhouse/internal/storage"
	"github.com/mcoot/clubhouse/internal/storage/document"
	"github.com/mcoot/clubhouse/internal/storage/dynamo"
	"github.com/mcoot/clubhouse/internal/storage/memory"
	"github.com/mcoot/clubhouse/internal/storage/metrics"
	"github.com/mcoot/clubhouse/internal/storage/postgres"
	redisstorage "github.com/mcoot/clubhouse/internal/storage/redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage        storage.Storage
	StorageBackend string

	// External dependencies
	Clock  clock.Clock
	IDs    ids.Generator
	Random random.Random

	// Registry collects the metrics served at /metrics
	Registry *prometheus.Registry

	// Services
	AuthService  *auth.Service
	ClubService  *club.Service
	SquadService *squad.Service

	// FormLength is the default number of ratings in a player's form
	FormLength int
}

// Config holds configuration for the application factory
type Config struct {
	// Settings is the loaded server configuration (optional)
	// If zero value, defaults to config.Default()
	Settings config.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// RedisClient replaces the client dialled from Settings for the redis backend (optional)
	RedisClient *goredis.Client
	// DynamoClient replaces the client built from the AWS config chain for the dynamodb backend (optional)
	DynamoClient dynamo.API
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	settings := cfg.Settings
	if settings.App.Name == "" {
		settings = config.Default()
	}
	settings.Storage.Backend = config.NormalizeBackend(settings.Storage.Backend)
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	// Create external dependencies
	clk := clock.New()

	store, err := NewStorage(ctx, settings, cfg, clk, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if settings.Storage.Metrics {
		store = metrics.Wrap(store, metrics.NewRecorder(registry))
	}

	logger.Info("storage ready", slog.String("backend", settings.Storage.Backend))
	return newWithDependencies(store, clk, ids.New(), random.New(), registry, settings, logger), nil
}

// NewStorage opens the backend selected by settings
func NewStorage(ctx context.Context, settings config.Config, cfg Config, clk clock.Clock, logger *slog.Logger) (storage.Storage, error) {
	app := settings.App.Name

	switch settings.Storage.Backend {
	case config.BackendMemory:
		return document.New(memory.New(), app, clk), nil

	case config.BackendRedis:
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = settings.Storage.Redis.URL
		redisCfg.PoolSize = settings.Storage.Redis.PoolSize
		redisCfg.MinIdleConns = settings.Storage.Redis.MinIdleConns
		redisCfg.Namespace = app

		if cfg.RedisClient != nil {
			return document.New(redisstorage.NewWithClient(cfg.RedisClient, redisCfg), app, clk), nil
		}
		bucket, err := redisstorage.New(redisCfg)
		if err != nil {
			return nil, err
		}
		return document.New(bucket, app, clk), nil

	case config.BackendDynamoDB:
		dynamoCfg := dynamo.Config{
			Table:       settings.Storage.DynamoDB.Table,
			Region:      settings.Storage.DynamoDB.Region,
			Profile:     settings.Storage.DynamoDB.Profile,
			Endpoint:    settings.Storage.DynamoDB.Endpoint,
			CreateTable: settings.Storage.DynamoDB.CreateTable,
		}
		client := cfg.DynamoClient
		if client == nil {
			c, err := dynamo.NewClient(ctx, dynamoCfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create dynamodb client: %w", err)
			}
			client = c
		}
		bucket := dynamo.New(client, dynamoCfg, clk)
		if dynamoCfg.CreateTable {
			if err := bucket.EnsureTable(ctx); err != nil {
				return nil, err
			}
		}
		return document.New(bucket, app, clk), nil

	case config.BackendPostgres:
		pg := settings.Storage.Postgres
		return postgres.Open(ctx, postgres.Config{
			URL:               pg.URL,
			MaxConns:          pg.MaxConns,
			MinConns:          pg.MinConns,
			MaxConnLifetime:   pg.MaxConnLifetime,
			MaxConnIdleTime:   pg.MaxConnIdleTime,
			HealthCheckPeriod: pg.HealthCheckPeriod,
			Migrate:           pg.Migrate,
		}, clk, logger)

	default:
		return nil, fmt.Errorf("invalid storage backend %q", settings.Storage.Backend)
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	idgen ids.Generator,
	rnd random.Random,
	registry *prometheus.Registry,
	settings config.Config,
	logger *slog.Logger,
) *App {
	authService := auth.New(store, clk, idgen, rnd, auth.Config{SessionDuration: settings.Auth.SessionDuration}, logger)
	clubService := club.New(store, idgen, club.Config{MaxAttempts: settings.Club.MaxAttempts}, logger)
	squadService := squad.New(store, clubService, idgen, logger)

	return &App{
		Storage:        store,
		StorageBackend: settings.Storage.Backend,
		Clock:          clk,
		IDs:            idgen,
		Random:         rnd,
		Registry:       registry,
		AuthService:    authService,
		ClubService:    clubService,
		SquadService:   squadService,
		FormLength:     settings.Club.FormLength,
	}
}

// Close releases the storage connection
func (a *App) Close() error {
	return a.Storage.Close()
}
