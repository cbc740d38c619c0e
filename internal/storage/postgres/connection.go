package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/model"
)

// DB is the subset of a pgx pool the storage uses. *pgxpool.Pool and pgxmock pools satisfy it.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// querier runs queries inside or outside a transaction
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// readOptions gives multi-query reads one consistent snapshot
var readOptions = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

// NewPool creates a connection pool and verifies it can reach the database
func NewPool(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxConns
	poolConfig.MinConns = cfg.MinConns
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolConfig.HealthCheckPeriod = cfg.HealthCheckPeriod

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test the connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// conn is shared by every table of one Storage
type conn struct {
	db     DB
	clock  clock.Clock
	logger *slog.Logger
}

// withTx executes fn within a transaction. Unclassified failures after
// BEGIN roll back and surface as model.ErrIntegrityViolation.
func (c *conn) withTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	tx, err := c.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin: %w: %w", op, model.ErrStorageUnavailable, err)
	}

	defer func() {
		if p := recover(); p != nil {
			c.rollback(ctx, tx, op)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		c.rollback(ctx, tx, op)
		if classified(err) {
			return err
		}
		return fmt.Errorf("%s: %w: %w", op, model.ErrIntegrityViolation, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w: %w", op, model.ErrIntegrityViolation, err)
	}
	return nil
}

// readTx executes fn within a read-only snapshot. Unclassified failures
// surface as model.ErrStorageUnavailable.
func (c *conn) readTx(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, readOptions)
	if err != nil {
		return fmt.Errorf("%s: begin: %w: %w", op, model.ErrStorageUnavailable, err)
	}

	if err := fn(tx); err != nil {
		c.rollback(ctx, tx, op)
		if classified(err) {
			return err
		}
		return fmt.Errorf("%s: %w: %w", op, model.ErrStorageUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: commit: %w: %w", op, model.ErrStorageUnavailable, err)
	}
	return nil
}

func (c *conn) rollback(ctx context.Context, tx pgx.Tx, op string) {
	// the request context may already be cancelled
	if err := tx.Rollback(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		c.logger.Error("failed to rollback transaction", slog.String("op", op), slog.String("error", err.Error()))
	}
}

// classified reports whether err already carries a storage error kind
func classified(err error) bool {
	return errors.Is(err, model.ErrNotFound) ||
		errors.Is(err, model.ErrDuplicateKey) ||
		errors.Is(err, model.ErrVersionConflict) ||
		errors.Is(err, model.ErrIntegrityViolation) ||
		errors.Is(err, model.ErrStorageUnavailable)
}
