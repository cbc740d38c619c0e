package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage/reconcile"
)

// historyColumn is one versioned field of E, persisted as an append-only table
type historyColumn[E any] interface {
	tableName() string
	ownerColumn() string

	// record appends e's current value
	record(ctx context.Context, tx pgx.Tx, id uuid.UUID, e *E, now time.Time) error

	// grew reports whether advancing from stored added an entry to e
	grew(e, stored *E) bool

	// load reconciles the history of every entity in byID. limit <= 0 keeps all rows.
	load(ctx context.Context, q querier, byID map[uuid.UUID]*E, limit int) error

	purge(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

type history[E any, T model.Number] struct {
	table string
	owner string
	field func(*E) *model.VersionedValue[T]
}

func newHistory[E any, T model.Number](table, owner string, field func(*E) *model.VersionedValue[T]) historyColumn[E] {
	return &history[E, T]{table: table, owner: owner, field: field}
}

func (h *history[E, T]) tableName() string   { return h.table }
func (h *history[E, T]) ownerColumn() string { return h.owner }

func (h *history[E, T]) record(ctx context.Context, tx pgx.Tx, id uuid.UUID, e *E, now time.Time) error {
	sql := fmt.Sprintf("INSERT INTO %s (%s, value, created_at) VALUES ($1, $2, $3)", h.table, h.owner)
	if _, err := tx.Exec(ctx, sql, id, h.field(e).Current, now); err != nil {
		return fmt.Errorf("append %s: %w", h.table, err)
	}
	return nil
}

func (h *history[E, T]) grew(e, stored *E) bool {
	return len(h.field(e).History) > len(h.field(stored).History)
}

func (h *history[E, T]) load(ctx context.Context, q querier, byID map[uuid.UUID]*E, limit int) error {
	if len(byID) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	sql := fmt.Sprintf(
		"SELECT id, %s, value, created_at FROM %s WHERE %s = ANY($1) ORDER BY created_at DESC, id DESC",
		h.owner, h.table, h.owner,
	)
	rows, err := q.Query(ctx, sql, ids)
	if err != nil {
		return fmt.Errorf("load %s: %w", h.table, err)
	}
	collected, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reconcile.Row[T], error) {
		var r reconcile.Row[T]
		err := row.Scan(&r.Seq, &r.OwnerID, &r.Value, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return fmt.Errorf("load %s: %w", h.table, err)
	}

	groups := reconcile.GroupByOwner(collected)
	for id, e := range byID {
		v, err := reconcile.Value(groups[id], limit)
		if err != nil {
			return fmt.Errorf("%s for %s: %w: %w", h.table, id, model.ErrIntegrityViolation, err)
		}
		*h.field(e) = v
	}
	return nil
}

func (h *history[E, T]) purge(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", h.table, h.owner)
	if _, err := tx.Exec(ctx, sql, id); err != nil {
		return fmt.Errorf("purge %s: %w", h.table, err)
	}
	return nil
}
