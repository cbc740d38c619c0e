package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

// auditColumns lead every base table
var auditColumns = []string{"id", "version", "created_date", "last_modified_date", "created_by"}

// table implements storage.Store for one entity kind
type table[E any, P model.Record[E]] struct {
	*conn
	schema schema[E]

	selectSQL string
	insertSQL string
	updateSQL string
	existsSQL string
	deleteSQL string
}

func newTable[E any, P model.Record[E]](c *conn, s schema[E]) *table[E, P] {
	all := append(append([]string{}, auditColumns...), s.columns...)

	sets := make([]string, 0, len(s.columns)+2)
	for i, col := range s.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+4))
	}
	sets = append(sets, "version = version + 1", "last_modified_date = $3")

	return &table[E, P]{
		conn:   c,
		schema: s,
		selectSQL: fmt.Sprintf("SELECT %s FROM %s",
			strings.Join(all, ", "), s.table),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) DO NOTHING",
			s.table, strings.Join(all, ", "), placeholders(len(all))),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = $1 AND version = $2 RETURNING version, created_date, created_by",
			s.table, strings.Join(sets, ", ")),
		existsSQL: fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", s.table),
		deleteSQL: fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table),
	}
}

// Ensure table implements the store contract
var _ storage.Store[model.Club] = (*table[model.Club, *model.Club])(nil)

// now is truncated to the precision Postgres stores
func (t *table[E, P]) now() time.Time {
	return t.clock.Now().UTC().Truncate(time.Microsecond)
}

func (t *table[E, P]) Insert(ctx context.Context, e *E) error {
	p := P(e)
	id := p.EntityID()
	if id == uuid.Nil {
		return fmt.Errorf("insert %s: %w", t.schema.kind, model.ErrMissingID)
	}

	now := t.now()
	p.SeedHistory()
	audit := p.AuditRecord()
	audit.Stamp(now, storage.ActorFrom(ctx))

	op := fmt.Sprintf("insert %s %s", t.schema.kind, id)
	return t.withTx(ctx, op, func(tx pgx.Tx) error {
		args := append([]any{id, int64(1), audit.CreatedDate, audit.LastModifiedDate, audit.CreatedBy}, t.schema.values(e)...)
		tag, err := tx.Exec(ctx, t.insertSQL, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s: %w: %w", op, model.ErrDuplicateKey, err)
			}
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", op, model.ErrDuplicateKey)
		}

		for _, h := range t.schema.history {
			if err := h.record(ctx, tx, id, e, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *table[E, P]) Get(ctx context.Context, id uuid.UUID) (*E, model.VersionToken, error) {
	var (
		found   *E
		version int64
	)
	op := fmt.Sprintf("get %s %s", t.schema.kind, id)
	err := t.readTx(ctx, op, func(tx pgx.Tx) error {
		e, v, err := t.scan(tx.QueryRow(ctx, t.selectSQL+" WHERE id = $1", id))
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, model.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if err := t.loadHistory(ctx, tx, []*E{e}, 0); err != nil {
			return err
		}
		found, version = e, v
		return nil
	})
	if err != nil {
		return nil, model.VersionToken{}, err
	}
	return found, model.RevisionToken(uint64(version)), nil
}

func (t *table[E, P]) Update(ctx context.Context, id uuid.UUID, token model.VersionToken, e *E) error {
	op := fmt.Sprintf("update %s %s", t.schema.kind, id)
	expected, err := token.Revision()
	if err != nil {
		return fmt.Errorf("%s: %w", op, model.ErrVersionConflict)
	}

	now := t.now()
	p := P(e)
	p.SetEntityID(id)

	return t.withTx(ctx, op, func(tx pgx.Tx) error {
		var (
			version int64
			stored  model.Audit
		)
		args := append([]any{id, int64(expected), now}, t.schema.values(e)...)
		err := tx.QueryRow(ctx, t.updateSQL, args...).Scan(&version, &stored.CreatedDate, &stored.CreatedBy)
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if err := tx.QueryRow(ctx, t.existsSQL, id).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return fmt.Errorf("%s: %w", op, model.ErrNotFound)
			}
			return fmt.Errorf("%s: %w", op, model.ErrVersionConflict)
		}
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%s: %w: %w", op, model.ErrDuplicateKey, err)
			}
			return err
		}

		// the guarded UPDATE holds the row lock, so history cannot move underneath us
		var previous E
		P(&previous).SetEntityID(id)
		if len(t.schema.history) > 0 {
			if err := t.loadHistory(ctx, tx, []*E{&previous}, 0); err != nil {
				return err
			}
		}

		p.AdvanceHistory(&previous)
		p.AuditRecord().Carry(stored, now)

		for _, h := range t.schema.history {
			if !h.grew(e, &previous) {
				continue
			}
			if err := h.record(ctx, tx, id, e, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *table[E, P]) Delete(ctx context.Context, id uuid.UUID) error {
	op := fmt.Sprintf("delete %s %s", t.schema.kind, id)
	return t.withTx(ctx, op, func(tx pgx.Tx) error {
		for _, h := range t.schema.history {
			if err := h.purge(ctx, tx, id); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, t.deleteSQL, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%s: %w", op, model.ErrNotFound)
		}
		return nil
	})
}

// find returns every entity matching where, oldest first
func (t *table[E, P]) find(ctx context.Context, where string, args ...any) ([]*E, error) {
	var found []*E
	op := fmt.Sprintf("find %s", t.schema.kind)
	err := t.readTx(ctx, op, func(tx pgx.Tx) error {
		var err error
		found, err = t.findIn(ctx, tx, where, args...)
		return err
	})
	return found, err
}

func (t *table[E, P]) findIn(ctx context.Context, q querier, where string, args ...any) ([]*E, error) {
	rows, err := q.Query(ctx, t.selectSQL+" WHERE "+where+" ORDER BY created_date, id", args...)
	if err != nil {
		return nil, err
	}
	found, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*E, error) {
		e, _, err := t.scan(row)
		return e, err
	})
	if err != nil {
		return nil, err
	}
	if err := t.loadHistory(ctx, q, found, 0); err != nil {
		return nil, err
	}
	return found, nil
}

func (t *table[E, P]) scan(row pgx.Row) (*E, int64, error) {
	var (
		e       E
		id      uuid.UUID
		version int64
	)
	p := P(&e)
	audit := p.AuditRecord()
	dest := append([]any{&id, &version, &audit.CreatedDate, &audit.LastModifiedDate, &audit.CreatedBy}, t.schema.dest(&e)...)
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	p.SetEntityID(id)
	return &e, version, nil
}

func (t *table[E, P]) loadHistory(ctx context.Context, q querier, entities []*E, limit int) error {
	if len(entities) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*E, len(entities))
	for _, e := range entities {
		byID[P(e).EntityID()] = e
	}
	for _, h := range t.schema.history {
		if err := h.load(ctx, q, byID, limit); err != nil {
			return err
		}
	}
	return nil
}

func placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", i+1)
	}
	return strings.Join(parts, ", ")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
