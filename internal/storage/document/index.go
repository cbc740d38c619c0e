package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/model"
)

// indexed adds a unique secondary index to a collection.
// The index entry is claimed before the entity is written and released if the write fails.
type indexed[E any, P model.Record[E]] struct {
	*Collection[E, P]
	name  string
	value func(*E) string
}

func (x *indexed[E, P]) indexKey(v string) string {
	return indexKey(x.app, x.name, v)
}

func (x *indexed[E, P]) claim(ctx context.Context, key string, id uuid.UUID) error {
	_, err := x.bucket.Create(ctx, key, []byte(id.String()))
	return translate(err, "index", key)
}

// release removes the entry for key if it still names id.
// A failed release leaves the value claimed by id.
func (x *indexed[E, P]) release(ctx context.Context, key string, id uuid.UUID) {
	doc, rev, err := x.bucket.Read(ctx, key)
	if err != nil {
		return
	}
	owner, err := uuid.ParseBytes(doc)
	if err != nil || owner != id {
		return
	}
	_ = x.bucket.Remove(ctx, key, rev)
}

func (x *indexed[E, P]) Insert(ctx context.Context, e *E) error {
	id := P(e).EntityID()
	if id == uuid.Nil {
		return fmt.Errorf("insert %s: %w", x.kind, model.ErrMissingID)
	}
	key := x.indexKey(x.value(e))
	if err := x.claim(ctx, key, id); err != nil {
		return err
	}
	if err := x.Collection.Insert(ctx, e); err != nil {
		x.release(ctx, key, id)
		return err
	}
	return nil
}

// Update moves the index entry off the version the token names.
// The old value is released only after that exact version has been replaced.
func (x *indexed[E, P]) Update(ctx context.Context, id uuid.UUID, token model.VersionToken, e *E) error {
	stored, rev, err := x.readAt(ctx, id, token)
	if err != nil {
		return err
	}
	oldKey, newKey := x.indexKey(x.value(stored)), x.indexKey(x.value(e))
	if oldKey == newKey {
		return x.replace(ctx, id, stored, rev, e)
	}

	if err := x.claim(ctx, newKey, id); err != nil {
		return err
	}
	if err := x.replace(ctx, id, stored, rev, e); err != nil {
		x.release(ctx, newKey, id)
		return err
	}
	x.release(ctx, oldKey, id)
	return nil
}

func (x *indexed[E, P]) Delete(ctx context.Context, id uuid.UUID) error {
	removed, err := x.remove(ctx, id)
	if err != nil {
		return err
	}
	x.release(ctx, x.indexKey(x.value(removed)), id)
	return nil
}

// lookup resolves an index value to its entity
func (x *indexed[E, P]) lookup(ctx context.Context, v string) (*E, error) {
	key := x.indexKey(v)
	doc, _, err := x.bucket.Read(ctx, key)
	if err != nil {
		return nil, translate(err, "lookup", key)
	}
	id, err := uuid.ParseBytes(doc)
	if err != nil {
		return nil, fmt.Errorf("lookup %s: %w: %w", key, model.ErrIntegrityViolation, err)
	}
	e, _, err := x.Collection.Get(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("lookup %s: %w", key, model.ErrNotFound)
	}
	return e, err
}
