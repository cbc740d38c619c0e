package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

// Collection stores one entity kind as JSON documents
type Collection[E any, P model.Record[E]] struct {
	bucket Bucket
	app    string
	kind   model.Kind
	clock  clock.Clock
}

// NewCollection creates a collection for kind within app's key space
func NewCollection[E any, P model.Record[E]](bucket Bucket, app string, kind model.Kind, clk clock.Clock) *Collection[E, P] {
	return &Collection[E, P]{bucket: bucket, app: app, kind: kind, clock: clk}
}

// Ensure Collection implements the store contract
var _ storage.Store[model.Club] = (*Collection[model.Club, *model.Club])(nil)

func (c *Collection[E, P]) key(id uuid.UUID) string {
	return Key(c.app, c.kind, id)
}

func (c *Collection[E, P]) Insert(ctx context.Context, e *E) error {
	p := P(e)
	id := p.EntityID()
	if id == uuid.Nil {
		return fmt.Errorf("insert %s: %w", c.kind, model.ErrMissingID)
	}

	p.SeedHistory()
	p.AuditRecord().Stamp(c.clock.Now(), storage.ActorFrom(ctx))

	doc, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.kind, err)
	}
	key := c.key(id)
	_, err = c.bucket.Create(ctx, key, doc)
	return translate(err, "insert", key)
}

func (c *Collection[E, P]) Get(ctx context.Context, id uuid.UUID) (*E, model.VersionToken, error) {
	e, rev, err := c.read(ctx, id)
	if err != nil {
		return nil, model.VersionToken{}, err
	}
	return e, model.RevisionToken(uint64(rev)), nil
}

func (c *Collection[E, P]) Update(ctx context.Context, id uuid.UUID, token model.VersionToken, e *E) error {
	stored, rev, err := c.readAt(ctx, id, token)
	if err != nil {
		return err
	}
	return c.replace(ctx, id, stored, rev, e)
}

func (c *Collection[E, P]) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := c.remove(ctx, id)
	return err
}

// readAt reads id and checks it is still at the revision token names
func (c *Collection[E, P]) readAt(ctx context.Context, id uuid.UUID, token model.VersionToken) (*E, Revision, error) {
	expected, err := token.Revision()
	if err != nil {
		return nil, 0, fmt.Errorf("update %s: %w", c.key(id), model.ErrVersionConflict)
	}
	stored, rev, err := c.read(ctx, id)
	if err != nil {
		return nil, 0, err
	}
	if uint64(rev) != expected {
		return nil, 0, fmt.Errorf("update %s: %w", c.key(id), model.ErrVersionConflict)
	}
	return stored, rev, nil
}

// replace writes e over stored, which must be the document at rev.
// e receives the advanced histories and audit fields only once the write lands.
func (c *Collection[E, P]) replace(ctx context.Context, id uuid.UUID, stored *E, rev Revision, e *E) error {
	next := *e
	p := P(&next)
	p.SetEntityID(id)
	p.AdvanceHistory(stored)
	p.AuditRecord().Carry(*P(stored).AuditRecord(), c.clock.Now())

	doc, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode %s: %w", c.kind, err)
	}
	key := c.key(id)
	if _, err := c.bucket.Replace(ctx, key, doc, rev); err != nil {
		return translate(err, "update", key)
	}
	*e = next
	return nil
}

// remove deletes the current document for id and returns the version it removed.
// A write landing between the read and the remove sends it round again.
func (c *Collection[E, P]) remove(ctx context.Context, id uuid.UUID) (*E, error) {
	key := c.key(id)
	for {
		stored, rev, err := c.read(ctx, id)
		if err != nil {
			return nil, err
		}
		err = c.bucket.Remove(ctx, key, rev)
		if errors.Is(err, ErrRevisionMismatch) {
			continue
		}
		if err != nil {
			return nil, translate(err, "delete", key)
		}
		return stored, nil
	}
}

// Find returns every entity matching keep, oldest first
func (c *Collection[E, P]) Find(ctx context.Context, keep func(*E) bool) ([]*E, error) {
	prefix := Prefix(c.app, c.kind)
	keys, err := c.bucket.Keys(ctx, prefix)
	if err != nil {
		return nil, translate(err, "scan", prefix)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	docs, err := c.bucket.ReadMany(ctx, keys)
	if err != nil {
		return nil, translate(err, "scan", prefix)
	}

	var found []*E
	for i, doc := range docs {
		// removed between listing and reading
		if doc == nil {
			continue
		}
		e, err := c.decode(doc, keys[i])
		if err != nil {
			return nil, err
		}
		if keep(e) {
			found = append(found, e)
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		a, b := P(found[i]), P(found[j])
		ca, cb := a.AuditRecord().CreatedDate, b.AuditRecord().CreatedDate
		if !ca.Equal(cb) {
			return ca.Before(cb)
		}
		return a.EntityID().String() < b.EntityID().String()
	})
	return found, nil
}

func (c *Collection[E, P]) read(ctx context.Context, id uuid.UUID) (*E, Revision, error) {
	key := c.key(id)
	doc, rev, err := c.bucket.Read(ctx, key)
	if err != nil {
		return nil, 0, translate(err, "get", key)
	}
	e, err := c.decode(doc, key)
	if err != nil {
		return nil, 0, err
	}
	return e, rev, nil
}

func (c *Collection[E, P]) decode(doc []byte, key string) (*E, error) {
	var e E
	if err := json.Unmarshal(doc, &e); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", key, model.ErrIntegrityViolation, err)
	}
	return &e, nil
}
