// Package document stores each entity as one JSON document in a key-value bucket.
package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/model"
)

// Revision identifies one stored version of a document.
// Buckets assign a new, strictly greater revision on every write.
type Revision uint64

// Bucket conditions. Implementations wrap these so the adapter can classify them.
var (
	ErrKeyExists        = errors.New("key already exists")
	ErrKeyNotFound      = errors.New("key not found")
	ErrRevisionMismatch = errors.New("revision mismatch")
	ErrUnavailable      = errors.New("bucket unavailable")
)

// Bucket is a key-value store offering single-key compare-and-write
type Bucket interface {
	// Create writes doc under key only if the key is absent
	Create(ctx context.Context, key string, doc []byte) (Revision, error)

	Read(ctx context.Context, key string) ([]byte, Revision, error)

	// Replace overwrites doc only if the stored revision equals expected
	Replace(ctx context.Context, key string, doc []byte, expected Revision) (Revision, error)

	// Remove deletes key only if the stored revision equals expected
	Remove(ctx context.Context, key string, expected Revision) error

	// Keys lists every key beginning with prefix
	Keys(ctx context.Context, prefix string) ([]string, error)

	// ReadMany returns documents in key order. Missing keys yield nil entries.
	ReadMany(ctx context.Context, keys []string) ([][]byte, error)

	Ping(ctx context.Context) error
	Close() error
}

// Key returns the document key for an entity
func Key(app string, kind model.Kind, id uuid.UUID) string {
	return fmt.Sprintf("%s::%s::%s", app, kind, id)
}

// Prefix returns the key prefix shared by every document of a kind
func Prefix(app string, kind model.Kind) string {
	return fmt.Sprintf("%s::%s::", app, kind)
}

// indexKey returns the key of a secondary index entry
func indexKey(app, name, value string) string {
	return fmt.Sprintf("%s::index::%s::%s", app, name, value)
}

// translate maps a bucket condition onto the storage error taxonomy
func translate(err error, op, key string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrKeyExists):
		return fmt.Errorf("%s %s: %w", op, key, model.ErrDuplicateKey)
	case errors.Is(err, ErrKeyNotFound):
		return fmt.Errorf("%s %s: %w", op, key, model.ErrNotFound)
	case errors.Is(err, ErrRevisionMismatch):
		return fmt.Errorf("%s %s: %w", op, key, model.ErrVersionConflict)
	default:
		return fmt.Errorf("%s %s: %w: %w", op, key, model.ErrStorageUnavailable, err)
	}
}
