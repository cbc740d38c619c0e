package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/mcoot/clubhouse/internal/storage/document"
)

type entry struct {
	doc []byte
	rev document.Revision
}

// Bucket is an in-memory implementation of document.Bucket
type Bucket struct {
	mu      sync.RWMutex
	entries map[string]entry
	rev     document.Revision
	closed  bool
}

// New creates a new in-memory bucket
func New() *Bucket {
	return &Bucket{
		entries: make(map[string]entry),
	}
}

// Ensure Bucket implements the interface
var _ document.Bucket = (*Bucket)(nil)

// next must be called with the write lock held
func (b *Bucket) next() document.Revision {
	b.rev++
	return b.rev
}

func (b *Bucket) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", document.ErrUnavailable, err)
	}
	if b.closed {
		return fmt.Errorf("%w: bucket closed", document.ErrUnavailable)
	}
	return nil
}

func (b *Bucket) Create(ctx context.Context, key string, doc []byte) (document.Revision, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return 0, err
	}
	if _, ok := b.entries[key]; ok {
		return 0, document.ErrKeyExists
	}
	rev := b.next()
	b.entries[key] = entry{doc: clone(doc), rev: rev}
	return rev, nil
}

func (b *Bucket) Read(ctx context.Context, key string) ([]byte, document.Revision, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx); err != nil {
		return nil, 0, err
	}
	e, ok := b.entries[key]
	if !ok {
		return nil, 0, document.ErrKeyNotFound
	}
	return clone(e.doc), e.rev, nil
}

func (b *Bucket) Replace(ctx context.Context, key string, doc []byte, expected document.Revision) (document.Revision, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return 0, err
	}
	e, ok := b.entries[key]
	if !ok {
		return 0, document.ErrKeyNotFound
	}
	if e.rev != expected {
		return 0, document.ErrRevisionMismatch
	}
	rev := b.next()
	b.entries[key] = entry{doc: clone(doc), rev: rev}
	return rev, nil
}

func (b *Bucket) Remove(ctx context.Context, key string, expected document.Revision) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.check(ctx); err != nil {
		return err
	}
	e, ok := b.entries[key]
	if !ok {
		return document.ErrKeyNotFound
	}
	if e.rev != expected {
		return document.ErrRevisionMismatch
	}
	delete(b.entries, key)
	return nil
}

func (b *Bucket) Keys(ctx context.Context, prefix string) ([]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	var keys []string
	for k := range b.entries {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Bucket) ReadMany(ctx context.Context, keys []string) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.check(ctx); err != nil {
		return nil, err
	}
	docs := make([][]byte, len(keys))
	for i, k := range keys {
		if e, ok := b.entries[k]; ok {
			docs[i] = clone(e.doc)
		}
	}
	return docs, nil
}

func (b *Bucket) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.check(ctx)
}

func (b *Bucket) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

// Len returns the number of stored keys, index entries included
func (b *Bucket) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.entries)
}

func clone(doc []byte) []byte {
	out := make([]byte, len(doc))
	copy(out, doc)
	return out
}
