package mocks

import (
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/dependencies/ids"
)

// MockIDs hands out queued identifiers, then sequential deterministic ones
type MockIDs struct {
	mu     sync.Mutex
	queue  []uuid.UUID
	issued int
}

// Ensure MockIDs implements Generator
var _ ids.Generator = (*MockIDs)(nil)

// NewMockIDs creates a new MockIDs
func NewMockIDs() *MockIDs {
	return &MockIDs{}
}

// Queue adds identifiers to be returned by NewID in order
func (g *MockIDs) Queue(values ...uuid.UUID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queue = append(g.queue, values...)
}

// NewID returns the next queued identifier or a deterministic sequential one
func (g *MockIDs) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.issued++
	if len(g.queue) > 0 {
		id := g.queue[0]
		g.queue = g.queue[1:]
		return id
	}
	var id uuid.UUID
	id[14] = byte(g.issued >> 8)
	id[15] = byte(g.issued)
	return id
}
