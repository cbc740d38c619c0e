package mocks

import (
	"fmt"

	"github.com/mcoot/clubhouse/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing
type MockRandom struct {
	// SecretResults is a queue of results to return from Secret
	SecretResults []string
	secretIndex   int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Secret returns the next queued result, or a numbered placeholder once the queue is drained
func (r *MockRandom) Secret(n int) string {
	if r.secretIndex >= len(r.SecretResults) {
		r.secretIndex++
		return fmt.Sprintf("secret-%d", r.secretIndex)
	}
	result := r.SecretResults[r.secretIndex]
	r.secretIndex++
	return result
}

// QueueSecret adds values to the Secret result queue
func (r *MockRandom) QueueSecret(values ...string) {
	r.SecretResults = append(r.SecretResults, values...)
}
