package ids

import "github.com/google/uuid"

// Generator hands out new entity identifiers
type Generator interface {
	NewID() uuid.UUID
}

// UUIDGenerator issues random (version 4) UUIDs
type UUIDGenerator struct{}

// New creates a new UUIDGenerator
func New() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a fresh random UUID
func (g *UUIDGenerator) NewID() uuid.UUID {
	return uuid.New()
}
