package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/model"
)

// Store is the persistence contract shared by every entity kind.
//
// Insert and Update write the stored result (seeded or advanced history,
// audit fields) back into the entity passed in.
type Store[E any] interface {
	// Insert persists a new entity, failing with model.ErrDuplicateKey if the id is taken
	Insert(ctx context.Context, e *E) error

	// Get returns the entity with its complete history and the token for its current version
	Get(ctx context.Context, id uuid.UUID) (*E, model.VersionToken, error)

	// Update replaces the entity if token still identifies the stored version.
	// Changed versioned fields gain one history entry; caller-supplied history is ignored.
	Update(ctx context.Context, id uuid.UUID, token model.VersionToken, e *E) error

	// Delete removes the entity and all of its history
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore persists users
type UserStore interface {
	Store[model.User]
	FindByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthTokenStore persists login sessions
type AuthTokenStore interface {
	Store[model.AuthToken]
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.AuthToken, error)
}

// ClubStore persists clubs
type ClubStore interface {
	Store[model.Club]
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Club, error)
}

// PlayerStore persists players
type PlayerStore interface {
	Store[model.Player]
	FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.Player, error)
}

// MatchPerformanceStore persists per-competition match records
type MatchPerformanceStore interface {
	Store[model.MatchPerformance]
	FindByPlayer(ctx context.Context, playerID uuid.UUID) ([]*model.MatchPerformance, error)
	FindByPlayerAndCompetition(ctx context.Context, playerID uuid.UUID, competitionID string) (*model.MatchPerformance, error)
}

// BoardObjectiveStore persists board objectives
type BoardObjectiveStore interface {
	Store[model.BoardObjective]
	FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.BoardObjective, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	Users() UserStore
	AuthTokens() AuthTokenStore
	Clubs() ClubStore
	Players() PlayerStore
	MatchPerformances() MatchPerformanceStore
	BoardObjectives() BoardObjectiveStore

	// SquadSummary returns every player of a club with their formLength most
	// recent match ratings across all competitions, newest first
	SquadSummary(ctx context.Context, clubID uuid.UUID, formLength int) ([]model.SquadMember, error)

	Ping(ctx context.Context) error
	Close() error
}
