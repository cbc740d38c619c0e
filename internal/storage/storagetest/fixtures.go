package storagetest

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/model"
)

// NewUser returns an unsaved user with the given email
func NewUser(email string) *model.User {
	return &model.User{
		ID:           uuid.New(),
		Email:        email,
		DisplayName:  "Test Manager",
		PasswordHash: "$2a$10$not-a-real-hash",
	}
}

// NewAuthToken returns an unsaved session for userID
func NewAuthToken(userID uuid.UUID, expires time.Time) *model.AuthToken {
	return &model.AuthToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: "hash-" + uuid.NewString(),
		ExpiresAt: expires,
	}
}

// NewClub returns an unsaved club with the given manager funds
func NewClub(userID uuid.UUID, funds int64) *model.Club {
	return &model.Club{
		ID:             uuid.New(),
		UserID:         userID,
		Name:           "Test United",
		CountryCode:    "GB",
		LogoURL:        "https://example.com/logo.png",
		ManagerFunds:   model.VersionedValue[int64]{Current: funds},
		TransferBudget: model.VersionedValue[int64]{Current: 5000},
		WageBudget:     model.VersionedValue[int64]{Current: 800},
	}
}

// NewPlayer returns an unsaved player at clubID
func NewPlayer(clubID uuid.UUID, name string, ability float64) *model.Player {
	return &model.Player{
		ID:          uuid.New(),
		ClubID:      clubID,
		Name:        name,
		CountryCode: "NL",
		Position:    model.PositionForward,
		Ability:     model.VersionedValue[float64]{Current: ability},
		Wages:       model.VersionedValue[int64]{Current: 500},
		MarketValue: model.VersionedValue[int64]{Current: 1_000_000},
	}
}

// NewPerformance returns an unsaved record of a first appearance
func NewPerformance(playerID uuid.UUID, competitionID string, rating float64) *model.MatchPerformance {
	return &model.MatchPerformance{
		ID:            uuid.New(),
		PlayerID:      playerID,
		CompetitionID: competitionID,
		Appearances:   1,
		MatchRating:   model.VersionedValue[float64]{Current: rating},
	}
}

// NewObjective returns an unsaved board objective for clubID
func NewObjective(clubID uuid.UUID, title string) *model.BoardObjective {
	return &model.BoardObjective{
		ID:          uuid.New(),
		ClubID:      clubID,
		Title:       title,
		Description: "Set by the board",
	}
}
