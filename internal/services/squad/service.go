package squad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/dependencies/ids"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/club"
	"github.com/mcoot/clubhouse/internal/storage"
)

// Errors
var (
	ErrInvalidPlayer = errors.New("invalid player")
	ErrInvalidMatch  = errors.New("invalid match result")
)

// Rating bounds for a single match
const (
	MinRating = 0.0
	MaxRating = 10.0
)

// Service manages the players of a club and their match records
type Service struct {
	storage storage.Storage
	clubs   *club.Service
	ids     ids.Generator
	logger  *slog.Logger
}

// New creates a new squad Service. Club ownership is checked through clubs.
func New(store storage.Storage, clubs *club.Service, idgen ids.Generator, logger *slog.Logger) *Service {
	return &Service{
		storage: store,
		clubs:   clubs,
		ids:     idgen,
		logger:  logger,
	}
}

// SignParams describes a newly signed player
type SignParams struct {
	Name        string
	CountryCode string
	Position    model.Position
	Ability     float64
	Wages       int64
	MarketValue int64
}

// Sign adds a player to one of userID's clubs
func (s *Service) Sign(ctx context.Context, userID, clubID uuid.UUID, params SignParams) (*model.Player, error) {
	if _, _, err := s.clubs.Get(ctx, userID, clubID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlayer)
	}
	if !params.Position.Valid() {
		return nil, fmt.Errorf("%w: unknown position %q", ErrInvalidPlayer, params.Position)
	}
	if params.Wages < 0 || params.MarketValue < 0 {
		return nil, fmt.Errorf("%w: wages and market value cannot be negative", ErrInvalidPlayer)
	}

	player := &model.Player{
		ID:          s.ids.NewID(),
		ClubID:      clubID,
		Name:        name,
		CountryCode: strings.ToUpper(params.CountryCode),
		Position:    params.Position,
		Ability:     model.VersionedValue[float64]{Current: params.Ability},
		Wages:       model.VersionedValue[int64]{Current: params.Wages},
		MarketValue: model.VersionedValue[int64]{Current: params.MarketValue},
	}
	if err := s.storage.Players().Insert(ctx, player); err != nil {
		return nil, err
	}

	s.logger.Info("player signed",
		slog.String("player_id", player.ID.String()),
		slog.String("club_id", clubID.String()))
	return player, nil
}

// Player returns a player of one of userID's clubs and its version token
func (s *Service) Player(ctx context.Context, userID, playerID uuid.UUID) (*model.Player, model.VersionToken, error) {
	player, token, err := s.storage.Players().Get(ctx, playerID)
	if err != nil {
		return nil, model.VersionToken{}, err
	}
	if _, _, err := s.clubs.Get(ctx, userID, player.ClubID); err != nil {
		return nil, model.VersionToken{}, err
	}
	return player, token, nil
}

// Attributes are the versioned player fields a manager may change.
// Nil fields keep their current value.
type Attributes struct {
	Ability     *float64
	Wages       *int64
	MarketValue *int64
}

// Update writes new attributes against the version the caller read.
// Conflicts are returned to the caller rather than retried.
func (s *Service) Update(ctx context.Context, userID, playerID uuid.UUID, token model.VersionToken, attrs Attributes) (*model.Player, error) {
	player, _, err := s.Player(ctx, userID, playerID)
	if err != nil {
		return nil, err
	}

	next := player.Clone()
	if attrs.Ability != nil {
		next = next.WithAbility(*attrs.Ability)
	}
	if attrs.Wages != nil {
		if *attrs.Wages < 0 {
			return nil, fmt.Errorf("%w: wages cannot be negative", ErrInvalidPlayer)
		}
		next = next.WithWages(*attrs.Wages)
	}
	if attrs.MarketValue != nil {
		if *attrs.MarketValue < 0 {
			return nil, fmt.Errorf("%w: market value cannot be negative", ErrInvalidPlayer)
		}
		next = next.WithMarketValue(*attrs.MarketValue)
	}

	if err := s.storage.Players().Update(ctx, playerID, token, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Release removes a player and all of their match performances
func (s *Service) Release(ctx context.Context, userID, playerID uuid.UUID) error {
	if _, _, err := s.Player(ctx, userID, playerID); err != nil {
		return err
	}

	performances, err := s.storage.MatchPerformances().FindByPlayer(ctx, playerID)
	if err != nil {
		return err
	}
	for _, p := range performances {
		if err := s.storage.MatchPerformances().Delete(ctx, p.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return err
		}
	}
	if err := s.storage.Players().Delete(ctx, playerID); err != nil {
		return err
	}

	s.logger.Info("player released", slog.String("player_id", playerID.String()))
	return nil
}

// RecordMatch applies one match to the player's record in a competition,
// creating the record on the player's first appearance
func (s *Service) RecordMatch(ctx context.Context, userID, playerID uuid.UUID, competitionID string, result model.MatchResult) (*model.MatchPerformance, error) {
	competitionID = strings.TrimSpace(competitionID)
	if competitionID == "" {
		return nil, fmt.Errorf("%w: competition is required", ErrInvalidMatch)
	}
	if result.Rating < MinRating || result.Rating > MaxRating {
		return nil, fmt.Errorf("%w: rating %.1f out of range", ErrInvalidMatch, result.Rating)
	}
	if result.Goals < 0 || result.Assists < 0 {
		return nil, fmt.Errorf("%w: counts cannot be negative", ErrInvalidMatch)
	}
	if _, _, err := s.Player(ctx, userID, playerID); err != nil {
		return nil, err
	}

	// a concurrent first appearance turns our insert into a duplicate; the second pass updates instead
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.storage.MatchPerformances().FindByPlayerAndCompetition(ctx, playerID, competitionID)
		if errors.Is(err, model.ErrNotFound) {
			perf := model.MatchPerformance{
				ID:            s.ids.NewID(),
				PlayerID:      playerID,
				CompetitionID: competitionID,
			}.WithMatch(result)
			err := s.storage.MatchPerformances().Insert(ctx, &perf)
			if errors.Is(err, model.ErrDuplicateKey) {
				continue
			}
			if err != nil {
				return nil, err
			}
			return &perf, nil
		}
		if err != nil {
			return nil, err
		}

		// the finder only locates the record; the write builds on what Get returns with the token
		current, token, err := s.storage.MatchPerformances().Get(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		next := current.WithMatch(result)
		if err := s.storage.MatchPerformances().Update(ctx, existing.ID, token, &next); err != nil {
			return nil, err
		}
		return &next, nil
	}
	return nil, fmt.Errorf("record match for %s in %s: %w", playerID, competitionID, model.ErrDuplicateKey)
}

// Form returns up to n of the player's most recent match ratings.
// An empty competitionID spans every competition the player appeared in.
func (s *Service) Form(ctx context.Context, userID, playerID uuid.UUID, competitionID string, n int) ([]float64, error) {
	if n <= 0 {
		n = model.DefaultFormLength
	}
	if _, _, err := s.Player(ctx, userID, playerID); err != nil {
		return nil, err
	}

	if competitionID == "" {
		performances, err := s.storage.MatchPerformances().FindByPlayer(ctx, playerID)
		if err != nil {
			return nil, err
		}
		values := make([]model.MatchPerformance, 0, len(performances))
		for _, p := range performances {
			values = append(values, *p)
		}
		return model.Form(values, n), nil
	}

	perf, err := s.storage.MatchPerformances().FindByPlayerAndCompetition(ctx, playerID, competitionID)
	if errors.Is(err, model.ErrNotFound) {
		return []float64{}, nil
	}
	if err != nil {
		return nil, err
	}
	return perf.MatchRating.Bounded(n).History, nil
}

// Summary returns the club's squad with each player's recent form
func (s *Service) Summary(ctx context.Context, userID, clubID uuid.UUID, formLength int) ([]model.SquadMember, error) {
	if formLength <= 0 {
		formLength = model.DefaultFormLength
	}
	if _, _, err := s.clubs.Get(ctx, userID, clubID); err != nil {
		return nil, err
	}
	return s.storage.SquadSummary(ctx, clubID, formLength)
}
