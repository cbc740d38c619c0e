package club

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/dependencies/ids"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

// Errors
var (
	ErrNotOwner          = errors.New("club belongs to another user")
	ErrInvalidName       = errors.New("club name is required")
	ErrInsufficientFunds = errors.New("insufficient manager funds")
	ErrNegativeBudget    = errors.New("budgets cannot be negative")
	ErrTooManyConflicts  = errors.New("gave up after repeated version conflicts")
)

// Config holds configuration for the club service
type Config struct {
	// MaxAttempts bounds how often a read-modify-write is retried on a version conflict
	MaxAttempts int
}

// DefaultConfig returns default club configuration
func DefaultConfig() Config {
	return Config{MaxAttempts: 3}
}

// Service manages clubs, their finances and board objectives
type Service struct {
	storage     storage.Storage
	ids         ids.Generator
	logger      *slog.Logger
	maxAttempts int
}

// New creates a new club Service
func New(store storage.Storage, idgen ids.Generator, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultConfig().MaxAttempts
	}
	return &Service{
		storage:     store,
		ids:         idgen,
		logger:      logger,
		maxAttempts: cfg.MaxAttempts,
	}
}

// CreateParams describes a new club
type CreateParams struct {
	Name           string
	CountryCode    string
	LogoURL        string
	ManagerFunds   int64
	TransferBudget int64
	WageBudget     int64
}

// Create inserts a club owned by userID
func (s *Service) Create(ctx context.Context, userID uuid.UUID, params CreateParams) (*model.Club, error) {
	name := strings.TrimSpace(params.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if params.ManagerFunds < 0 {
		return nil, ErrInsufficientFunds
	}
	if params.TransferBudget < 0 || params.WageBudget < 0 {
		return nil, ErrNegativeBudget
	}

	club := &model.Club{
		ID:             s.ids.NewID(),
		UserID:         userID,
		Name:           name,
		CountryCode:    strings.ToUpper(params.CountryCode),
		LogoURL:        params.LogoURL,
		ManagerFunds:   model.VersionedValue[int64]{Current: params.ManagerFunds},
		TransferBudget: model.VersionedValue[int64]{Current: params.TransferBudget},
		WageBudget:     model.VersionedValue[int64]{Current: params.WageBudget},
	}
	if err := s.storage.Clubs().Insert(ctx, club); err != nil {
		return nil, err
	}

	s.logger.Info("club created",
		slog.String("club_id", club.ID.String()),
		slog.String("user_id", userID.String()))
	return club, nil
}

// Get returns a club owned by userID and its version token
func (s *Service) Get(ctx context.Context, userID, clubID uuid.UUID) (*model.Club, model.VersionToken, error) {
	club, token, err := s.storage.Clubs().Get(ctx, clubID)
	if err != nil {
		return nil, model.VersionToken{}, err
	}
	if club.UserID != userID {
		return nil, model.VersionToken{}, ErrNotOwner
	}
	return club, token, nil
}

// List returns every club owned by userID
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]*model.Club, error) {
	return s.storage.Clubs().FindByUser(ctx, userID)
}

// Changes are the caller-editable fields of a club
type Changes struct {
	Name           string
	CountryCode    string
	LogoURL        string
	TransferBudget int64
	WageBudget     int64
}

// Update writes changes against the version the caller read.
// A stale token surfaces as model.ErrVersionConflict.
func (s *Service) Update(ctx context.Context, userID, clubID uuid.UUID, token model.VersionToken, changes Changes) (*model.Club, error) {
	club, _, err := s.Get(ctx, userID, clubID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(changes.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if changes.TransferBudget < 0 || changes.WageBudget < 0 {
		return nil, ErrNegativeBudget
	}

	next := club.WithName(name).WithBudgets(changes.TransferBudget, changes.WageBudget)
	next.CountryCode = strings.ToUpper(changes.CountryCode)
	next.LogoURL = changes.LogoURL
	if err := s.storage.Clubs().Update(ctx, clubID, token, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Rename changes a club's name
func (s *Service) Rename(ctx context.Context, userID, clubID uuid.UUID, name string) (*model.Club, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	return s.mutate(ctx, userID, clubID, func(c model.Club) (model.Club, error) {
		return c.WithName(name), nil
	})
}

// AdjustFunds adds delta to the manager funds, refusing to go below zero
func (s *Service) AdjustFunds(ctx context.Context, userID, clubID uuid.UUID, delta int64) (*model.Club, error) {
	return s.mutate(ctx, userID, clubID, func(c model.Club) (model.Club, error) {
		funds := c.ManagerFunds.Current + delta
		if funds < 0 {
			return c, ErrInsufficientFunds
		}
		return c.WithManagerFunds(funds), nil
	})
}

// SetBudgets replaces the transfer and wage budgets
func (s *Service) SetBudgets(ctx context.Context, userID, clubID uuid.UUID, transfer, wages int64) (*model.Club, error) {
	if transfer < 0 || wages < 0 {
		return nil, ErrNegativeBudget
	}
	return s.mutate(ctx, userID, clubID, func(c model.Club) (model.Club, error) {
		return c.WithBudgets(transfer, wages), nil
	})
}

// mutate applies fn to the latest stored club, re-reading and retrying on a version conflict
func (s *Service) mutate(ctx context.Context, userID, clubID uuid.UUID, fn func(model.Club) (model.Club, error)) (*model.Club, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		club, token, err := s.Get(ctx, userID, clubID)
		if err != nil {
			return nil, err
		}
		next, err := fn(*club)
		if err != nil {
			return nil, err
		}

		err = s.storage.Clubs().Update(ctx, clubID, token, &next)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return nil, err
		}
		s.logger.Warn("club update conflicted, retrying",
			slog.String("club_id", clubID.String()),
			slog.Int("attempt", attempt))
	}
	return nil, fmt.Errorf("update club %s: %w: %w", clubID, ErrTooManyConflicts, model.ErrVersionConflict)
}

// Delete removes a club with its players, their performances and the board objectives
func (s *Service) Delete(ctx context.Context, userID, clubID uuid.UUID) error {
	if _, _, err := s.Get(ctx, userID, clubID); err != nil {
		return err
	}

	players, err := s.storage.Players().FindByClub(ctx, clubID)
	if err != nil {
		return err
	}
	for _, p := range players {
		performances, err := s.storage.MatchPerformances().FindByPlayer(ctx, p.ID)
		if err != nil {
			return err
		}
		for _, perf := range performances {
			if err := ignoreNotFound(s.storage.MatchPerformances().Delete(ctx, perf.ID)); err != nil {
				return err
			}
		}
		if err := ignoreNotFound(s.storage.Players().Delete(ctx, p.ID)); err != nil {
			return err
		}
	}

	objectives, err := s.storage.BoardObjectives().FindByClub(ctx, clubID)
	if err != nil {
		return err
	}
	for _, o := range objectives {
		if err := ignoreNotFound(s.storage.BoardObjectives().Delete(ctx, o.ID)); err != nil {
			return err
		}
	}

	if err := s.storage.Clubs().Delete(ctx, clubID); err != nil {
		return err
	}
	s.logger.Info("club deleted",
		slog.String("club_id", clubID.String()),
		slog.Int("players", len(players)))
	return nil
}

// AddObjective sets a new board objective for a club
func (s *Service) AddObjective(ctx context.Context, userID, clubID uuid.UUID, title, description string) (*model.BoardObjective, error) {
	if _, _, err := s.Get(ctx, userID, clubID); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidName
	}
	objective := &model.BoardObjective{
		ID:          s.ids.NewID(),
		ClubID:      clubID,
		Title:       title,
		Description: description,
	}
	if err := s.storage.BoardObjectives().Insert(ctx, objective); err != nil {
		return nil, err
	}
	return objective, nil
}

// CompleteObjective marks an objective of one of userID's clubs as done
func (s *Service) CompleteObjective(ctx context.Context, userID, objectiveID uuid.UUID) (*model.BoardObjective, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		objective, token, err := s.storage.BoardObjectives().Get(ctx, objectiveID)
		if err != nil {
			return nil, err
		}
		if _, _, err := s.Get(ctx, userID, objective.ClubID); err != nil {
			return nil, err
		}
		if objective.Completed {
			return objective, nil
		}

		next := objective.WithCompleted(true)
		err = s.storage.BoardObjectives().Update(ctx, objectiveID, token, &next)
		if err == nil {
			return &next, nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("complete objective %s: %w: %w", objectiveID, ErrTooManyConflicts, model.ErrVersionConflict)
}

// Objectives lists a club's board objectives
func (s *Service) Objectives(ctx context.Context, userID, clubID uuid.UUID) ([]*model.BoardObjective, error) {
	if _, _, err := s.Get(ctx, userID, clubID); err != nil {
		return nil, err
	}
	return s.storage.BoardObjectives().FindByClub(ctx, clubID)
}

func ignoreNotFound(err error) error {
	if errors.Is(err, model.ErrNotFound) {
		return nil
	}
	return err
}
