package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/dependencies/ids"
	"github.com/mcoot/clubhouse/internal/dependencies/random"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password too short")
)

// MinPasswordLength is the shortest password Register accepts
const MinPasswordLength = 8

// secretBytes is the entropy of a bearer secret
const secretBytes = 32

// Session is an issued bearer token and the user it authenticates
type Session struct {
	// Token is the bearer string handed to the client. It is never stored.
	Token     string
	TokenID   uuid.UUID
	User      model.User
	ExpiresAt time.Time
}

// Service handles registration, login and bearer token validation
type Service struct {
	storage storage.Storage
	clock   clock.Clock
	ids     ids.Generator
	random  random.Random
	logger  *slog.Logger

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(store storage.Storage, clk clock.Clock, idgen ids.Generator, rnd random.Random, cfg Config, logger *slog.Logger) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		storage:         store,
		clock:           clk,
		ids:             idgen,
		random:          rnd,
		logger:          logger,
		sessionDuration: cfg.SessionDuration,
	}
}

// Register creates a user account and logs it in
func (s *Service) Register(ctx context.Context, email, password, displayName string) (*Session, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return nil, ErrWeakPassword
	}

	_, err := s.storage.Users().FindByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailTaken
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	if displayName == "" {
		displayName = email
	}
	user := &model.User{
		ID:           s.ids.NewID(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
	}
	if err := s.storage.Users().Insert(ctx, user); err != nil {
		// lost a race with another registration for the same address
		if errors.Is(err, model.ErrDuplicateKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))
	return s.createSession(ctx, user)
}

// Login checks a user's password and issues a new session
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.storage.Users().FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.createSession(ctx, user)
}

// Validate resolves a bearer token to its user
func (s *Service) Validate(ctx context.Context, bearer string) (*model.User, error) {
	token, err := s.lookup(ctx, bearer)
	if err != nil {
		return nil, err
	}

	if token.Expired(s.clock.Now()) {
		if err := s.storage.AuthTokens().Delete(ctx, token.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			s.logger.Warn("failed to delete expired token",
				slog.String("token_id", token.ID.String()),
				slog.String("error", err.Error()))
		}
		return nil, ErrInvalidSession
	}

	user, _, err := s.storage.Users().Get(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	return user, nil
}

// Logout revokes a bearer token
func (s *Service) Logout(ctx context.Context, bearer string) error {
	token, err := s.lookup(ctx, bearer)
	if err != nil {
		return err
	}
	if err := s.storage.AuthTokens().Delete(ctx, token.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ErrInvalidSession
		}
		return err
	}
	s.logger.Info("session revoked", slog.String("user_id", token.UserID.String()))
	return nil
}

// Sessions lists a user's unexpired tokens
func (s *Service) Sessions(ctx context.Context, userID uuid.UUID) ([]*model.AuthToken, error) {
	tokens, err := s.storage.AuthTokens().FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	active := make([]*model.AuthToken, 0, len(tokens))
	for _, t := range tokens {
		if !t.Expired(now) {
			active = append(active, t)
		}
	}
	return active, nil
}

// CleanExpiredSessions deletes a user's expired tokens and returns how many were removed
func (s *Service) CleanExpiredSessions(ctx context.Context, userID uuid.UUID) (int, error) {
	tokens, err := s.storage.AuthTokens().FindByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	now := s.clock.Now()
	removed := 0
	for _, t := range tokens {
		if !t.Expired(now) {
			continue
		}
		if err := s.storage.AuthTokens().Delete(ctx, t.ID); err != nil && !errors.Is(err, model.ErrNotFound) {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// createSession persists a token for user and returns its bearer string
func (s *Service) createSession(ctx context.Context, user *model.User) (*Session, error) {
	secret := s.random.Secret(secretBytes)
	token := &model.AuthToken{
		ID:        s.ids.NewID(),
		UserID:    user.ID,
		TokenHash: hashSecret(secret),
		ExpiresAt: s.clock.Now().Add(s.sessionDuration),
	}

	actorCtx := storage.WithActor(ctx, user.ID.String())
	if err := s.storage.AuthTokens().Insert(actorCtx, token); err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &Session{
		Token:     FormatBearer(token.ID, secret),
		TokenID:   token.ID,
		User:      *user,
		ExpiresAt: token.ExpiresAt,
	}, nil
}

// lookup finds the stored token matching bearer
func (s *Service) lookup(ctx context.Context, bearer string) (*model.AuthToken, error) {
	id, secret, ok := ParseBearer(bearer)
	if !ok {
		return nil, ErrInvalidSession
	}
	token, _, err := s.storage.AuthTokens().Get(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hashSecret(secret))) != 1 {
		return nil, ErrInvalidSession
	}
	return token, nil
}

// FormatBearer joins a token id and its secret into a bearer string
func FormatBearer(id uuid.UUID, secret string) string {
	return id.String() + "." + secret
}

// ParseBearer splits a bearer string into token id and secret
func ParseBearer(bearer string) (uuid.UUID, string, bool) {
	rawID, secret, found := strings.Cut(bearer, ".")
	if !found || secret == "" {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, secret, true
}

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
