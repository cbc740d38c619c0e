// Package metrics decorates a storage backend with Prometheus instrumentation.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

const (
	namespace = "clubhouse"
	subsystem = "store"
)

// Outcome labels
const (
	OutcomeOK          = "ok"
	OutcomeNotFound    = "not_found"
	OutcomeDuplicate   = "duplicate"
	OutcomeConflict    = "conflict"
	OutcomeUnavailable = "unavailable"
	OutcomeIntegrity   = "integrity"
	OutcomeError       = "error"
)

// Recorder holds the store collectors
type Recorder struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRecorder registers the store collectors with reg
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operations_total",
				Help:      "Total number of storage operations by entity kind, operation and outcome",
			},
			[]string{"kind", "op", "outcome"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Time taken by storage operations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind", "op"},
		),
	}
}

// Outcome classifies err for the outcome label
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, model.ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, model.ErrDuplicateKey):
		return OutcomeDuplicate
	case errors.Is(err, model.ErrVersionConflict):
		return OutcomeConflict
	case errors.Is(err, model.ErrStorageUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, model.ErrIntegrityViolation):
		return OutcomeIntegrity
	default:
		return OutcomeError
	}
}

func (r *Recorder) observe(kind model.Kind, op string, start time.Time, err error) {
	r.operations.WithLabelValues(string(kind), op, Outcome(err)).Inc()
	r.duration.WithLabelValues(string(kind), op).Observe(time.Since(start).Seconds())
}

// Storage wraps a backend, recording every operation
type Storage struct {
	inner storage.Storage
	rec   *Recorder

	users        *userStore
	authTokens   *authTokenStore
	clubs        *clubStore
	players      *playerStore
	performances *matchPerformanceStore
	objectives   *boardObjectiveStore
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Wrap instruments inner with rec
func Wrap(inner storage.Storage, rec *Recorder) *Storage {
	return &Storage{
		inner:        inner,
		rec:          rec,
		users:        &userStore{store[model.User]{inner.Users(), model.KindUser, rec}, inner.Users()},
		authTokens:   &authTokenStore{store[model.AuthToken]{inner.AuthTokens(), model.KindAuthToken, rec}, inner.AuthTokens()},
		clubs:        &clubStore{store[model.Club]{inner.Clubs(), model.KindClub, rec}, inner.Clubs()},
		players:      &playerStore{store[model.Player]{inner.Players(), model.KindPlayer, rec}, inner.Players()},
		performances: &matchPerformanceStore{store[model.MatchPerformance]{inner.MatchPerformances(), model.KindMatchPerformance, rec}, inner.MatchPerformances()},
		objectives:   &boardObjectiveStore{store[model.BoardObjective]{inner.BoardObjectives(), model.KindBoardObjective, rec}, inner.BoardObjectives()},
	}
}

func (s *Storage) Users() storage.UserStore                         { return s.users }
func (s *Storage) AuthTokens() storage.AuthTokenStore               { return s.authTokens }
func (s *Storage) Clubs() storage.ClubStore                         { return s.clubs }
func (s *Storage) Players() storage.PlayerStore                     { return s.players }
func (s *Storage) MatchPerformances() storage.MatchPerformanceStore { return s.performances }
func (s *Storage) BoardObjectives() storage.BoardObjectiveStore     { return s.objectives }

func (s *Storage) SquadSummary(ctx context.Context, clubID uuid.UUID, formLength int) ([]model.SquadMember, error) {
	start := time.Now()
	members, err := s.inner.SquadSummary(ctx, clubID, formLength)
	s.rec.observe(model.KindPlayer, "squad_summary", start, err)
	return members, err
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

func (s *Storage) Close() error {
	return s.inner.Close()
}

// store instruments the operations shared by every kind
type store[E any] struct {
	inner storage.Store[E]
	kind  model.Kind
	rec   *Recorder
}

func (s store[E]) Insert(ctx context.Context, e *E) error {
	start := time.Now()
	err := s.inner.Insert(ctx, e)
	s.rec.observe(s.kind, "insert", start, err)
	return err
}

func (s store[E]) Get(ctx context.Context, id uuid.UUID) (*E, model.VersionToken, error) {
	start := time.Now()
	e, token, err := s.inner.Get(ctx, id)
	s.rec.observe(s.kind, "get", start, err)
	return e, token, err
}

func (s store[E]) Update(ctx context.Context, id uuid.UUID, token model.VersionToken, e *E) error {
	start := time.Now()
	err := s.inner.Update(ctx, id, token, e)
	s.rec.observe(s.kind, "update", start, err)
	return err
}

func (s store[E]) Delete(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := s.inner.Delete(ctx, id)
	s.rec.observe(s.kind, "delete", start, err)
	return err
}

type userStore struct {
	store[model.User]
	finder storage.UserStore
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	start := time.Now()
	u, err := s.finder.FindByEmail(ctx, email)
	s.rec.observe(s.kind, "find_by_email", start, err)
	return u, err
}

type authTokenStore struct {
	store[model.AuthToken]
	finder storage.AuthTokenStore
}

func (s *authTokenStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.AuthToken, error) {
	start := time.Now()
	out, err := s.finder.FindByUser(ctx, userID)
	s.rec.observe(s.kind, "find_by_user", start, err)
	return out, err
}

type clubStore struct {
	store[model.Club]
	finder storage.ClubStore
}

func (s *clubStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Club, error) {
	start := time.Now()
	out, err := s.finder.FindByUser(ctx, userID)
	s.rec.observe(s.kind, "find_by_user", start, err)
	return out, err
}

type playerStore struct {
	store[model.Player]
	finder storage.PlayerStore
}

func (s *playerStore) FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.Player, error) {
	start := time.Now()
	out, err := s.finder.FindByClub(ctx, clubID)
	s.rec.observe(s.kind, "find_by_club", start, err)
	return out, err
}

type matchPerformanceStore struct {
	store[model.MatchPerformance]
	finder storage.MatchPerformanceStore
}

func (s *matchPerformanceStore) FindByPlayer(ctx context.Context, playerID uuid.UUID) ([]*model.MatchPerformance, error) {
	start := time.Now()
	out, err := s.finder.FindByPlayer(ctx, playerID)
	s.rec.observe(s.kind, "find_by_player", start, err)
	return out, err
}

func (s *matchPerformanceStore) FindByPlayerAndCompetition(ctx context.Context, playerID uuid.UUID, competitionID string) (*model.MatchPerformance, error) {
	start := time.Now()
	out, err := s.finder.FindByPlayerAndCompetition(ctx, playerID, competitionID)
	s.rec.observe(s.kind, "find_by_player_competition", start, err)
	return out, err
}

type boardObjectiveStore struct {
	store[model.BoardObjective]
	finder storage.BoardObjectiveStore
}

func (s *boardObjectiveStore) FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.BoardObjective, error) {
	start := time.Now()
	out, err := s.finder.FindByClub(ctx, clubID)
	s.rec.observe(s.kind, "find_by_club", start, err)
	return out, err
}
