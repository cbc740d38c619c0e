package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
	"github.com/mcoot/clubhouse/internal/storage/reconcile"
)

// Storage is a PostgreSQL-backed implementation of the storage interface.
// Versioned fields live in append-only history tables next to each base table.
type Storage struct {
	conn *conn

	users        *userStore
	authTokens   *authTokenStore
	clubs        *clubStore
	players      *playerStore
	performances *matchPerformanceStore
	objectives   *boardObjectiveStore
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New creates a storage over db. The schema must already be migrated.
func New(db DB, clk clock.Clock, logger *slog.Logger) *Storage {
	c := &conn{db: db, clock: clk, logger: logger}
	return &Storage{
		conn:         c,
		users:        &userStore{newTable[model.User](c, userSchema)},
		authTokens:   &authTokenStore{newTable[model.AuthToken](c, authTokenSchema)},
		clubs:        &clubStore{newTable[model.Club](c, clubSchema)},
		players:      &playerStore{newTable[model.Player](c, playerSchema)},
		performances: &matchPerformanceStore{newTable[model.MatchPerformance](c, matchPerformanceSchema)},
		objectives:   &boardObjectiveStore{newTable[model.BoardObjective](c, boardObjectiveSchema)},
	}
}

// Open connects to the database in cfg, migrating the schema first when configured
func Open(ctx context.Context, cfg Config, clk clock.Clock, logger *slog.Logger) (*Storage, error) {
	if cfg.Migrate {
		if err := Migrate(cfg.URL, logger); err != nil {
			return nil, err
		}
	}
	pool, err := NewPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return New(pool, clk, logger), nil
}

func (s *Storage) Users() storage.UserStore                         { return s.users }
func (s *Storage) AuthTokens() storage.AuthTokenStore               { return s.authTokens }
func (s *Storage) Clubs() storage.ClubStore                         { return s.clubs }
func (s *Storage) Players() storage.PlayerStore                     { return s.players }
func (s *Storage) MatchPerformances() storage.MatchPerformanceStore { return s.performances }
func (s *Storage) BoardObjectives() storage.BoardObjectiveStore     { return s.objectives }

const squadRatingsSQL = `SELECT mp.id, mp.player_id, mp.last_modified_date, h.id, h.value, h.created_at
FROM match_performances mp
JOIN players p ON p.id = mp.player_id
JOIN ` + ratingHistoryTable + ` h ON h.match_performance_id = mp.id
WHERE p.club_id = $1
ORDER BY h.created_at DESC, h.id DESC`

type performanceHeader struct {
	playerID     uuid.UUID
	lastModified time.Time
}

// SquadSummary reads the club's players, then every rating of their
// performances in one joined query
func (s *Storage) SquadSummary(ctx context.Context, clubID uuid.UUID, formLength int) ([]model.SquadMember, error) {
	var members []model.SquadMember
	op := fmt.Sprintf("squad summary %s", clubID)
	err := s.conn.readTx(ctx, op, func(tx pgx.Tx) error {
		players, err := s.players.findIn(ctx, tx, "club_id = $1", clubID)
		if err != nil {
			return err
		}

		rows, err := tx.Query(ctx, squadRatingsSQL, clubID)
		if err != nil {
			return err
		}
		headers := make(map[uuid.UUID]performanceHeader)
		ratings, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (reconcile.Row[float64], error) {
			var (
				r reconcile.Row[float64]
				h performanceHeader
			)
			if err := row.Scan(&r.OwnerID, &h.playerID, &h.lastModified, &r.Seq, &r.Value, &r.CreatedAt); err != nil {
				return r, err
			}
			headers[r.OwnerID] = h
			return r, nil
		})
		if err != nil {
			return err
		}

		byPlayer := make(map[uuid.UUID][]model.MatchPerformance)
		for perfID, group := range reconcile.GroupByOwner(ratings) {
			rating, err := reconcile.Value(group, formLength)
			if err != nil {
				return err
			}
			h := headers[perfID]
			perf := model.MatchPerformance{ID: perfID, PlayerID: h.playerID, MatchRating: rating}
			perf.LastModifiedDate = h.lastModified
			byPlayer[h.playerID] = append(byPlayer[h.playerID], perf)
		}

		members = make([]model.SquadMember, 0, len(players))
		for _, p := range players {
			members = append(members, model.SquadMember{
				Player: *p,
				Form:   model.Form(byPlayer[p.ID], formLength),
			})
		}
		model.SortSquad(members)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	if err := s.conn.db.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w: %w", model.ErrStorageUnavailable, err)
	}
	return nil
}

// Close closes the connection pool
func (s *Storage) Close() error {
	s.conn.db.Close()
	return nil
}

type userStore struct {
	*table[model.User, *model.User]
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.find(ctx, "lower(email) = lower($1)", email)
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("find user by email: %w", model.ErrNotFound)
	}
	return users[0], nil
}

type authTokenStore struct {
	*table[model.AuthToken, *model.AuthToken]
}

func (s *authTokenStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.AuthToken, error) {
	return s.find(ctx, "user_id = $1", userID)
}

type clubStore struct {
	*table[model.Club, *model.Club]
}

func (s *clubStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Club, error) {
	return s.find(ctx, "user_id = $1", userID)
}

type playerStore struct {
	*table[model.Player, *model.Player]
}

func (s *playerStore) FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.Player, error) {
	return s.find(ctx, "club_id = $1", clubID)
}

type matchPerformanceStore struct {
	*table[model.MatchPerformance, *model.MatchPerformance]
}

func (s *matchPerformanceStore) FindByPlayer(ctx context.Context, playerID uuid.UUID) ([]*model.MatchPerformance, error) {
	return s.find(ctx, "player_id = $1", playerID)
}

func (s *matchPerformanceStore) FindByPlayerAndCompetition(ctx context.Context, playerID uuid.UUID, competitionID string) (*model.MatchPerformance, error) {
	found, err := s.find(ctx, "player_id = $1 AND competition_id = $2", playerID, competitionID)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("find performance of %s in %s: %w", playerID, competitionID, model.ErrNotFound)
	}
	return found[0], nil
}

type boardObjectiveStore struct {
	*table[model.BoardObjective, *model.BoardObjective]
}

func (s *boardObjectiveStore) FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.BoardObjective, error) {
	return s.find(ctx, "club_id = $1", clubID)
}
