package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

// Storage implements storage.Storage over any Bucket
type Storage struct {
	bucket Bucket
	app    string

	users        *userStore
	authTokens   *authTokenStore
	clubs        *clubStore
	players      *playerStore
	performances *matchPerformanceStore
	objectives   *boardObjectiveStore
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// New creates a document storage keyed under app
func New(bucket Bucket, app string, clk clock.Clock) *Storage {
	return &Storage{
		bucket: bucket,
		app:    app,
		users: &userStore{&indexed[model.User, *model.User]{
			Collection: NewCollection[model.User](bucket, app, model.KindUser, clk),
			name:       "useremail",
			value:      func(u *model.User) string { return NormalizeEmail(u.Email) },
		}},
		authTokens: &authTokenStore{NewCollection[model.AuthToken](bucket, app, model.KindAuthToken, clk)},
		clubs:      &clubStore{NewCollection[model.Club](bucket, app, model.KindClub, clk)},
		players:    &playerStore{NewCollection[model.Player](bucket, app, model.KindPlayer, clk)},
		performances: &matchPerformanceStore{&indexed[model.MatchPerformance, *model.MatchPerformance]{
			Collection: NewCollection[model.MatchPerformance](bucket, app, model.KindMatchPerformance, clk),
			name:       "playercompetition",
			value: func(m *model.MatchPerformance) string {
				return performanceIndexValue(m.PlayerID, m.CompetitionID)
			},
		}},
		objectives: &boardObjectiveStore{NewCollection[model.BoardObjective](bucket, app, model.KindBoardObjective, clk)},
	}
}

func (s *Storage) Users() storage.UserStore                         { return s.users }
func (s *Storage) AuthTokens() storage.AuthTokenStore               { return s.authTokens }
func (s *Storage) Clubs() storage.ClubStore                         { return s.clubs }
func (s *Storage) Players() storage.PlayerStore                     { return s.players }
func (s *Storage) MatchPerformances() storage.MatchPerformanceStore { return s.performances }
func (s *Storage) BoardObjectives() storage.BoardObjectiveStore     { return s.objectives }

// SquadSummary reads the club's players and scans performances once for all of them
func (s *Storage) SquadSummary(ctx context.Context, clubID uuid.UUID, formLength int) ([]model.SquadMember, error) {
	players, err := s.players.FindByClub(ctx, clubID)
	if err != nil {
		return nil, err
	}
	if len(players) == 0 {
		return []model.SquadMember{}, nil
	}

	inSquad := make(map[uuid.UUID]bool, len(players))
	for _, p := range players {
		inSquad[p.ID] = true
	}
	performances, err := s.performances.Find(ctx, func(m *model.MatchPerformance) bool {
		return inSquad[m.PlayerID]
	})
	if err != nil {
		return nil, err
	}

	byPlayer := make(map[uuid.UUID][]model.MatchPerformance)
	for _, m := range performances {
		byPlayer[m.PlayerID] = append(byPlayer[m.PlayerID], *m)
	}

	members := make([]model.SquadMember, 0, len(players))
	for _, p := range players {
		members = append(members, model.SquadMember{
			Player: *p,
			Form:   model.Form(byPlayer[p.ID], formLength),
		})
	}
	model.SortSquad(members)
	return members, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return translate(s.bucket.Ping(ctx), "ping", s.app)
}

func (s *Storage) Close() error {
	return s.bucket.Close()
}

// NormalizeEmail is the form in which emails are compared
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func performanceIndexValue(playerID uuid.UUID, competitionID string) string {
	return fmt.Sprintf("%s::%s", playerID, competitionID)
}

type userStore struct {
	*indexed[model.User, *model.User]
}

func (s *userStore) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.lookup(ctx, NormalizeEmail(email))
}

type authTokenStore struct {
	*Collection[model.AuthToken, *model.AuthToken]
}

func (s *authTokenStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.AuthToken, error) {
	return s.Find(ctx, func(t *model.AuthToken) bool { return t.UserID == userID })
}

type clubStore struct {
	*Collection[model.Club, *model.Club]
}

func (s *clubStore) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Club, error) {
	return s.Find(ctx, func(c *model.Club) bool { return c.UserID == userID })
}

type playerStore struct {
	*Collection[model.Player, *model.Player]
}

func (s *playerStore) FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.Player, error) {
	return s.Find(ctx, func(p *model.Player) bool { return p.ClubID == clubID })
}

type matchPerformanceStore struct {
	*indexed[model.MatchPerformance, *model.MatchPerformance]
}

func (s *matchPerformanceStore) FindByPlayer(ctx context.Context, playerID uuid.UUID) ([]*model.MatchPerformance, error) {
	return s.Find(ctx, func(m *model.MatchPerformance) bool { return m.PlayerID == playerID })
}

func (s *matchPerformanceStore) FindByPlayerAndCompetition(ctx context.Context, playerID uuid.UUID, competitionID string) (*model.MatchPerformance, error) {
	return s.lookup(ctx, performanceIndexValue(playerID, competitionID))
}

type boardObjectiveStore struct {
	*Collection[model.BoardObjective, *model.BoardObjective]
}

func (s *boardObjectiveStore) FindByClub(ctx context.Context, clubID uuid.UUID) ([]*model.BoardObjective, error) {
	return s.Find(ctx, func(o *model.BoardObjective) bool { return o.ClubID == clubID })
}
