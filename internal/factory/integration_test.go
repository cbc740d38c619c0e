package factory

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clubhouse/internal/config"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/services/club"
	"github.com/mcoot/clubhouse/internal/services/squad"
	"github.com/mcoot/clubhouse/internal/storage"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
}

// Test: a manager registers, builds a squad, plays matches and reviews finances
func (s *IntegrationSuite) TestSeasonFlow() {
	// Step 1: Register and authenticate
	session, err := s.app.AuthService.Register(s.ctx, "manager@example.com", "password123", "Manager")
	s.Require().NoError(err)
	user, err := s.app.AuthService.Validate(s.ctx, session.Token)
	s.Require().NoError(err)
	ctx := storage.WithActor(s.ctx, user.ID.String())

	// Step 2: Create a club
	c, err := s.app.ClubService.Create(ctx, user.ID, club.CreateParams{
		Name: "Harbour Town", CountryCode: "NZ", ManagerFunds: 1000, TransferBudget: 5000, WageBudget: 800,
	})
	s.Require().NoError(err)
	s.Equal(user.ID.String(), c.CreatedBy)

	// Step 3: Sign two players
	striker, err := s.app.SquadService.Sign(ctx, user.ID, c.ID, squad.SignParams{
		Name: "Striker", Position: model.PositionForward, Ability: 72, Wages: 300, MarketValue: 900_000,
	})
	s.Require().NoError(err)
	_, err = s.app.SquadService.Sign(ctx, user.ID, c.ID, squad.SignParams{
		Name: "Keeper", Position: model.PositionGoalkeeper, Ability: 65, Wages: 200, MarketValue: 400_000,
	})
	s.Require().NoError(err)

	// Step 4: Play matches in two competitions
	for _, rating := range []float64{6.5, 7.0, 8.5} {
		_, err := s.app.SquadService.RecordMatch(ctx, user.ID, striker.ID, "league", model.MatchResult{Rating: rating, Goals: 1})
		s.Require().NoError(err)
	}
	_, err = s.app.SquadService.RecordMatch(ctx, user.ID, striker.ID, "cup", model.MatchResult{Rating: 9.0, Goals: 2})
	s.Require().NoError(err)

	// Step 5: Squad summary bounds form to the configured length
	members, err := s.app.SquadService.Summary(ctx, user.ID, c.ID, 3)
	s.Require().NoError(err)
	s.Require().Len(members, 2)
	s.Equal([]float64{9.0, 8.5, 7.0}, members[0].Form)
	s.Empty(members[1].Form)

	// Step 6: Finances keep their full history
	_, err = s.app.ClubService.AdjustFunds(ctx, user.ID, c.ID, 200)
	s.Require().NoError(err)
	_, err = s.app.ClubService.AdjustFunds(ctx, user.ID, c.ID, 300)
	s.Require().NoError(err)
	stored, _, err := s.app.ClubService.Get(ctx, user.ID, c.ID)
	s.Require().NoError(err)
	s.Equal([]int64{1500, 1200, 1000}, stored.ManagerFunds.History)

	// Step 7: Deleting the club removes everything beneath it
	s.Require().NoError(s.app.ClubService.Delete(ctx, user.ID, c.ID))
	players, err := s.app.Storage.Players().FindByClub(ctx, c.ID)
	s.Require().NoError(err)
	s.Empty(players)
}

func (s *IntegrationSuite) TestStoreOperationsAreMetered() {
	_, err := s.app.AuthService.Register(s.ctx, "manager@example.com", "password123", "Manager")
	s.Require().NoError(err)

	families, err := s.app.Registry.Gather()
	s.Require().NoError(err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	s.Contains(names, "clubhouse_store_operations_total")
}

func TestNewWithMemoryBackend(t *testing.T) {
	app, err := New(context.Background(), Config{})
	require.NoError(t, err)
	defer app.Close()

	assert.NoError(t, app.Storage.Ping(context.Background()))
	assert.Equal(t, 5, app.FormLength)
}

func TestNewWithRedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	settings := config.Default()
	settings.Storage.Backend = "document"

	app, err := New(context.Background(), Config{
		Settings:    settings,
		RedisClient: goredis.NewClient(&goredis.Options{Addr: mr.Addr()}),
	})
	require.NoError(t, err)
	defer app.Close()

	ctx := context.Background()
	session, err := app.AuthService.Register(ctx, "manager@example.com", "password123", "Manager")
	require.NoError(t, err)
	assert.True(t, mr.Exists("clubhouse::user::"+session.User.ID.String()))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	settings := config.Default()
	settings.Storage.Backend = "cassandra"

	_, err := New(context.Background(), Config{Settings: settings})
	assert.ErrorContains(t, err, "unknown storage backend")
}
