// Package storagetest holds the behavioural contract every storage backend must pass.
package storagetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/dependencies/mocks"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
)

// Epoch is the mock clock's starting time in every contract test
var Epoch = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

// Suite runs the storage contract against the backend built by NewStorage.
//
// Backends embed it or pass it to suite.Run with NewStorage set.
type Suite struct {
	suite.Suite

	// NewStorage returns an empty storage stamping times from clk
	NewStorage func(t *testing.T, clk clock.Clock) storage.Storage

	// HistoryRows, when set, counts persisted history entries referencing id
	HistoryRows func(t *testing.T, id uuid.UUID) int

	Clock   *mocks.MockClock
	Storage storage.Storage
	ctx     context.Context
}

func (s *Suite) SetupTest() {
	s.Clock = mocks.NewMockClock(Epoch)
	s.Clock.Tick(time.Second)
	s.Storage = s.NewStorage(s.T(), s.Clock)
	s.ctx = storage.WithActor(context.Background(), "contract-test")
}

func (s *Suite) TearDownTest() {
	if s.Storage != nil {
		_ = s.Storage.Close()
	}
}

func (s *Suite) insertClub(userID uuid.UUID, funds int64) *model.Club {
	club := NewClub(userID, funds)
	s.Require().NoError(s.Storage.Clubs().Insert(s.ctx, club))
	return club
}

func (s *Suite) getClub(id uuid.UUID) (*model.Club, model.VersionToken) {
	club, token, err := s.Storage.Clubs().Get(s.ctx, id)
	s.Require().NoError(err)
	return club, token
}

func (s *Suite) setFunds(id uuid.UUID, funds int64) {
	club, token := s.getClub(id)
	next := club.WithManagerFunds(funds)
	s.Require().NoError(s.Storage.Clubs().Update(s.ctx, id, token, &next))
}

// Insert and get

func (s *Suite) TestInsertSeedsHistory() {
	club := s.insertClub(uuid.New(), 1000)
	s.Equal([]int64{1000}, club.ManagerFunds.History)

	got, token := s.getClub(club.ID)
	s.False(token.IsZero())
	s.Equal(int64(1000), got.ManagerFunds.Current)
	s.Equal([]int64{1000}, got.ManagerFunds.History)
	s.Equal([]int64{5000}, got.TransferBudget.History)
	s.Equal([]int64{800}, got.WageBudget.History)
	s.Equal("contract-test", got.CreatedBy)
	s.True(got.CreatedDate.Equal(got.LastModifiedDate))
}

func (s *Suite) TestInsertDefaultsActor() {
	user := NewUser("nobody@example.com")
	s.Require().NoError(s.Storage.Users().Insert(context.Background(), user))

	got, _, err := s.Storage.Users().Get(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(model.SystemActor, got.CreatedBy)
}

func (s *Suite) TestInsertIgnoresCallerAudit() {
	club := NewClub(uuid.New(), 10)
	club.CreatedBy = "forged"
	club.CreatedDate = Epoch.Add(-24 * time.Hour)
	s.Require().NoError(s.Storage.Clubs().Insert(s.ctx, club))

	got, _ := s.getClub(club.ID)
	s.Equal("contract-test", got.CreatedBy)
	s.False(got.CreatedDate.Before(Epoch))
}

func (s *Suite) TestRoundTrip() {
	player := NewPlayer(uuid.New(), "Ada Striker", 71.5)
	want := player.Clone()
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, player))

	got, _, err := s.Storage.Players().Get(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Equal(want.ID, got.ID)
	s.Equal(want.ClubID, got.ClubID)
	s.Equal(want.Name, got.Name)
	s.Equal(want.CountryCode, got.CountryCode)
	s.Equal(want.Position, got.Position)
	s.Equal(model.Seed(want.Ability.Current), got.Ability)
	s.Equal(model.Seed(want.Wages.Current), got.Wages)
	s.Equal(model.Seed(want.MarketValue.Current), got.MarketValue)
}

func (s *Suite) TestInsertDuplicate() {
	club := s.insertClub(uuid.New(), 1000)
	again := NewClub(uuid.New(), 1)
	again.ID = club.ID

	err := s.Storage.Clubs().Insert(s.ctx, again)
	s.ErrorIs(err, model.ErrDuplicateKey)

	got, _ := s.getClub(club.ID)
	s.Equal(int64(1000), got.ManagerFunds.Current)
}

func (s *Suite) TestInsertMissingID() {
	club := NewClub(uuid.New(), 1)
	club.ID = uuid.Nil
	s.ErrorIs(s.Storage.Clubs().Insert(s.ctx, club), model.ErrMissingID)
}

func (s *Suite) TestGetNotFound() {
	_, _, err := s.Storage.Clubs().Get(s.ctx, uuid.New())
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *Suite) TestIdempotentRead() {
	club := s.insertClub(uuid.New(), 1000)
	s.setFunds(club.ID, 1100)

	first, t1 := s.getClub(club.ID)
	second, t2 := s.getClub(club.ID)
	s.Equal(first, second)
	s.True(t1.Equal(t2))
}

// Versioned history

func (s *Suite) TestFundsScenario() {
	club := s.insertClub(uuid.New(), 1000)
	s.setFunds(club.ID, 1200)
	s.setFunds(club.ID, 1500)

	got, _ := s.getClub(club.ID)
	s.Equal(int64(1500), got.ManagerFunds.Current)
	s.Equal([]int64{1500, 1200, 1000}, got.ManagerFunds.History)
}

func (s *Suite) TestHistoryMonotonicity() {
	player := NewPlayer(uuid.New(), "Grace", 50)
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, player))

	previous := []float64{50}
	for i := 1; i <= 6; i++ {
		got, token, err := s.Storage.Players().Get(s.ctx, player.ID)
		s.Require().NoError(err)
		next := got.WithAbility(50 + float64(i))
		s.Require().NoError(s.Storage.Players().Update(s.ctx, player.ID, token, &next))

		after, _, err := s.Storage.Players().Get(s.ctx, player.ID)
		s.Require().NoError(err)
		s.Len(after.Ability.History, 1+i)
		s.True(after.Ability.Valid())
		s.Equal(previous, after.Ability.History[1:])
		previous = after.Ability.History
	}
}

func (s *Suite) TestUnchangedValueDoesNotAppend() {
	club := s.insertClub(uuid.New(), 1000)
	got, token := s.getClub(club.ID)

	renamed := got.WithName("Renamed FC")
	s.Require().NoError(s.Storage.Clubs().Update(s.ctx, club.ID, token, &renamed))

	after, next := s.getClub(club.ID)
	s.Equal("Renamed FC", after.Name)
	s.Equal([]int64{1000}, after.ManagerFunds.History)
	s.Equal([]int64{5000}, after.TransferBudget.History)
	s.False(token.Equal(next))
}

func (s *Suite) TestUpdateIgnoresCallerHistory() {
	club := s.insertClub(uuid.New(), 1000)
	got, token := s.getClub(club.ID)

	got.ManagerFunds = model.VersionedValue[int64]{Current: 2000, History: []int64{2000, 1, 2, 3}}
	s.Require().NoError(s.Storage.Clubs().Update(s.ctx, club.ID, token, got))
	s.Equal([]int64{2000, 1000}, got.ManagerFunds.History)

	after, _ := s.getClub(club.ID)
	s.Equal([]int64{2000, 1000}, after.ManagerFunds.History)
}

func (s *Suite) TestUpdateCarriesAudit() {
	club := s.insertClub(uuid.New(), 1000)
	got, token := s.getClub(club.ID)

	next := got.WithName("Later")
	next.CreatedBy = "forged"
	ctx := storage.WithActor(context.Background(), "someone-else")
	s.Require().NoError(s.Storage.Clubs().Update(ctx, club.ID, token, &next))

	after, _ := s.getClub(club.ID)
	s.Equal("contract-test", after.CreatedBy)
	s.True(after.CreatedDate.Equal(got.CreatedDate))
	s.True(after.LastModifiedDate.After(got.LastModifiedDate))
}

func (s *Suite) TestRepeatedMatchRatingAppends() {
	player := NewPlayer(uuid.New(), "Rating Twin", 60)
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, player))
	perf := NewPerformance(player.ID, "league", 7.0)
	s.Require().NoError(s.Storage.MatchPerformances().Insert(s.ctx, perf))

	got, token, err := s.Storage.MatchPerformances().Get(s.ctx, perf.ID)
	s.Require().NoError(err)
	next := got.WithMatch(model.MatchResult{Goals: 1, Rating: 7.0})
	s.Require().NoError(s.Storage.MatchPerformances().Update(s.ctx, perf.ID, token, &next))

	after, _, err := s.Storage.MatchPerformances().Get(s.ctx, perf.ID)
	s.Require().NoError(err)
	s.Equal(2, after.Appearances)
	s.Equal(1, after.Goals)
	s.Equal([]float64{7.0, 7.0}, after.MatchRating.History)
}

// Optimistic concurrency

func (s *Suite) TestStaleTokenConflicts() {
	club := s.insertClub(uuid.New(), 1000)
	stale, t1 := s.getClub(club.ID)

	s.setFunds(club.ID, 1200)
	fresh, t2 := s.getClub(club.ID)
	s.False(t1.Equal(t2))

	next := stale.WithManagerFunds(9999)
	err := s.Storage.Clubs().Update(s.ctx, club.ID, t1, &next)
	s.ErrorIs(err, model.ErrVersionConflict)

	after, t3 := s.getClub(club.ID)
	s.Equal(fresh, after)
	s.True(t2.Equal(t3))
}

func (s *Suite) TestZeroTokenConflicts() {
	club := s.insertClub(uuid.New(), 1000)
	next := club.WithManagerFunds(1)
	err := s.Storage.Clubs().Update(s.ctx, club.ID, model.VersionToken{}, &next)
	s.ErrorIs(err, model.ErrVersionConflict)
}

func (s *Suite) TestUpdateNotFound() {
	club := NewClub(uuid.New(), 1)
	err := s.Storage.Clubs().Update(s.ctx, club.ID, model.RevisionToken(1), club)
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *Suite) TestConcurrentUpdatesOneWins() {
	player := NewPlayer(uuid.New(), "Contested", 60)
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, player))
	got, token, err := s.Storage.Players().Get(s.ctx, player.ID)
	s.Require().NoError(err)

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := got.WithWages(int64(1000 + i))
			errs[i] = s.Storage.Players().Update(s.ctx, player.ID, token, &next)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrVersionConflict)
	}
	s.Equal(1, succeeded)

	after, _, err := s.Storage.Players().Get(s.ctx, player.ID)
	s.Require().NoError(err)
	s.Len(after.Wages.History, 2)
}

func (s *Suite) TestConflictLeavesCallerEntityUntouched() {
	player := NewPlayer(uuid.New(), "Stale", 60)
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, player))
	stale, token, err := s.Storage.Players().Get(s.ctx, player.ID)
	s.Require().NoError(err)

	fresh := stale.WithWages(2000)
	s.Require().NoError(s.Storage.Players().Update(s.ctx, player.ID, token, &fresh))

	next := stale.WithWages(3000)
	before := next.Clone()
	err = s.Storage.Players().Update(s.ctx, player.ID, token, &next)
	s.Require().ErrorIs(err, model.ErrVersionConflict)
	s.Equal(before, next)
}

func (s *Suite) TestConcurrentEmailChangesOneWins() {
	user := NewUser("contested@example.com")
	s.Require().NoError(s.Storage.Users().Insert(s.ctx, user))
	got, token, err := s.Storage.Users().Get(s.ctx, user.ID)
	s.Require().NoError(err)

	const writers = 8
	emails := make([]string, writers)
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		emails[i] = fmt.Sprintf("writer%d@example.com", i)
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			next := *got
			next.Email = emails[i]
			errs[i] = s.Storage.Users().Update(s.ctx, user.ID, token, &next)
		}(i)
	}
	wg.Wait()

	winner := -1
	for i, err := range errs {
		if err == nil {
			s.Equal(-1, winner, "only one writer may succeed")
			winner = i
			continue
		}
		s.ErrorIs(err, model.ErrVersionConflict)
	}
	s.Require().NotEqual(-1, winner)

	found, err := s.Storage.Users().FindByEmail(s.ctx, emails[winner])
	s.Require().NoError(err)
	s.Equal(user.ID, found.ID)

	// every losing address and the original one are free again
	for i, email := range append(emails, "contested@example.com") {
		if i == winner {
			continue
		}
		_, err := s.Storage.Users().FindByEmail(s.ctx, email)
		s.ErrorIs(err, model.ErrNotFound, email)
		s.NoError(s.Storage.Users().Insert(s.ctx, NewUser(email)), email)
	}
}

func (s *Suite) TestConcurrentUpdateAndDeleteReleaseEmails() {
	for round := 0; round < 10; round++ {
		from := fmt.Sprintf("from%d@example.com", round)
		to := fmt.Sprintf("to%d@example.com", round)
		user := NewUser(from)
		s.Require().NoError(s.Storage.Users().Insert(s.ctx, user))
		got, token, err := s.Storage.Users().Get(s.ctx, user.ID)
		s.Require().NoError(err)

		var updateErr, deleteErr error
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			next := *got
			next.Email = to
			updateErr = s.Storage.Users().Update(s.ctx, user.ID, token, &next)
		}()
		go func() {
			defer wg.Done()
			deleteErr = s.Storage.Users().Delete(s.ctx, user.ID)
		}()
		wg.Wait()

		s.Require().NoError(deleteErr)
		if updateErr != nil {
			s.True(errors.Is(updateErr, model.ErrNotFound) || errors.Is(updateErr, model.ErrVersionConflict), updateErr)
		}

		_, _, err = s.Storage.Users().Get(s.ctx, user.ID)
		s.ErrorIs(err, model.ErrNotFound)
		for _, email := range []string{from, to} {
			_, err := s.Storage.Users().FindByEmail(s.ctx, email)
			s.ErrorIs(err, model.ErrNotFound, email)
			s.NoError(s.Storage.Users().Insert(s.ctx, NewUser(email)), email)
		}
	}
}

func (s *Suite) TestConcurrentPerformanceInsertsOneWins() {
	playerID := uuid.New()

	const writers = 8
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Storage.MatchPerformances().Insert(s.ctx, NewPerformance(playerID, "league", float64(i)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, model.ErrDuplicateKey)
	}
	s.Equal(1, succeeded)

	all, err := s.Storage.MatchPerformances().FindByPlayer(s.ctx, playerID)
	s.Require().NoError(err)
	s.Len(all, 1)
}

// Delete

func (s *Suite) TestDeleteCompleteness() {
	club := s.insertClub(uuid.New(), 1000)
	s.setFunds(club.ID, 1200)

	s.Require().NoError(s.Storage.Clubs().Delete(s.ctx, club.ID))

	_, _, err := s.Storage.Clubs().Get(s.ctx, club.ID)
	s.ErrorIs(err, model.ErrNotFound)
	if s.HistoryRows != nil {
		s.Zero(s.HistoryRows(s.T(), club.ID))
	}

	s.ErrorIs(s.Storage.Clubs().Delete(s.ctx, club.ID), model.ErrNotFound)
}

func (s *Suite) TestDeleteLeavesOthers() {
	userID := uuid.New()
	keep := s.insertClub(userID, 1)
	drop := s.insertClub(userID, 2)

	s.Require().NoError(s.Storage.Clubs().Delete(s.ctx, drop.ID))

	got, _ := s.getClub(keep.ID)
	s.Equal([]int64{1}, got.ManagerFunds.History)
	if s.HistoryRows != nil {
		s.Equal(3, s.HistoryRows(s.T(), keep.ID))
	}
}

// Finders

func (s *Suite) TestUserFindByEmail() {
	user := NewUser("Manager@Example.com")
	s.Require().NoError(s.Storage.Users().Insert(s.ctx, user))

	got, err := s.Storage.Users().FindByEmail(s.ctx, "manager@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, got.ID)

	_, err = s.Storage.Users().FindByEmail(s.ctx, "other@example.com")
	s.ErrorIs(err, model.ErrNotFound)
}

func (s *Suite) TestUserDuplicateEmail() {
	s.Require().NoError(s.Storage.Users().Insert(s.ctx, NewUser("dup@example.com")))
	err := s.Storage.Users().Insert(s.ctx, NewUser("DUP@example.com"))
	s.ErrorIs(err, model.ErrDuplicateKey)
}

func (s *Suite) TestUserUpdateAndDelete() {
	user := NewUser("update@example.com")
	s.Require().NoError(s.Storage.Users().Insert(s.ctx, user))

	got, token, err := s.Storage.Users().Get(s.ctx, user.ID)
	s.Require().NoError(err)
	next := got.WithDisplayName("New Name")
	s.Require().NoError(s.Storage.Users().Update(s.ctx, user.ID, token, &next))

	found, err := s.Storage.Users().FindByEmail(s.ctx, "update@example.com")
	s.Require().NoError(err)
	s.Equal("New Name", found.DisplayName)

	s.Require().NoError(s.Storage.Users().Delete(s.ctx, user.ID))
	_, err = s.Storage.Users().FindByEmail(s.ctx, "update@example.com")
	s.ErrorIs(err, model.ErrNotFound)

	// the address is free again once its owner is gone
	s.Require().NoError(s.Storage.Users().Insert(s.ctx, NewUser("update@example.com")))
}

func (s *Suite) TestAuthTokensFindByUser() {
	userID := uuid.New()
	for i := 0; i < 2; i++ {
		s.Require().NoError(s.Storage.AuthTokens().Insert(s.ctx, NewAuthToken(userID, Epoch.Add(time.Hour))))
	}
	s.Require().NoError(s.Storage.AuthTokens().Insert(s.ctx, NewAuthToken(uuid.New(), Epoch.Add(time.Hour))))

	tokens, err := s.Storage.AuthTokens().FindByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Len(tokens, 2)
	for _, t := range tokens {
		s.Equal(userID, t.UserID)
		s.True(t.ExpiresAt.Equal(Epoch.Add(time.Hour)))
	}
}

func (s *Suite) TestClubsFindByUser() {
	userID := uuid.New()
	first := s.insertClub(userID, 1)
	second := s.insertClub(userID, 2)
	s.insertClub(uuid.New(), 3)

	clubs, err := s.Storage.Clubs().FindByUser(s.ctx, userID)
	s.Require().NoError(err)
	s.Require().Len(clubs, 2)
	s.Equal(first.ID, clubs[0].ID)
	s.Equal(second.ID, clubs[1].ID)
	s.Equal([]int64{2}, clubs[1].ManagerFunds.History)

	none, err := s.Storage.Clubs().FindByUser(s.ctx, uuid.New())
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *Suite) TestPlayersFindByClub() {
	clubID := uuid.New()
	player := NewPlayer(clubID, "Found", 55)
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, player))
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, NewPlayer(uuid.New(), "Elsewhere", 55)))

	got, token, err := s.Storage.Players().Get(s.ctx, player.ID)
	s.Require().NoError(err)
	next := got.WithMarketValue(2_000_000)
	s.Require().NoError(s.Storage.Players().Update(s.ctx, player.ID, token, &next))

	players, err := s.Storage.Players().FindByClub(s.ctx, clubID)
	s.Require().NoError(err)
	s.Require().Len(players, 1)
	s.Equal([]int64{2_000_000, 1_000_000}, players[0].MarketValue.History)
}

func (s *Suite) TestMatchPerformanceFinders() {
	playerID := uuid.New()
	league := NewPerformance(playerID, "league", 6.5)
	cup := NewPerformance(playerID, "cup", 8.0)
	s.Require().NoError(s.Storage.MatchPerformances().Insert(s.ctx, league))
	s.Require().NoError(s.Storage.MatchPerformances().Insert(s.ctx, cup))

	all, err := s.Storage.MatchPerformances().FindByPlayer(s.ctx, playerID)
	s.Require().NoError(err)
	s.Len(all, 2)

	got, err := s.Storage.MatchPerformances().FindByPlayerAndCompetition(s.ctx, playerID, "cup")
	s.Require().NoError(err)
	s.Equal(cup.ID, got.ID)
	s.Equal([]float64{8.0}, got.MatchRating.History)

	_, err = s.Storage.MatchPerformances().FindByPlayerAndCompetition(s.ctx, playerID, "friendly")
	s.ErrorIs(err, model.ErrNotFound)

	dup := NewPerformance(playerID, "league", 5.0)
	s.ErrorIs(s.Storage.MatchPerformances().Insert(s.ctx, dup), model.ErrDuplicateKey)
}

func (s *Suite) TestBoardObjectives() {
	clubID := uuid.New()
	objective := NewObjective(clubID, "Avoid relegation")
	s.Require().NoError(s.Storage.BoardObjectives().Insert(s.ctx, objective))

	got, token, err := s.Storage.BoardObjectives().Get(s.ctx, objective.ID)
	s.Require().NoError(err)
	done := got.WithCompleted(true)
	s.Require().NoError(s.Storage.BoardObjectives().Update(s.ctx, objective.ID, token, &done))

	objectives, err := s.Storage.BoardObjectives().FindByClub(s.ctx, clubID)
	s.Require().NoError(err)
	s.Require().Len(objectives, 1)
	s.True(objectives[0].Completed)
	s.Equal("Avoid relegation", objectives[0].Title)
}

// Projections

func (s *Suite) TestSquadSummary() {
	club := s.insertClub(uuid.New(), 1000)
	star := NewPlayer(club.ID, "Star", 80)
	bench := NewPlayer(club.ID, "Bench", 40)
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, star))
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, bench))
	s.Require().NoError(s.Storage.Players().Insert(s.ctx, NewPlayer(uuid.New(), "Rival", 90)))

	league := NewPerformance(star.ID, "league", 6.0)
	s.Require().NoError(s.Storage.MatchPerformances().Insert(s.ctx, league))
	for _, rating := range []float64{7.0, 8.0} {
		got, token, err := s.Storage.MatchPerformances().Get(s.ctx, league.ID)
		s.Require().NoError(err)
		next := got.WithMatch(model.MatchResult{Rating: rating})
		s.Require().NoError(s.Storage.MatchPerformances().Update(s.ctx, league.ID, token, &next))
	}
	s.Require().NoError(s.Storage.MatchPerformances().Insert(s.ctx, NewPerformance(star.ID, "cup", 9.0)))

	squad, err := s.Storage.SquadSummary(s.ctx, club.ID, 3)
	s.Require().NoError(err)
	s.Require().Len(squad, 2)
	s.Equal("Star", squad[0].Player.Name)
	s.Equal([]float64{9.0, 8.0, 7.0}, squad[0].Form)
	s.Equal([]float64{80}, squad[0].Player.Ability.History)
	s.Equal("Bench", squad[1].Player.Name)
	s.Empty(squad[1].Form)

	// the canonical entity keeps its full history
	full, _, err := s.Storage.MatchPerformances().Get(s.ctx, league.ID)
	s.Require().NoError(err)
	s.Equal([]float64{8.0, 7.0, 6.0}, full.MatchRating.History)
}

func (s *Suite) TestSquadSummaryEmptyClub() {
	squad, err := s.Storage.SquadSummary(s.ctx, uuid.New(), model.DefaultFormLength)
	s.Require().NoError(err)
	s.Empty(squad)
}

func (s *Suite) TestPing() {
	s.NoError(s.Storage.Ping(s.ctx))
}
