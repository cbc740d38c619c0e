package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/clubhouse/internal/dependencies/mocks"
	"github.com/mcoot/clubhouse/internal/model"
	"github.com/mcoot/clubhouse/internal/storage"
	"github.com/mcoot/clubhouse/internal/testutil"
)

var t0 = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

func createMockStorage(t *testing.T) (*Storage, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return New(mock, mocks.NewMockClock(t0), testutil.NopLogger()), mock
}

var baseColumns = []string{"id", "version", "created_date", "last_modified_date", "created_by",
	"user_id", "name", "country_code", "logo_url"}

var historyColumns = []string{"id", "club_id", "value", "created_at"}

func testClub() *model.Club {
	return &model.Club{
		ID:             uuid.New(),
		UserID:         uuid.New(),
		Name:           "Mock Rovers",
		CountryCode:    "GB",
		ManagerFunds:   model.VersionedValue[int64]{Current: 1000},
		TransferBudget: model.VersionedValue[int64]{Current: 5000},
		WageBudget:     model.VersionedValue[int64]{Current: 800},
	}
}

func TestInsertWritesBaseThenHistory(t *testing.T) {
	s, mock := createMockStorage(t)
	club := testClub()

	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO clubs \(id, version, created_date, last_modified_date, created_by, user_id, name, country_code, logo_url\)`).
		WithArgs(club.ID, int64(1), t0, t0, "alice", club.UserID, "Mock Rovers", "GB", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`^INSERT INTO club_manager_funds_history \(club_id, value, created_at\)`).
		WithArgs(club.ID, int64(1000), t0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`^INSERT INTO club_transfer_budget_history`).
		WithArgs(club.ID, int64(5000), t0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`^INSERT INTO club_wage_budget_history`).
		WithArgs(club.ID, int64(800), t0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ctx := storage.WithActor(context.Background(), "alice")
	require.NoError(t, s.Clubs().Insert(ctx, club))
	assert.Equal(t, []int64{1000}, club.ManagerFunds.History)
	assert.Equal(t, "alice", club.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertConflictOnIDIsDuplicate(t *testing.T) {
	s, mock := createMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO clubs `).WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectRollback()

	err := s.Clubs().Insert(context.Background(), testClub())
	assert.ErrorIs(t, err, model.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertUniqueViolationIsDuplicate(t *testing.T) {
	s, mock := createMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO users `).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
	mock.ExpectRollback()

	user := &model.User{ID: uuid.New(), Email: "taken@example.com"}
	err := s.Users().Insert(context.Background(), user)
	assert.ErrorIs(t, err, model.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertHistoryFailureRollsBack(t *testing.T) {
	s, mock := createMockStorage(t)
	cause := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO clubs `).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`^INSERT INTO club_manager_funds_history`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`^INSERT INTO club_transfer_budget_history`).WillReturnError(cause)
	mock.ExpectRollback()

	err := s.Clubs().Insert(context.Background(), testClub())
	assert.ErrorIs(t, err, model.ErrIntegrityViolation)
	assert.ErrorIs(t, err, cause)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginFailureIsUnavailable(t *testing.T) {
	s, mock := createMockStorage(t)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := s.Clubs().Insert(context.Background(), testClub())
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCommitFailureIsIntegrityViolation(t *testing.T) {
	s, mock := createMockStorage(t)

	mock.ExpectBegin()
	mock.ExpectExec(`^INSERT INTO board_objectives `).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	objective := &model.BoardObjective{ID: uuid.New(), ClubID: uuid.New(), Title: "Win the cup"}
	err := s.BoardObjectives().Insert(context.Background(), objective)
	assert.ErrorIs(t, err, model.ErrIntegrityViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertMissingIDTouchesNothing(t *testing.T) {
	s, mock := createMockStorage(t)

	club := testClub()
	club.ID = uuid.Nil
	assert.ErrorIs(t, s.Clubs().Insert(context.Background(), club), model.ErrMissingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReconcilesHistory(t *testing.T) {
	s, mock := createMockStorage(t)
	club := testClub()
	creator := "alice"

	mock.ExpectBeginTx(readOptions)
	mock.ExpectQuery(`^SELECT id, version, created_date, last_modified_date, created_by, user_id, name, country_code, logo_url FROM clubs WHERE id = \$1`).
		WithArgs(club.ID).
		WillReturnRows(mock.NewRows(baseColumns).
			AddRow(club.ID, int64(3), t0, t0.Add(time.Hour), creator, club.UserID, club.Name, club.CountryCode, ""))
	mock.ExpectQuery(`FROM club_manager_funds_history WHERE club_id = ANY\(\$1\)`).
		WillReturnRows(mock.NewRows(historyColumns).
			AddRow(int64(1), club.ID, int64(1000), t0).
			AddRow(int64(7), club.ID, int64(1500), t0.Add(time.Hour)).
			AddRow(int64(4), club.ID, int64(1200), t0.Add(time.Minute)))
	mock.ExpectQuery(`FROM club_transfer_budget_history`).
		WillReturnRows(mock.NewRows(historyColumns).AddRow(int64(2), club.ID, int64(5000), t0))
	mock.ExpectQuery(`FROM club_wage_budget_history`).
		WillReturnRows(mock.NewRows(historyColumns).AddRow(int64(3), club.ID, int64(800), t0))
	mock.ExpectCommit()

	got, token, err := s.Clubs().Get(context.Background(), club.ID)
	require.NoError(t, err)
	assert.Equal(t, "3", token.String())
	assert.Equal(t, int64(1500), got.ManagerFunds.Current)
	assert.Equal(t, []int64{1500, 1200, 1000}, got.ManagerFunds.History)
	assert.Equal(t, creator, got.CreatedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	s, mock := createMockStorage(t)

	mock.ExpectBeginTx(readOptions)
	mock.ExpectQuery(`FROM clubs WHERE id = \$1`).WillReturnRows(mock.NewRows(baseColumns))
	mock.ExpectRollback()

	_, _, err := s.Clubs().Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetWithoutHistoryRowsIsIntegrityViolation(t *testing.T) {
	s, mock := createMockStorage(t)
	club := testClub()

	mock.ExpectBeginTx(readOptions)
	mock.ExpectQuery(`FROM clubs WHERE id = \$1`).
		WillReturnRows(mock.NewRows(baseColumns).
			AddRow(club.ID, int64(1), t0, t0, "system", club.UserID, club.Name, club.CountryCode, ""))
	mock.ExpectQuery(`FROM club_manager_funds_history`).WillReturnRows(mock.NewRows(historyColumns))
	mock.ExpectRollback()

	_, _, err := s.Clubs().Get(context.Background(), club.ID)
	assert.ErrorIs(t, err, model.ErrIntegrityViolation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAppendsOnlyChangedFields(t *testing.T) {
	s, mock := createMockStorage(t)
	club := testClub()
	club.ManagerFunds.Current = 1200

	mock.ExpectBegin()
	mock.ExpectQuery(`^UPDATE clubs SET user_id = \$4, name = \$5, country_code = \$6, logo_url = \$7, version = version \+ 1, last_modified_date = \$3 WHERE id = \$1 AND version = \$2 RETURNING version, created_date, created_by`).
		WithArgs(club.ID, int64(2), t0, club.UserID, club.Name, club.CountryCode, "").
		WillReturnRows(mock.NewRows([]string{"version", "created_date", "created_by"}).AddRow(int64(3), t0.Add(-time.Hour), "alice"))
	mock.ExpectQuery(`FROM club_manager_funds_history`).
		WillReturnRows(mock.NewRows(historyColumns).AddRow(int64(1), club.ID, int64(1000), t0.Add(-time.Hour)))
	mock.ExpectQuery(`FROM club_transfer_budget_history`).
		WillReturnRows(mock.NewRows(historyColumns).AddRow(int64(2), club.ID, int64(5000), t0.Add(-time.Hour)))
	mock.ExpectQuery(`FROM club_wage_budget_history`).
		WillReturnRows(mock.NewRows(historyColumns).AddRow(int64(3), club.ID, int64(800), t0.Add(-time.Hour)))
	mock.ExpectExec(`^INSERT INTO club_manager_funds_history`).
		WithArgs(club.ID, int64(1200), t0).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Clubs().Update(context.Background(), club.ID, model.RevisionToken(2), club))
	assert.Equal(t, []int64{1200, 1000}, club.ManagerFunds.History)
	assert.Equal(t, []int64{5000}, club.TransferBudget.History)
	assert.Equal(t, "alice", club.CreatedBy)
	assert.Equal(t, t0, club.LastModifiedDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStaleVersionConflicts(t *testing.T) {
	s, mock := createMockStorage(t)
	club := testClub()

	mock.ExpectBegin()
	mock.ExpectQuery(`^UPDATE clubs SET`).WillReturnRows(mock.NewRows([]string{"version", "created_date", "created_by"}))
	mock.ExpectQuery(`^SELECT EXISTS \(SELECT 1 FROM clubs WHERE id = \$1\)`).
		WithArgs(club.ID).
		WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()

	err := s.Clubs().Update(context.Background(), club.ID, model.RevisionToken(1), club)
	assert.ErrorIs(t, err, model.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	s, mock := createMockStorage(t)
	club := testClub()

	mock.ExpectBegin()
	mock.ExpectQuery(`^UPDATE clubs SET`).WillReturnRows(mock.NewRows([]string{"version", "created_date", "created_by"}))
	mock.ExpectQuery(`^SELECT EXISTS`).WillReturnRows(mock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectRollback()

	err := s.Clubs().Update(context.Background(), club.ID, model.RevisionToken(1), club)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateUnparseableTokenConflicts(t *testing.T) {
	s, mock := createMockStorage(t)

	err := s.Clubs().Update(context.Background(), uuid.New(), model.VersionToken{}, testClub())
	assert.ErrorIs(t, err, model.ErrVersionConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteRemovesHistoryFirst(t *testing.T) {
	s, mock := createMockStorage(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE FROM player_ability_history WHERE player_id = \$1`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(`^DELETE FROM player_wages_history`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`^DELETE FROM player_market_value_history`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`^DELETE FROM players WHERE id = \$1`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	require.NoError(t, s.Players().Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMissingRollsBack(t *testing.T) {
	s, mock := createMockStorage(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE FROM match_performance_match_rating_history`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`^DELETE FROM match_performances WHERE id = \$1`).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := s.MatchPerformances().Delete(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteFailureMidwayKeepsBaseRow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	logger, logs := testutil.CapturingLogger()
	s := New(mock, mocks.NewMockClock(t0), logger)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`^DELETE FROM club_manager_funds_history`).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`^DELETE FROM club_transfer_budget_history`).WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	err = s.Clubs().Delete(context.Background(), id)
	assert.ErrorIs(t, err, model.ErrIntegrityViolation)
	assert.Contains(t, logs.String(), "failed to rollback transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail(t *testing.T) {
	s, mock := createMockStorage(t)
	id := uuid.New()

	mock.ExpectBeginTx(readOptions)
	mock.ExpectQuery(`FROM users WHERE lower\(email\) = lower\(\$1\) ORDER BY created_date, id`).
		WithArgs("Someone@Example.com").
		WillReturnRows(mock.NewRows([]string{"id", "version", "created_date", "last_modified_date", "created_by", "email", "display_name", "password_hash"}).
			AddRow(id, int64(1), t0, t0, "system", "someone@example.com", "Someone", "hash"))
	mock.ExpectCommit()

	user, err := s.Users().FindByEmail(context.Background(), "Someone@Example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "Someone", user.DisplayName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailMissing(t *testing.T) {
	s, mock := createMockStorage(t)

	mock.ExpectBeginTx(readOptions)
	mock.ExpectQuery(`FROM users WHERE`).WillReturnRows(mock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	_, err := s.Users().FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSquadSummaryBoundsForm(t *testing.T) {
	s, mock := createMockStorage(t)
	clubID, playerID, league, cup := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	mock.ExpectBeginTx(readOptions)
	mock.ExpectQuery(`FROM players WHERE club_id = \$1`).
		WithArgs(clubID).
		WillReturnRows(mock.NewRows([]string{"id", "version", "created_date", "last_modified_date", "created_by", "club_id", "name", "country_code", "position"}).
			AddRow(playerID, int64(1), t0, t0, "system", clubID, "Winger", "BR", "FW"))
	mock.ExpectQuery(`FROM player_ability_history`).
		WillReturnRows(mock.NewRows([]string{"id", "player_id", "value", "created_at"}).AddRow(int64(1), playerID, 70.0, t0))
	mock.ExpectQuery(`FROM player_wages_history`).
		WillReturnRows(mock.NewRows([]string{"id", "player_id", "value", "created_at"}).AddRow(int64(1), playerID, int64(500), t0))
	mock.ExpectQuery(`FROM player_market_value_history`).
		WillReturnRows(mock.NewRows([]string{"id", "player_id", "value", "created_at"}).AddRow(int64(1), playerID, int64(900), t0))
	mock.ExpectQuery(`JOIN match_performance_match_rating_history h ON h.match_performance_id = mp.id`).
		WithArgs(clubID).
		WillReturnRows(mock.NewRows([]string{"mp.id", "mp.player_id", "mp.last_modified_date", "h.id", "h.value", "h.created_at"}).
			AddRow(cup, playerID, t0.Add(3*time.Hour), int64(9), 9.0, t0.Add(3*time.Hour)).
			AddRow(league, playerID, t0.Add(2*time.Hour), int64(8), 8.0, t0.Add(2*time.Hour)).
			AddRow(league, playerID, t0.Add(2*time.Hour), int64(7), 7.0, t0.Add(time.Hour)).
			AddRow(league, playerID, t0.Add(2*time.Hour), int64(6), 6.0, t0))
	mock.ExpectCommit()

	squad, err := s.SquadSummary(context.Background(), clubID, 3)
	require.NoError(t, err)
	require.Len(t, squad, 1)
	assert.Equal(t, model.PositionForward, squad[0].Player.Position)
	assert.Equal(t, []float64{9.0, 8.0, 7.0}, squad[0].Form)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	s := New(mock, mocks.NewMockClock(t0), testutil.NopLogger())

	mock.ExpectPing().WillReturnError(errors.New("no route to host"))
	assert.ErrorIs(t, s.Ping(context.Background()), model.ErrStorageUnavailable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@db:5432/clubhouse", migrationURL("postgres://u:p@db:5432/clubhouse"))
	assert.Equal(t, "pgx5://db/clubhouse", migrationURL("postgresql://db/clubhouse"))
	assert.Equal(t, "pgx5://db/x", migrationURL("pgx5://db/x"))
}

func TestRollbackIgnoresClosedTx(t *testing.T) {
	assert.False(t, classified(pgx.ErrTxClosed))
	assert.True(t, classified(model.ErrVersionConflict))
}
