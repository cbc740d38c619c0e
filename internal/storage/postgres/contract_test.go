//go:build e2e

package postgres

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clubhouse/internal/dependencies/clock"
	"github.com/mcoot/clubhouse/internal/storage"
	"github.com/mcoot/clubhouse/internal/storage/storagetest"
	"github.com/mcoot/clubhouse/internal/testutil"
)

// testDatabaseEnv names a disposable database the contract test may wipe
const testDatabaseEnv = "CLUBHOUSE_TEST_POSTGRES_URL"

var allTables = []string{
	"users", "auth_tokens", "clubs", "players", "match_performances", "board_objectives",
}

func TestContractOverPostgres(t *testing.T) {
	url := os.Getenv(testDatabaseEnv)
	if url == "" {
		t.Skipf("%s not set", testDatabaseEnv)
	}
	require.NoError(t, Migrate(url, testutil.NopLogger()))

	var current *Storage
	suite.Run(t, &storagetest.Suite{
		NewStorage: func(t *testing.T, clk clock.Clock) storage.Storage {
			cfg := DefaultConfig()
			cfg.URL = url
			pool, err := NewPool(context.Background(), cfg)
			require.NoError(t, err)
			truncateAll(t, pool)
			current = New(pool, clk, testutil.NopLogger())
			return current
		},
		HistoryRows: func(t *testing.T, id uuid.UUID) int {
			return countHistoryRows(t, current.conn.db, id)
		},
	})
}

func truncateAll(t *testing.T, db DB) {
	t.Helper()
	tables := append([]string{}, allTables...)
	for _, h := range historyTables() {
		tables = append(tables, h.tableName())
	}
	for _, table := range tables {
		_, err := db.Exec(context.Background(), fmt.Sprintf("TRUNCATE %s CASCADE", table))
		require.NoError(t, err)
	}
}

func countHistoryRows(t *testing.T, db DB, id uuid.UUID) int {
	t.Helper()
	total := 0
	for _, h := range historyTables() {
		var n int
		sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s = $1", h.tableName(), h.ownerColumn())
		require.NoError(t, db.QueryRow(context.Background(), sql, id).Scan(&n))
		total += n
	}
	return total
}

type namedHistory interface {
	tableName() string
	ownerColumn() string
}

func historyTables() []namedHistory {
	var out []namedHistory
	for _, h := range clubSchema.history {
		out = append(out, h)
	}
	for _, h := range playerSchema.history {
		out = append(out, h)
	}
	for _, h := range matchPerformanceSchema.history {
		out = append(out, h)
	}
	return out
}
