package cli

import (
	"errors"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/clubhouse/internal/storage/postgres"
)

var errNoDatabaseURL = errors.New("storage.postgres.url is required (flag --postgres-url or CLUBHOUSE_STORAGE_POSTGRES_URL)")

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL schema",
	}

	cmd.AddCommand(newMigrateDirectionCmd("up", "Apply pending migrations", postgres.Migrate))
	cmd.AddCommand(newMigrateDirectionCmd("down", "Revert all migrations", postgres.MigrateDown))

	return cmd
}

func newMigrateDirectionCmd(use, short string, run func(string, *slog.Logger) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if settings.Storage.Postgres.URL == "" {
				return errNoDatabaseURL
			}

			logger := settings.Log.NewLogger(os.Stderr)
			return run(settings.Storage.Postgres.URL, logger)
		},
	}

	cmd.Flags().String("postgres-url", "", "PostgreSQL connection URL")
	addLogFlags(cmd)

	return cmd
}
