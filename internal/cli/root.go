package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

// Version is stamped at build time with -ldflags "-X .../internal/cli.Version=..."
var Version = "dev"

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "clubhouse",
		Short: "Football club management server and client",
		Long: `clubhouse runs the club management API and talks to it.

Server commands (serve, migrate) read config.yaml, CLUBHOUSE_* environment
variables and any .env files in the working directory. Client commands
(user, club, health) talk to a running server.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(cfg.EnvFiles...); err != nil {
				return err
			}
			cfg.applyEnv()

			// Load token from file if not provided via flag/env
			if err := cfg.LoadToken(); err != nil {
				return err
			}

			client = NewClient(cfg.ServerURL, cfg.Token)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ConfigFile, "config", "", "Server config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.EnvFiles, "env-file", cfg.EnvFiles, "Dotenv files to load, earlier files win")
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", "", "Server URL (env: CLUBHOUSE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", "", "Session token (env: CLUBHOUSE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", "", "Token file path (env: CLUBHOUSE_TOKEN_FILE)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")

	// Server commands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newVersionCmd())

	// Client commands
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newClubCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
