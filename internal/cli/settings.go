package cli

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mcoot/clubhouse/internal/config"
)

// flagBindings maps config keys to the command flags that override them
var flagBindings = map[string]string{
	"storage.backend":      "backend",
	"storage.postgres.url": "postgres-url",
	"http.host":            "host",
	"http.port":            "port",
	"log.level":            "log-level",
	"log.format":           "log-format",
}

// loadSettings reads server configuration. Flags set on cmd win over
// environment variables, which win over the config file.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	v := viper.New()
	for key, name := range flagBindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(v, cfg.ConfigFile)
}

// addLogFlags registers the logging overrides shared by server commands
func addLogFlags(cmd *cobra.Command) {
	cmd.Flags().String("log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().String("log-format", "", "Log format: json, text")
}
