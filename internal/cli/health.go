package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server and its storage are reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			var result HealthResult
			err := client.Get(cmd.Context(), "/api/v1/health", &result)
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Status == http.StatusServiceUnavailable {
				// the server answered but cannot reach its storage
				if json.Unmarshal([]byte(apiErr.Message), &result) == nil && result.Status != "" {
					out.Print(result)
					return fmt.Errorf("%s cannot reach its %s storage", cfg.ServerURL, result.Backend)
				}
			}
			if err != nil {
				return fmt.Errorf("%s is unhealthy: %w", cfg.ServerURL, err)
			}

			out.Print(result)
			return nil
		},
	}
}
