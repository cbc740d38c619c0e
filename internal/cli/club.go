package cli

import (
	"github.com/spf13/cobra"
)

func newClubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "club",
		Short: "Club commands",
	}

	cmd.AddCommand(newClubListCmd())
	cmd.AddCommand(newClubCreateCmd())
	cmd.AddCommand(newClubFundsCmd())
	cmd.AddCommand(newClubSquadCmd())
	cmd.AddCommand(newClubDeleteCmd())

	return cmd
}

func newClubListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your clubs",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Club
			if err := client.Get(cmd.Context(), "/api/v1/clubs", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newClubCreateCmd() *cobra.Command {
	var name, country string
	var funds, transfer, wages int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a club",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"name":            name,
				"country_code":    country,
				"manager_funds":   funds,
				"transfer_budget": transfer,
				"wage_budget":     wages,
			}
			var result Club
			if err := client.Post(cmd.Context(), "/api/v1/clubs", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Club name (required)")
	cmd.Flags().StringVar(&country, "country", "", "ISO country code")
	cmd.Flags().Int64Var(&funds, "funds", 0, "Starting manager funds")
	cmd.Flags().Int64Var(&transfer, "transfer-budget", 0, "Transfer budget")
	cmd.Flags().Int64Var(&wages, "wage-budget", 0, "Wage budget")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newClubFundsCmd() *cobra.Command {
	var delta int64

	cmd := &cobra.Command{
		Use:   "funds <club-id>",
		Short: "Adjust a club's manager funds",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Club
			if err := client.Post(cmd.Context(), "/api/v1/clubs/"+args[0]+"/funds", map[string]int64{"delta": delta}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().Int64Var(&delta, "delta", 0, "Amount to add (negative to spend)")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

func newClubSquadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "squad <club-id>",
		Short: "Show a club's squad with recent form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []SquadMember
			if err := client.Get(cmd.Context(), "/api/v1/clubs/"+args[0]+"/squad", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newClubDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <club-id>",
		Short: "Delete a club with its players and objectives",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(cmd.Context(), "/api/v1/clubs/"+args[0]); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Club deleted")
			return nil
		},
	}
}
