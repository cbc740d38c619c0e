package cli

import (
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		RunE: func(cmd *cobra.Command, args []string) error {
			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(VersionResult{Version: Version})
			return nil
		},
	}
}
