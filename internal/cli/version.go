package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	taxjar "github.com/recheej/taxjar-go"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show taxjar version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), taxjar.GetVersion())
			return nil
		},
	}
}
