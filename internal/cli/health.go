package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

// NewHealthCommand creates the health command.
func NewHealthCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check daemon liveness",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodGet, "/api/v1/health", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}
