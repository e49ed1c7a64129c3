package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current alert state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodGet, "/api/v1/alert", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}

// NewRaiseCommand creates the raise command.
func NewRaiseCommand(rootOpts *RootOptions) *cobra.Command {
	var severity, code string

	cmd := &cobra.Command{
		Use:   "raise",
		Short: "Raise an alert",
		Long: `Raise an alert with the given severity and code.

The raise is accepted only if the severity is at or above the current
level. Example:

  escctl raise --severity CRITICAL --code ENGINE_FAULT`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"severity": severity, "code": code}
			data, err := newClient(rootOpts).call(http.MethodPost, "/api/v1/alert/raise", body)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}

	cmd.Flags().StringVar(&severity, "severity", "", "alert severity (INFO|WARNING|CRITICAL)")
	cmd.Flags().StringVar(&code, "code", "NONE", "alert code")
	_ = cmd.MarkFlagRequired("severity")

	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the alert state back to baseline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodPost, "/api/v1/alert/clear", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}
