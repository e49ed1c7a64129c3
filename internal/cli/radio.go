package cli

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
)

// NewRadioCommand creates the radio command group.
func NewRadioCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "radio",
		Short: "Inspect and drive the radio link",
	}

	cmd.AddCommand(newRadioStatusCommand(rootOpts))
	cmd.AddCommand(newRadioInitCommand(rootOpts))
	cmd.AddCommand(newRadioLinkCommand(rootOpts))
	cmd.AddCommand(newRadioSendCommand(rootOpts))
	cmd.AddCommand(newRadioRecvCommand(rootOpts))

	return cmd
}

func newRadioStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show radio readiness and the cached link state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodGet, "/api/v1/radio", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}

func newRadioInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Re-initialize the transceiver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodPost, "/api/v1/radio/init", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}

func newRadioLinkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "link",
		Short: "Force a live link poll",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodGet, "/api/v1/radio/link", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}

func newRadioSendCommand(rootOpts *RootOptions) *cobra.Command {
	var hexFrame string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Transmit a frame",
		Long: `Transmit a frame given as hex bytes, at most 128 bytes long.

Example:
  escctl radio send --hex cafe0102`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			frame, err := hex.DecodeString(hexFrame)
			if err != nil {
				return fmt.Errorf("invalid --hex value: %w", err)
			}
			body := map[string]string{"data": base64.StdEncoding.EncodeToString(frame)}
			data, err := newClient(rootOpts).call(http.MethodPost, "/api/v1/radio/send", body)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}

	cmd.Flags().StringVar(&hexFrame, "hex", "", "frame payload as hex bytes")
	_ = cmd.MarkFlagRequired("hex")

	return cmd
}

func newRadioRecvCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "recv",
		Short: "Read one pending frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient(rootOpts).call(http.MethodPost, "/api/v1/radio/receive", nil)
			if err != nil {
				return err
			}
			return printData(cmd.OutOrStdout(), rootOpts, data)
		},
	}
}
