package cmd

import (
	"fmt"
	"strings"

	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/encoder"
	"github.com/smazurov/livecast/internal/session"
	"github.com/spf13/cobra"
)

// CreateCommandCmd creates the command subcommand, which prints the encoder
// invocation for a destination without launching anything.
func CreateCommandCmd(settings *Settings) *cobra.Command {
	var destination string
	var bitrate uint32

	cmd := &cobra.Command{
		Use:   "command",
		Short: "Print the encoder command line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := session.StreamConfig{
				Destination:  strings.TrimSpace(destination),
				Bitrate:      bitrate,
				Resolution:   control.DefaultResolution,
				AudioEnabled: true,
				VideoEnabled: true,
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			launcher := encoder.NewProcessLauncher(settings.Encoder)
			fmt.Fprintln(cmd.OutOrStdout(), launcher.Command(cfg))
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Stream destination URL")
	cmd.Flags().Uint32VarP(&bitrate, "bitrate", "b", control.DefaultBitrate, "Video bitrate in kbps")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}
