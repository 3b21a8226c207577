package cmd

import (
	"fmt"
	"time"

	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/nats"
	"github.com/spf13/cobra"
)

// CreateRemoteCmd creates the remote command group, which drives a running
// instance over NATS.
func CreateRemoteCmd(settings *Settings) *cobra.Command {
	var url string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Control a running instance over NATS",
	}
	cmd.PersistentFlags().StringVar(&url, "nats-url", "", "NATS server URL (default derived from the NATS settings)")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", nats.DefaultRequestTimeout, "Request timeout")

	dial := func() (*nats.Client, error) {
		if url == "" {
			url = settings.NATSURL()
		}
		return nats.Dial(url, timeout, logging.GetLogger("nats"))
	}

	cmd.AddCommand(
		createRemoteStartCmd(dial),
		createRemoteStopCmd(dial),
		createRemoteStatsCmd(dial),
	)
	return cmd
}

type dialFunc func() (*nats.Client, error)

func createRemoteStartCmd(dial dialFunc) *cobra.Command {
	var destination string
	var bitrate uint32

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start streaming on a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			client, err := dial()
			if err != nil {
				return err
			}
			defer client.Close()

			msg, err := client.Start(destination, bitrate)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Stream destination URL")
	cmd.Flags().Uint32VarP(&bitrate, "bitrate", "b", control.DefaultBitrate, "Video bitrate in kbps")
	_ = cmd.MarkFlagRequired("destination")
	return cmd
}

func createRemoteStopCmd(dial dialFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop streaming on a running instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			client, err := dial()
			if err != nil {
				return err
			}
			defer client.Close()

			msg, err := client.Stop()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

// createRemoteStatsCmd publishes one stats snapshot. It is the manual
// counterpart of an external stats producer.
func createRemoteStatsCmd(dial dialFunc) *cobra.Command {
	var m nats.StatsMessage

	cmd := &cobra.Command{
		Use:   "push-stats",
		Short: "Publish a stream statistics snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			client, err := dial()
			if err != nil {
				return err
			}
			defer client.Close()

			return client.PublishStats(m)
		},
	}

	cmd.Flags().Uint32Var(&m.Bitrate, "bitrate", 0, "Measured bitrate in kbps")
	cmd.Flags().Float32Var(&m.FPS, "fps", 0, "Frames per second")
	cmd.Flags().Uint32Var(&m.DroppedFrames, "dropped-frames", 0, "Dropped frame count")
	cmd.Flags().StringVar(&m.NetworkQuality, "network-quality", "", "Network quality label")
	cmd.Flags().Uint64Var(&m.UptimeSeconds, "uptime", 0, "Stream uptime in seconds")
	return cmd
}
