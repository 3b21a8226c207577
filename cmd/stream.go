package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/encoder"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/instance"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
	"github.com/spf13/cobra"
)

// CreateStreamCmd creates the stream command. It runs one session in the
// foreground until interrupted or until the encoder exits on its own.
func CreateStreamCmd(settings *Settings) *cobra.Command {
	var destination string
	var bitrate uint32

	cmd := &cobra.Command{
		Use:   "stream",
		Short: "Stream to a destination in the foreground",
		Long: `Launches the encoder for the destination and keeps the session open until ` +
			`SIGINT/SIGTERM, then stops it. Exits with the encoder's code if it dies first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			code, err := streamLocked(cmd, settings, destination, bitrate)
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&destination, "destination", "d", "", "Stream destination URL (e.g. udp://127.0.0.1:1234)")
	cmd.Flags().Uint32VarP(&bitrate, "bitrate", "b", control.DefaultBitrate, "Video bitrate in kbps")
	_ = cmd.MarkFlagRequired("destination")

	return cmd
}

// streamLocked runs the foreground session while holding the instance lock.
// The lock is released on return, before any os.Exit by the caller.
func streamLocked(cmd *cobra.Command, settings *Settings, destination string, bitrate uint32) (int, error) {
	lock, err := instance.Acquire(settings.LockFile)
	if err != nil {
		return 0, err
	}
	defer func() { _ = lock.Release() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runForeground(ctx, settings, destination, bitrate, cmd.OutOrStdout())
}

// runForeground starts a session and blocks until ctx is done or the encoder
// exits. It returns the encoder exit code in the latter case, 0 otherwise.
// The session is stopped either way, and runForeground waits for the encoder
// to be gone, forced kill included, before returning.
func runForeground(ctx context.Context, settings *Settings, destination string, bitrate uint32, out io.Writer) (int, error) {
	logger := logging.GetLogger("stream")
	bus := events.New()

	exited := make(chan events.EncoderExitedEvent, 1)
	unsubscribe := bus.Subscribe(func(e events.EncoderExitedEvent) {
		select {
		case exited <- e:
		default:
		}
	})
	defer unsubscribe()

	manager := session.NewManager(
		encoder.NewProcessLauncher(settings.Encoder),
		session.WithEventBus(bus),
	)
	facade := control.New(manager, stats.NewStore(), control.WithLocale(settings.Locale))

	msg, err := facade.StartStreaming(destination, bitrate)
	if err != nil {
		return 0, err
	}
	fmt.Fprintln(out, msg)

	code := 0
	select {
	case <-ctx.Done():
		logger.Info("Interrupted, stopping stream")
	case e := <-exited:
		logger.Warn("Encoder exited, closing session", "exit_code", e.ExitCode)
		code = e.ExitCode
	}

	msg, err = facade.StopStreaming()
	if err != nil {
		var cmdErr *control.CommandError
		if errors.As(err, &cmdErr) && cmdErr.Code == session.ErrCodeNotActive {
			return code, nil
		}
		return code, err
	}
	fmt.Fprintln(out, msg)

	if wait := settings.Encoder.StopWait(); !manager.WaitStopped(wait) {
		logger.Warn("Encoder still running after stop", "wait", wait)
	}
	return code, nil
}
