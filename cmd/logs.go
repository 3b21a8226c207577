package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/logging"
	"github.com/spf13/cobra"
)

// CreateLogsCmd creates the logs command, which prints the newest entries
// of a running server's log buffer.
func CreateLogsCmd(settings *Settings) *cobra.Command {
	var addr string
	var limit int
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent log entries from a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true
			client := newAPIClient(settings, addr, timeout)

			data, err := client.logs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			color := shouldColorize(out)
			for _, e := range data.Entries {
				line := logging.FormatLogLine(logging.LogEntry{
					Timestamp:  e.Timestamp,
					Level:      e.Level,
					Module:     e.Module,
					Message:    e.Message,
					Attributes: e.Attributes,
				})
				fmt.Fprintln(out, colorize(line, levelColor(e.Level), color))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "API base URL (default derived from --port)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 100, "Number of entries, 0 for the whole buffer")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")

	return cmd
}

func (c *apiClient) logs(ctx context.Context, limit int) (*models.LogsData, error) {
	var data models.LogsData
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	if err := c.get(ctx, "/api/logs?"+query.Encode(), &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func levelColor(level string) string {
	switch level {
	case "error":
		return ansiRed
	case "warn":
		return ansiYellow
	default:
		return ""
	}
}
