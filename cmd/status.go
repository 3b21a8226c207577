package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/version"
	"github.com/spf13/cobra"
)

// CreateStatusCmd creates the status command, which queries a running server.
func CreateStatusCmd(settings *Settings) *cobra.Command {
	var addr string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the session status of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			client := newAPIClient(settings, addr, timeout)

			status, err := client.status(cmd.Context())
			if err != nil {
				return err
			}
			var stats *models.StatsData
			if status.State == "streaming" {
				if stats, err = client.stats(cmd.Context()); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderStatus(status, stats, shouldColorize(out)))
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "API base URL (default derived from --port)")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "Request timeout")

	return cmd
}

// apiClient reads from a running server's HTTP API.
type apiClient struct {
	baseURL  string
	username string
	password string
	http     *http.Client
}

// newAPIClient targets addr, or the configured server when addr is empty.
func newAPIClient(settings *Settings, addr string, timeout time.Duration) *apiClient {
	if addr == "" {
		addr = settings.ServerURL()
	}
	return &apiClient{
		baseURL:  strings.TrimRight(addr, "/"),
		username: settings.AuthUsername,
		password: settings.AuthPassword,
		http:     &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) status(ctx context.Context) (*models.StatusData, error) {
	var data models.StatusData
	if err := c.get(ctx, "/api/stream/status", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *apiClient) stats(ctx context.Context) (*models.StatsData, error) {
	var data models.StatsData
	if err := c.get(ctx, "/api/stream/stats", &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *apiClient) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	if c.username != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("query %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func renderStatus(status *models.StatusData, stats *models.StatsData, color bool) string {
	state := status.State
	switch {
	case status.State == "streaming" && status.EncoderExited:
		state = colorize(state+" (encoder exited)", ansiYellow, color)
	case status.State == "streaming":
		state = colorize(state, ansiGreen, color)
	default:
		state = colorize(state, ansiRed, color)
	}

	rows := [][2]string{{"State", state}}
	if status.SessionID != "" {
		rows = append(rows, [2]string{"Session", status.SessionID})
	}
	if cfg := status.Config; cfg != nil {
		rows = append(rows,
			[2]string{"Destination", cfg.Destination},
			[2]string{"Bitrate", strconv.FormatUint(uint64(cfg.Bitrate), 10) + " kbps"},
			[2]string{"Resolution", cfg.Resolution},
		)
	}
	if status.PID != 0 {
		rows = append(rows, [2]string{"PID", strconv.Itoa(status.PID)})
	}
	if status.StartedAt != nil {
		rows = append(rows,
			[2]string{"Started", status.StartedAt.Local().Format(time.DateTime)},
			[2]string{"Uptime", time.Duration(status.UptimeSeconds * float64(time.Second)).Round(time.Second).String()},
		)
	}
	if status.EncoderExited {
		rows = append(rows, [2]string{"Exit code", strconv.Itoa(status.ExitCode)})
	}
	if stats != nil {
		rows = append(rows,
			[2]string{"Measured bitrate", strconv.FormatUint(uint64(stats.Bitrate), 10) + " kbps"},
			[2]string{"FPS", strconv.FormatFloat(float64(stats.FPS), 'f', 2, 32)},
			[2]string{"Dropped frames", strconv.FormatUint(uint64(stats.DroppedFrames), 10)},
			[2]string{"Network", stats.NetworkQuality},
		)
	}

	return renderKeyValues("livecast", rows)
}
