package cmd

import (
	"strconv"
	"strings"

	"github.com/smazurov/livecast/internal/encoder"
)

// Settings is the resolved application configuration shared by the
// subcommands. main fills it after flags, env and the config file are merged,
// before any subcommand runs.
type Settings struct {
	Port         string
	AuthUsername string
	AuthPassword string
	Encoder      encoder.Options
	Locale       string
	LockFile     string

	// NatsURL is an external server; empty means the embedded one on NatsPort.
	NatsURL  string
	NatsPort int
}

// NATSURL returns the URL of the NATS server the instance uses.
func (s *Settings) NATSURL() string {
	if s.NatsURL != "" {
		return s.NatsURL
	}
	port := s.NatsPort
	if port <= 0 {
		port = 4222
	}
	return "nats://127.0.0.1:" + strconv.Itoa(port)
}

// ServerURL returns the base URL of the local API server.
func (s *Settings) ServerURL() string {
	port := s.Port
	if port == "" {
		port = ":8090"
	}
	if strings.HasPrefix(port, ":") {
		return "http://127.0.0.1" + port
	}
	if strings.Contains(port, "://") {
		return strings.TrimRight(port, "/")
	}
	return "http://" + port
}
