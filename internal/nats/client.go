package nats

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultRequestTimeout bounds control requests. Stops can take as long as
// the encoder's graceful shutdown.
const DefaultRequestTimeout = 10 * time.Second

// ErrCommandFailed wraps a CommandReply that reported failure.
var ErrCommandFailed = errors.New("command failed")

// Client drives a running livecast instance over NATS: it publishes stats
// snapshots and sends start/stop requests.
type Client struct {
	conn    *nats.Conn
	timeout time.Duration
	logger  *slog.Logger
}

// Dial connects a client. A zero timeout uses DefaultRequestTimeout.
func Dial(url string, timeout time.Duration, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	conn, err := nats.Connect(url,
		nats.Name("livecast-client"),
		nats.Timeout(timeout),
		nats.MaxReconnects(0),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", url, err)
	}

	return &Client{
		conn:    conn,
		timeout: timeout,
		logger:  logger.With("component", "nats-client"),
	}, nil
}

// PublishStats publishes a snapshot and flushes it to the server.
func (c *Client) PublishStats(m StatsMessage) error {
	data, err := marshal(m)
	if err != nil {
		return err
	}
	if err := c.conn.Publish(SubjectStats, data); err != nil {
		return err
	}
	return c.conn.FlushTimeout(c.timeout)
}

// Start asks the instance to start streaming and returns its reply message.
func (c *Client) Start(destination string, bitrate uint32) (string, error) {
	data, err := marshal(StartRequest{Destination: destination, Bitrate: bitrate})
	if err != nil {
		return "", err
	}
	return c.request(SubjectControlStart, data)
}

// Stop asks the instance to stop streaming and returns its reply message.
func (c *Client) Stop() (string, error) {
	return c.request(SubjectControlStop, nil)
}

func (c *Client) request(subject string, data []byte) (string, error) {
	msg, err := c.conn.Request(subject, data, c.timeout)
	if err != nil {
		if errors.Is(err, nats.ErrNoResponders) {
			return "", fmt.Errorf("no livecast instance is listening on %s", subject)
		}
		return "", err
	}

	r, err := UnmarshalReply(msg.Data)
	if err != nil {
		return "", fmt.Errorf("decode reply: %w", err)
	}
	if !r.OK {
		c.logger.Debug("Command rejected", "subject", subject, "code", r.Code)
		return "", fmt.Errorf("%w: %s: %s", ErrCommandFailed, r.Code, r.Message)
	}
	return r.Message, nil
}

// Close drains and closes the connection.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
