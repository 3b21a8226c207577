package nats

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/stats"
)

// Commands is the subset of the command facade the bridge drives.
type Commands interface {
	StartStreaming(destination string, bitrate uint32) (string, error)
	StopStreaming() (string, error)
}

// StatsSink receives snapshots from external producers.
type StatsSink interface {
	Set(stats.StreamStats)
}

// Bridge connects NATS to the session: stats and control requests flow in,
// session events flow out.
type Bridge struct {
	url       string
	commands  Commands
	sink      StatsSink
	eventBus  *events.Bus
	conn      *nats.Conn
	subs      []*nats.Subscription
	busUnsubs []func()
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewBridge creates a bridge. A nil sink drops stats messages; a nil bus
// disables event mirroring.
func NewBridge(url string, commands Commands, sink StatsSink, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:      url,
		commands: commands,
		sink:     sink,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS and installs the subscriptions.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("livecast-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", b.url)

	handlers := []struct {
		subject string
		handler nats.MsgHandler
	}{
		{SubjectStats, b.handleStats},
		{SubjectControlStart, b.handleStart},
		{SubjectControlStop, b.handleStop},
	}
	for _, h := range handlers {
		sub, subErr := conn.Subscribe(h.subject, h.handler)
		if subErr != nil {
			b.cleanup()
			return subErr
		}
		b.subs = append(b.subs, sub)
	}

	if b.eventBus != nil {
		b.busUnsubs = append(b.busUnsubs,
			b.eventBus.Subscribe(func(e events.SessionStartedEvent) { b.publish(SubjectSessionStarted, e) }),
			b.eventBus.Subscribe(func(e events.SessionStoppedEvent) { b.publish(SubjectSessionStopped, e) }),
			b.eventBus.Subscribe(func(e events.EncoderExitedEvent) { b.publish(SubjectEncoderExited, e) }),
		)
	}

	return nil
}

func (b *Bridge) handleStats(msg *nats.Msg) {
	m, err := UnmarshalStats(msg.Data)
	if err != nil {
		b.logger.Warn("Failed to unmarshal stats", "error", err)
		return
	}
	if b.sink == nil {
		return
	}

	b.logger.Debug("Stats received", "bitrate", m.Bitrate, "fps", m.FPS, "quality", m.NetworkQuality)
	b.sink.Set(m.Snapshot())
}

func (b *Bridge) handleStart(msg *nats.Msg) {
	req, err := UnmarshalStart(msg.Data)
	if err != nil {
		b.logger.Warn("Failed to unmarshal start request", "error", err)
		b.reply(msg, CommandReply{Code: control.ErrCodeInvalidInput, Message: err.Error()})
		return
	}

	b.logger.Info("Received start command", "destination", req.Destination, "bitrate", req.Bitrate)
	message, err := b.commands.StartStreaming(req.Destination, req.Bitrate)
	b.reply(msg, commandReply(message, err))
}

func (b *Bridge) handleStop(msg *nats.Msg) {
	b.logger.Info("Received stop command")
	message, err := b.commands.StopStreaming()
	b.reply(msg, commandReply(message, err))
}

func commandReply(message string, err error) CommandReply {
	if err == nil {
		return CommandReply{OK: true, Message: message}
	}
	var cmdErr *control.CommandError
	if errors.As(err, &cmdErr) {
		return CommandReply{Code: cmdErr.Code, Message: cmdErr.Message}
	}
	return CommandReply{Code: "INTERNAL", Message: err.Error()}
}

func (b *Bridge) reply(msg *nats.Msg, r CommandReply) {
	if msg.Reply == "" {
		return
	}
	data, err := marshal(r)
	if err != nil {
		b.logger.Warn("Failed to marshal reply", "error", err)
		return
	}
	if err := msg.Respond(data); err != nil {
		b.logger.Warn("Failed to send reply", "error", err)
	}
}

func (b *Bridge) publish(subject string, v any) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := marshal(v)
	if err != nil {
		b.logger.Warn("Failed to marshal event", "subject", subject, "error", err)
		return
	}
	if err := conn.Publish(subject, data); err != nil {
		b.logger.Warn("Failed to publish event", "subject", subject, "error", err)
	}
}

// cleanup must be called with the lock held.
func (b *Bridge) cleanup() {
	for _, unsub := range b.busUnsubs {
		unsub()
	}
	b.busUnsubs = nil

	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop disconnects the bridge.
func (b *Bridge) Stop() {
	// Bus handlers take the lock in publish.
	b.mu.Lock()
	unsubs := b.busUnsubs
	b.busUnsubs = nil
	b.mu.Unlock()
	for _, unsub := range unsubs {
		unsub()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected reports whether the bridge holds a live connection.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
