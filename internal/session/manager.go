package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/logging"
)

// Manager owns the single streaming session and the encoder behind it.
//
// Start and Stop hold one exclusive lock for their whole duration, including
// the launch and terminate calls, so the idle/streaming transitions never
// interleave. State only changes on a successful Start or Stop; an encoder
// that dies on its own is recorded in Status but leaves the session
// streaming until Stop is called.
//
// Lifecycle events are published while the lock is held and carry a
// sequence number taken under it, so Seq order is transition order.
type Manager struct {
	mu       sync.Mutex
	launcher Launcher
	logger   *slog.Logger
	bus      *events.Bus
	now      func() time.Time
	stopWait time.Duration

	state   State
	active  *activeSession
	stopped Handle
	seq     uint64
	last    StreamConfig
	hasLast bool
}

type activeSession struct {
	id        string
	config    StreamConfig
	handle    Handle
	startedAt time.Time
	exited    bool
	exitCode  int
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Default is the "session" module logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithEventBus publishes lifecycle events to bus.
func WithEventBus(bus *events.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithStopWait makes Close wait up to d for the stopped encoder to exit.
// It should cover the launcher's escalation to a forced kill.
func WithStopWait(d time.Duration) Option {
	return func(m *Manager) {
		m.stopWait = d
	}
}

// NewManager creates an idle manager around launcher.
func NewManager(launcher Launcher, opts ...Option) *Manager {
	m := &Manager{
		launcher: launcher,
		now:      time.Now,
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.GetLogger("session")
	}
	return m
}

// Start launches the encoder for cfg and enters the streaming state.
// Returns ErrAlreadyActive without side effects if a session is running,
// or a LAUNCH_FAILED error if the encoder could not be spawned, in which case
// the manager stays idle.
func (m *Manager) Start(cfg StreamConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateStreaming {
		m.logger.Debug("Start rejected, stream already active", "session_id", m.active.id)
		return ErrAlreadyActive
	}

	handle, err := m.launcher.Launch(cfg)
	if err != nil {
		m.logger.Error("Failed to launch encoder", "destination", cfg.Destination, "error", err)
		return NewSessionError(ErrCodeLaunchFailed, "failed to launch encoder", err)
	}

	s := &activeSession{
		id:        uuid.NewString(),
		config:    cfg,
		handle:    handle,
		startedAt: m.now(),
		exitCode:  -1,
	}
	m.active = s
	m.state = StateStreaming

	m.logger.Info("Stream started",
		"session_id", s.id,
		"destination", cfg.Destination,
		"bitrate", cfg.Bitrate,
		"pid", handle.PID())

	m.seq++
	m.bus.Publish(events.SessionStartedEvent{
		Seq:         m.seq,
		SessionID:   s.id,
		Destination: cfg.Destination,
		Bitrate:     cfg.Bitrate,
		PID:         handle.PID(),
		Timestamp:   s.startedAt.Format(time.RFC3339),
	})

	go m.watchExit(s)
	return nil
}

// Stop terminates the encoder and returns to idle. Returns ErrNotActive if
// nothing is streaming, or a TERMINATION_FAILED error if the encoder could
// not be signalled, in which case the session stays streaming.
//
// Stop does not wait for the encoder to exit; see WaitStopped.
func (m *Manager) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateStreaming {
		m.logger.Debug("Stop rejected, stream not active")
		return ErrNotActive
	}

	s := m.active
	if err := m.launcher.Terminate(s.handle); err != nil {
		m.logger.Error("Failed to terminate encoder", "session_id", s.id, "pid", s.handle.PID(), "error", err)
		return NewSessionError(ErrCodeTerminationFailed, "failed to terminate encoder", err)
	}

	now := m.now()
	uptime := now.Sub(s.startedAt)
	m.active = nil
	m.stopped = s.handle
	m.state = StateIdle
	m.last = s.config
	m.hasLast = true

	m.logger.Info("Stream stopped", "session_id", s.id, "uptime", uptime.Round(time.Millisecond))

	m.seq++
	m.bus.Publish(events.SessionStoppedEvent{
		Seq:           m.seq,
		SessionID:     s.id,
		Destination:   s.config.Destination,
		UptimeSeconds: uptime.Seconds(),
		Timestamp:     now.Format(time.RFC3339),
	})
	return nil
}

// watchExit records an encoder exit that happens while its session is still
// the active one.
func (m *Manager) watchExit(s *activeSession) {
	<-s.handle.Done()
	code := s.handle.ExitCode()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != s {
		m.logger.Debug("Encoder exited after stop", "session_id", s.id, "exit_code", code)
		return
	}
	s.exited = true
	s.exitCode = code

	m.logger.Warn("Encoder exited while streaming", "session_id", s.id, "pid", s.handle.PID(), "exit_code", code)
	m.seq++
	m.bus.Publish(events.EncoderExitedEvent{
		Seq:       m.seq,
		SessionID: s.id,
		PID:       s.handle.PID(),
		ExitCode:  code,
		Timestamp: m.now().Format(time.RFC3339),
	})
}

// WaitStopped blocks until the most recently stopped encoder has exited or
// timeout elapses, and reports whether it exited. It returns true when no
// session was ever stopped.
func (m *Manager) WaitStopped(timeout time.Duration) bool {
	m.mu.Lock()
	h := m.stopped
	m.mu.Unlock()
	if h == nil {
		return true
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.Done():
		return true
	case <-timer.C:
		return false
	}
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Status returns a snapshot of the session.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{State: m.state, ExitCode: -1}
	if s := m.active; s != nil {
		cfg := s.config
		st.SessionID = s.id
		st.Config = &cfg
		st.PID = s.handle.PID()
		st.StartedAt = s.startedAt
		st.Uptime = m.now().Sub(s.startedAt)
		st.EncoderExited = s.exited
		st.ExitCode = s.exitCode
	}
	return st
}

// LastConfig returns the config of the most recently stopped session.
func (m *Manager) LastConfig() (StreamConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last, m.hasLast
}

// Close stops the active session, if any, and waits up to the WithStopWait
// duration for the encoder to exit. Meant for application shutdown.
func (m *Manager) Close() error {
	err := m.Stop()
	if errors.Is(err, ErrNotActive) {
		return nil
	}
	if err != nil {
		return err
	}

	if m.stopWait > 0 && !m.WaitStopped(m.stopWait) {
		m.logger.Warn("Encoder still running after shutdown wait", "wait", m.stopWait)
	}
	return nil
}
