package session

import "time"

// State is the session lifecycle state.
type State string

// Session states.
const (
	StateIdle      State = "idle"      // no encoder owned
	StateStreaming State = "streaming" // exactly one encoder handle held
)

// Status is a point-in-time snapshot of the session.
type Status struct {
	State     State
	SessionID string
	Config    *StreamConfig // nil when idle
	PID       int
	StartedAt time.Time
	Uptime    time.Duration

	// EncoderExited is set when the encoder died on its own while the
	// session was still streaming. State is not changed by it.
	EncoderExited bool
	ExitCode      int
}
