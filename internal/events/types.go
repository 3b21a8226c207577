package events

// Event type constants for kelindar/event.
const (
	TypeSessionStarted uint32 = iota + 1
	TypeSessionStopped
	TypeEncoderExited
	TypeStatsUpdated
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// SessionStartedEvent is published after the encoder was launched and the
// session entered the streaming state.
//
// Each event type is delivered on its own subscriber goroutine, so consumers
// that mix types order them by Seq, not by arrival.
type SessionStartedEvent struct {
	Seq         uint64 `json:"seq" example:"7" doc:"Lifecycle sequence number, increasing across session events"`
	SessionID   string `json:"session_id" example:"4f1c2a9e-8d0b-4b7e-9a55-0c3f1e2d7b61" doc:"Session identifier"`
	Destination string `json:"destination" example:"udp://127.0.0.1:1234" doc:"Stream destination"`
	Bitrate     uint32 `json:"bitrate" example:"5000" doc:"Video bitrate in kbps"`
	PID         int    `json:"pid" example:"4242" doc:"Encoder process ID"`
	Timestamp   string `json:"timestamp" example:"2026-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStartedEvent.
func (e SessionStartedEvent) Type() uint32 { return TypeSessionStarted }

// SessionStoppedEvent is published after a successful stop.
type SessionStoppedEvent struct {
	Seq           uint64  `json:"seq" example:"8" doc:"Lifecycle sequence number, increasing across session events"`
	SessionID     string  `json:"session_id" doc:"Session identifier"`
	Destination   string  `json:"destination" example:"udp://127.0.0.1:1234" doc:"Stream destination"`
	UptimeSeconds float64 `json:"uptime_seconds" example:"93.5" doc:"Time spent streaming"`
	Timestamp     string  `json:"timestamp" example:"2026-01-27T10:31:33Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for SessionStoppedEvent.
func (e SessionStoppedEvent) Type() uint32 { return TypeSessionStopped }

// EncoderExitedEvent is published when the encoder exits while the session
// still considers itself streaming.
type EncoderExitedEvent struct {
	Seq       uint64 `json:"seq" example:"8" doc:"Lifecycle sequence number, increasing across session events"`
	SessionID string `json:"session_id" doc:"Session identifier"`
	PID       int    `json:"pid" example:"4242" doc:"Encoder process ID"`
	ExitCode  int    `json:"exit_code" example:"1" doc:"Encoder exit code"`
	Timestamp string `json:"timestamp" example:"2026-01-27T10:30:12Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for EncoderExitedEvent.
func (e EncoderExitedEvent) Type() uint32 { return TypeEncoderExited }

// StatsUpdatedEvent carries a new stats snapshot.
type StatsUpdatedEvent struct {
	Bitrate        uint32  `json:"bitrate" example:"4980" doc:"Measured bitrate in kbps"`
	FPS            float32 `json:"fps" example:"29.97" doc:"Frames per second"`
	DroppedFrames  uint32  `json:"dropped_frames" example:"0" doc:"Dropped frame count"`
	NetworkQuality string  `json:"network_quality" example:"Good" doc:"Network quality label"`
	UptimeSeconds  uint64  `json:"uptime_seconds" example:"120" doc:"Stream uptime"`
	Timestamp      string  `json:"timestamp" example:"2026-01-27T10:32:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for StatsUpdatedEvent.
func (e StatsUpdatedEvent) Type() uint32 { return TypeStatsUpdated }

// LogEntryEvent represents a log entry for SSE streaming.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" example:"2026-01-09T10:30:00.123Z" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"session" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
