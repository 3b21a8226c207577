package models

import (
	"time"
)

// Health check models
type HealthData struct {
	Status  string `json:"status" example:"ok" doc:"Service status"`
	Message string `json:"message" example:"API is healthy" doc:"Status message"`
}

type HealthResponse struct {
	Body HealthData
}

// Version models
type VersionData struct {
	Version   string `json:"version" example:"dev" doc:"Application version"`
	GitCommit string `json:"git_commit" example:"abc1234" doc:"Git commit SHA"`
	BuildDate string `json:"build_date" example:"2026-01-27 14:30" doc:"Build timestamp"`
	Modified  bool   `json:"modified" example:"false" doc:"Built from a dirty working tree"`
	GoVersion string `json:"go_version" example:"go1.24.0" doc:"Go compiler version"`
	Compiler  string `json:"compiler" example:"gc" doc:"Compiler used"`
	Platform  string `json:"platform" example:"linux/amd64" doc:"Platform"`
}

type VersionResponse struct {
	Body VersionData
}

// Stream command models
type StartStreamData struct {
	Destination string `json:"destination" example:"udp://127.0.0.1:1234" doc:"Where the encoder sends the stream"`
	Bitrate     uint32 `json:"bitrate" example:"5000" doc:"Video bitrate in kbps"`
}

type StartStreamRequest struct {
	Body StartStreamData
}

type CommandData struct {
	Message string `json:"message" example:"Stream iniciado com sucesso" doc:"Localized confirmation"`
}

type CommandResponse struct {
	Body CommandData
}

// Stats models
type StatsData struct {
	Bitrate        uint32  `json:"bitrate" example:"4980" doc:"Measured bitrate in kbps"`
	FPS            float32 `json:"fps" example:"29.97" doc:"Frames per second"`
	DroppedFrames  uint32  `json:"dropped_frames" example:"0" doc:"Dropped frame count"`
	NetworkQuality string  `json:"network_quality" example:"Unknown" doc:"Network quality label"`
	UptimeSeconds  uint64  `json:"uptime_seconds" example:"0" doc:"Stream uptime in seconds"`
}

type StatsResponse struct {
	Body StatsData
}

// Status models
type StreamConfigData struct {
	Destination  string `json:"destination" example:"udp://127.0.0.1:1234" doc:"Stream destination"`
	Bitrate      uint32 `json:"bitrate" example:"5000" doc:"Video bitrate in kbps"`
	Resolution   string `json:"resolution" example:"1920x1080" doc:"Requested resolution"`
	AudioEnabled bool   `json:"audio_enabled" doc:"Whether audio was requested"`
	VideoEnabled bool   `json:"video_enabled" doc:"Whether video was requested"`
}

type StatusData struct {
	State         string            `json:"state" enum:"idle,streaming" example:"streaming" doc:"Session state"`
	SessionID     string            `json:"session_id,omitempty" doc:"Identifier of the active session"`
	Config        *StreamConfigData `json:"config,omitempty" doc:"Active stream configuration"`
	PID           int               `json:"pid,omitempty" example:"4242" doc:"Encoder process ID"`
	StartedAt     *time.Time        `json:"started_at,omitempty" doc:"When the session started"`
	UptimeSeconds float64           `json:"uptime_seconds" example:"93.5" doc:"Time spent streaming"`
	EncoderExited bool              `json:"encoder_exited" doc:"Encoder exited while the session was still streaming"`
	ExitCode      int               `json:"exit_code,omitempty" example:"1" doc:"Encoder exit code when it exited"`
}

type StatusResponse struct {
	Body StatusData
}

// Log models
type LogEntryData struct {
	Timestamp  time.Time      `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"session" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

type LogsRequest struct {
	Limit int `query:"limit" minimum:"0" maximum:"500" default:"100" doc:"Maximum number of newest entries, 0 returns the whole buffer"`
}

type LogsData struct {
	Entries []LogEntryData `json:"entries" doc:"Recent log entries"`
	Count   int            `json:"count" example:"100" doc:"Number of entries returned"`
}

type LogsResponse struct {
	Body LogsData
}
