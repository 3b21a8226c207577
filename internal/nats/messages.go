package nats

import (
	"encoding/json"

	"github.com/smazurov/livecast/internal/stats"
)

// Subjects.
const (
	// SubjectStats carries StatsMessage from an external stats producer.
	SubjectStats = "livecast.stats"

	// Control subjects use request-reply and answer with a CommandReply.
	SubjectControlStart = "livecast.control.start"
	SubjectControlStop  = "livecast.control.stop"

	// Session events are mirrored from the event bus under this prefix.
	SubjectEventsPrefix    = "livecast.events"
	SubjectSessionStarted  = SubjectEventsPrefix + ".session.started"
	SubjectSessionStopped  = SubjectEventsPrefix + ".session.stopped"
	SubjectEncoderExited   = SubjectEventsPrefix + ".encoder.exited"
	SubjectEventsWildcard  = SubjectEventsPrefix + ".>"
	SubjectControlWildcard = "livecast.control.*"
)

// StatsMessage is a statistics snapshot published by a producer.
type StatsMessage struct {
	Bitrate        uint32  `json:"bitrate"`
	FPS            float32 `json:"fps"`
	DroppedFrames  uint32  `json:"dropped_frames"`
	NetworkQuality string  `json:"network_quality"`
	UptimeSeconds  uint64  `json:"uptime_seconds"`
}

// Snapshot converts the message to a store snapshot. An empty quality label
// becomes "Unknown".
func (m StatsMessage) Snapshot() stats.StreamStats {
	quality := m.NetworkQuality
	if quality == "" {
		quality = stats.NetworkQualityUnknown
	}
	return stats.StreamStats{
		Bitrate:        m.Bitrate,
		FPS:            m.FPS,
		DroppedFrames:  m.DroppedFrames,
		NetworkQuality: quality,
		UptimeSeconds:  m.UptimeSeconds,
	}
}

// StartRequest is the payload of SubjectControlStart.
type StartRequest struct {
	Destination string `json:"destination"`
	Bitrate     uint32 `json:"bitrate"`
}

// CommandReply answers a control request. Message is the localized text
// either way; Code is set on failure.
type CommandReply struct {
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// UnmarshalStats deserializes a StatsMessage from JSON.
func UnmarshalStats(data []byte) (StatsMessage, error) {
	var m StatsMessage
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalStart deserializes a StartRequest from JSON.
func UnmarshalStart(data []byte) (StartRequest, error) {
	var m StartRequest
	err := json.Unmarshal(data, &m)
	return m, err
}

// UnmarshalReply deserializes a CommandReply from JSON.
func UnmarshalReply(data []byte) (CommandReply, error) {
	var m CommandReply
	err := json.Unmarshal(data, &m)
	return m, err
}
