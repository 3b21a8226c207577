package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
)

// mapCommandError converts facade errors to HTTP errors. The localized
// message is passed through as the error detail.
func mapCommandError(err error) error {
	var cmdErr *control.CommandError
	if !errors.As(err, &cmdErr) {
		return huma.Error500InternalServerError("Internal server error", err)
	}

	switch cmdErr.Code {
	case session.ErrCodeAlreadyActive, session.ErrCodeNotActive:
		return huma.Error409Conflict(cmdErr.Message)
	case control.ErrCodeInvalidInput:
		return huma.Error400BadRequest(cmdErr.Message)
	case session.ErrCodeLaunchFailed, session.ErrCodeTerminationFailed:
		return huma.Error502BadGateway(cmdErr.Message)
	default:
		return huma.Error500InternalServerError(cmdErr.Message)
	}
}

func (s *Server) registerStreamRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "start-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/start",
		Summary:     "Start Stream",
		Description: "Launch the encoder and start streaming to the destination",
		Tags:        []string{"stream"},
		Security:    withAuth(),
		Errors:      []int{400, 401, 409, 502},
	}, func(_ context.Context, input *models.StartStreamRequest) (*models.CommandResponse, error) {
		msg, err := s.facade.StartStreaming(input.Body.Destination, input.Body.Bitrate)
		if err != nil {
			return nil, mapCommandError(err)
		}
		return &models.CommandResponse{Body: models.CommandData{Message: msg}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-stream",
		Method:      http.MethodPost,
		Path:        "/api/stream/stop",
		Summary:     "Stop Stream",
		Description: "Terminate the encoder of the active session",
		Tags:        []string{"stream"},
		Security:    withAuth(),
		Errors:      []int{401, 409, 502},
	}, func(_ context.Context, _ *struct{}) (*models.CommandResponse, error) {
		msg, err := s.facade.StopStreaming()
		if err != nil {
			return nil, mapCommandError(err)
		}
		return &models.CommandResponse{Body: models.CommandData{Message: msg}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-stream-stats",
		Method:      http.MethodGet,
		Path:        "/api/stream/stats",
		Summary:     "Stream Stats",
		Description: "Get the latest stream statistics snapshot",
		Tags:        []string{"stream"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatsResponse, error) {
		return &models.StatsResponse{Body: statsToAPI(s.facade.GetStats())}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-stream-status",
		Method:      http.MethodGet,
		Path:        "/api/stream/status",
		Summary:     "Stream Status",
		Description: "Get the session state and the active stream configuration",
		Tags:        []string{"stream"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		return &models.StatusResponse{Body: statusToAPI(s.facade.Status())}, nil
	})
}

func statsToAPI(st stats.StreamStats) models.StatsData {
	return models.StatsData{
		Bitrate:        st.Bitrate,
		FPS:            st.FPS,
		DroppedFrames:  st.DroppedFrames,
		NetworkQuality: st.NetworkQuality,
		UptimeSeconds:  st.UptimeSeconds,
	}
}

func statusToAPI(st session.Status) models.StatusData {
	data := models.StatusData{
		State:         string(st.State),
		SessionID:     st.SessionID,
		PID:           st.PID,
		UptimeSeconds: st.Uptime.Seconds(),
		EncoderExited: st.EncoderExited,
	}
	if st.EncoderExited {
		data.ExitCode = st.ExitCode
	}
	if st.Config != nil {
		data.Config = &models.StreamConfigData{
			Destination:  st.Config.Destination,
			Bitrate:      st.Config.Bitrate,
			Resolution:   st.Config.Resolution,
			AudioEnabled: st.Config.AudioEnabled,
			VideoEnabled: st.Config.VideoEnabled,
		}
	}
	if !st.StartedAt.IsZero() {
		startedAt := st.StartedAt.UTC().Truncate(time.Millisecond)
		data.StartedAt = &startedAt
	}
	return data
}
