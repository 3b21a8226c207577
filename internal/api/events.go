package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/livecast/internal/api/models"
	"github.com/smazurov/livecast/internal/events"
)

// registerSSERoutes registers the session event stream.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time session lifecycle and stats events. The current session status is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"session-status":  models.StatusData{},
		"session-started": events.SessionStartedEvent{},
		"session-stopped": events.SessionStoppedEvent{},
		"encoder-exited":  events.EncoderExitedEvent{},
		"stats-updated":   events.StatsUpdatedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 10)

		// Subscribe before the snapshot so no transition falls between them.
		unsubscribers := []func(){
			events.SubscribeToChannel[events.SessionStartedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.SessionStoppedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.EncoderExitedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.StatsUpdatedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(statusToAPI(s.facade.Status())); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
