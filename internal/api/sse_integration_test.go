package api

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/session"
)

func newSSETestServer(t *testing.T, facade Facade, bus *events.Bus) *httptest.Server {
	t.Helper()
	server := NewServer(&Options{
		AuthUsername: "test",
		AuthPassword: "test",
		Facade:       facade,
		EventBus:     bus,
	})
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

// readSSE forwards "event:" and "data:" lines from body to the returned channel.
func readSSE(t *testing.T, resp *http.Response) <-chan string {
	t.Helper()
	lines := make(chan string, 32)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "event:") || strings.HasPrefix(line, "data:") {
				lines <- line
			}
		}
	}()
	return lines
}

// waitData returns the next data line, with the event name that preceded it.
func waitData(t *testing.T, lines <-chan string) (event, data string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case line := <-lines:
			if name, ok := strings.CutPrefix(line, "event:"); ok {
				event = strings.TrimSpace(name)
				continue
			}
			return event, strings.TrimPrefix(line, "data:")
		case <-timeout:
			t.Fatal("Timeout waiting for SSE message")
			return "", ""
		}
	}
}

func TestSSEConnectionAndEvents(t *testing.T) {
	bus := events.New()
	facade := &fakeFacade{status: session.Status{State: session.StateIdle}}
	ts := newSSETestServer(t, facade, bus)

	credentials := base64.StdEncoding.EncodeToString([]byte("test:test"))
	resp, err := http.Get(fmt.Sprintf("%s/api/events?auth=%s", ts.URL, credentials))
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream") {
		t.Fatalf("Expected SSE content type, got %s", resp.Header.Get("Content-Type"))
	}

	lines := readSSE(t, resp)

	event, data := waitData(t, lines)
	if event != "session-status" || !strings.Contains(data, `"state":"idle"`) {
		t.Errorf("initial message = %s %s, want idle session-status", event, data)
	}

	bus.Publish(events.SessionStartedEvent{
		SessionID:   "sess-1",
		Destination: "udp://127.0.0.1:1234",
		Bitrate:     5000,
		PID:         4242,
		Timestamp:   time.Now().Format(time.RFC3339),
	})

	event, data = waitData(t, lines)
	if event != "session-started" {
		t.Errorf("event = %q, want session-started", event)
	}
	if !strings.Contains(data, `"session_id":"sess-1"`) || !strings.Contains(data, `"pid":4242`) {
		t.Errorf("unexpected session-started payload: %s", data)
	}

	bus.Publish(events.EncoderExitedEvent{SessionID: "sess-1", PID: 4242, ExitCode: 1})

	event, data = waitData(t, lines)
	if event != "encoder-exited" || !strings.Contains(data, `"exit_code":1`) {
		t.Errorf("got %s %s, want encoder-exited with exit code 1", event, data)
	}
}

func TestSSEStatsUpdated(t *testing.T) {
	bus := events.New()
	ts := newSSETestServer(t, &fakeFacade{}, bus)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}
	req.SetBasicAuth("test", "test")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Failed to connect to SSE: %v", err)
	}
	defer resp.Body.Close()

	lines := readSSE(t, resp)
	waitData(t, lines)

	bus.Publish(events.StatsUpdatedEvent{Bitrate: 4980, FPS: 30, NetworkQuality: "Good"})

	event, data := waitData(t, lines)
	if event != "stats-updated" || !strings.Contains(data, `"network_quality":"Good"`) {
		t.Errorf("got %s %s, want stats-updated", event, data)
	}
}

func TestSSEAuthFailure(t *testing.T) {
	ts := newSSETestServer(t, &fakeFacade{}, events.New())

	resp, err := http.Get(ts.URL + "/api/events")
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected status 401, got %d", resp.StatusCode)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte("wrong:wrong"))
	resp, err = http.Get(fmt.Sprintf("%s/api/events?auth=%s", ts.URL, credentials))
	if err != nil {
		t.Fatalf("Failed to make request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("Expected status 401 for wrong auth, got %d", resp.StatusCode)
	}
}
