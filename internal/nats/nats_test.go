package nats

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/livecast/internal/control"
	"github.com/smazurov/livecast/internal/events"
	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startServer(t *testing.T) *Server {
	t.Helper()
	server := NewServer(ServerOptions{Port: -1, Name: "test-server", Logger: quietLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(server.Stop)
	return server
}

type fakeCommands struct {
	mu          sync.Mutex
	destination string
	bitrate     uint32
	startErr    error
	stopErr     error
}

func (f *fakeCommands) StartStreaming(destination string, bitrate uint32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destination, f.bitrate = destination, bitrate
	if f.startErr != nil {
		return "", f.startErr
	}
	return "Stream started successfully", nil
}

func (f *fakeCommands) lastStart() (string, uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.destination, f.bitrate
}

func (f *fakeCommands) StopStreaming() (string, error) {
	if f.stopErr != nil {
		return "", f.stopErr
	}
	return "Stream stopped successfully", nil
}

type sinkFunc func(stats.StreamStats)

func (f sinkFunc) Set(s stats.StreamStats) { f(s) }

func TestServerStartStop(t *testing.T) {
	server := NewServer(ServerOptions{Port: -1, Logger: quietLogger()})
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	if !server.IsRunning() {
		t.Error("Server should be running after Start()")
	}
	if server.ClientURL() == "" {
		t.Error("ClientURL should not be empty")
	}

	server.Stop()

	if server.IsRunning() {
		t.Error("Server should not be running after Stop()")
	}
	if server.NumClients() != 0 {
		t.Error("stopped server should report no clients")
	}
}

func TestBridgeControl(t *testing.T) {
	server := startServer(t)

	tests := []struct {
		name     string
		commands *fakeCommands
		stop     bool
		wantErr  bool
		wantMsg  string
		wantCode string
	}{
		{
			name:     "start",
			commands: &fakeCommands{},
			wantMsg:  "Stream started successfully",
		},
		{
			name: "start rejected",
			commands: &fakeCommands{startErr: &control.CommandError{
				Code:    session.ErrCodeAlreadyActive,
				Message: "Stream is already active",
			}},
			wantErr:  true,
			wantCode: session.ErrCodeAlreadyActive,
		},
		{
			name:     "stop",
			commands: &fakeCommands{},
			stop:     true,
			wantMsg:  "Stream stopped successfully",
		},
		{
			name:     "stop unexpected error",
			commands: &fakeCommands{stopErr: errors.New("boom")},
			stop:     true,
			wantErr:  true,
			wantCode: "INTERNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bridge := NewBridge(server.ClientURL(), tt.commands, nil, nil, quietLogger())
			if err := bridge.Start(); err != nil {
				t.Fatalf("bridge start: %v", err)
			}
			defer bridge.Stop()

			client, err := Dial(server.ClientURL(), 2*time.Second, quietLogger())
			if err != nil {
				t.Fatalf("dial: %v", err)
			}
			defer client.Close()

			var msg string
			if tt.stop {
				msg, err = client.Stop()
			} else {
				msg, err = client.Start("udp://127.0.0.1:1234", 2500)
			}

			if tt.wantErr {
				if !errors.Is(err, ErrCommandFailed) {
					t.Fatalf("error = %v, want ErrCommandFailed", err)
				}
				if !strings.Contains(err.Error(), tt.wantCode) {
					t.Errorf("error %q does not carry code %s", err, tt.wantCode)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
			if dest, bitrate := tt.commands.lastStart(); !tt.stop && (dest != "udp://127.0.0.1:1234" || bitrate != 2500) {
				t.Errorf("start got (%q, %d)", dest, bitrate)
			}
		})
	}
}

func TestBridgeStats(t *testing.T) {
	server := startServer(t)

	got := make(chan stats.StreamStats, 1)
	bridge := NewBridge(server.ClientURL(), &fakeCommands{}, sinkFunc(func(s stats.StreamStats) { got <- s }), nil, quietLogger())
	if err := bridge.Start(); err != nil {
		t.Fatalf("bridge start: %v", err)
	}
	defer bridge.Stop()

	client, err := Dial(server.ClientURL(), 2*time.Second, quietLogger())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if err := client.PublishStats(StatsMessage{Bitrate: 4980, FPS: 29.97, DroppedFrames: 2, UptimeSeconds: 120}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case s := <-got:
		if s.Bitrate != 4980 || s.DroppedFrames != 2 || s.UptimeSeconds != 120 {
			t.Errorf("snapshot = %+v", s)
		}
		if s.NetworkQuality != stats.NetworkQualityUnknown {
			t.Errorf("empty quality should become %q, got %q", stats.NetworkQualityUnknown, s.NetworkQuality)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("stats never reached the sink")
	}
}

func TestBridgeMirrorsEvents(t *testing.T) {
	server := startServer(t)
	bus := events.New()

	bridge := NewBridge(server.ClientURL(), &fakeCommands{}, nil, bus, quietLogger())
	if err := bridge.Start(); err != nil {
		t.Fatalf("bridge start: %v", err)
	}
	defer bridge.Stop()

	conn, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer conn.Close()

	sub, err := conn.SubscribeSync(SubjectEventsWildcard)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := conn.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	bus.Publish(events.EncoderExitedEvent{SessionID: "sess-1", PID: 4242, ExitCode: 3})

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("no event mirrored: %v", err)
	}
	if msg.Subject != SubjectEncoderExited {
		t.Errorf("subject = %q, want %q", msg.Subject, SubjectEncoderExited)
	}
	if !strings.Contains(string(msg.Data), `"exit_code":3`) {
		t.Errorf("payload = %s", msg.Data)
	}
}

func TestClientNoResponders(t *testing.T) {
	server := startServer(t)

	client, err := Dial(server.ClientURL(), time.Second, quietLogger())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	if _, err := client.Stop(); err == nil || !strings.Contains(err.Error(), "no livecast instance") {
		t.Errorf("error = %v", err)
	}
}

func TestDialUnreachable(t *testing.T) {
	if _, err := Dial("nats://127.0.0.1:1", 200*time.Millisecond, quietLogger()); err == nil {
		t.Error("Dial should fail without a server")
	}
}

func TestServerLoggerRoutesToSlog(t *testing.T) {
	var buf strings.Builder
	l := &serverLogger{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))}

	l.Noticef("Listening for client connections on %s", "127.0.0.1:4222")
	l.Warnf("slow consumer %d", 7)
	l.Errorf("boom")

	out := buf.String()
	if strings.Contains(out, "Listening") {
		t.Error("notices should log at debug level")
	}
	if !strings.Contains(out, "slow consumer 7") || !strings.Contains(out, "level=ERROR msg=boom") {
		t.Errorf("output = %q", out)
	}
}
