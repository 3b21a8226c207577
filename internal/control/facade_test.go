package control

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/livecast/internal/session"
	"github.com/smazurov/livecast/internal/stats"
	"golang.org/x/text/language"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeHandle struct {
	done chan struct{}
}

func (h *fakeHandle) PID() int              { return 4242 }
func (h *fakeHandle) StartedAt() time.Time  { return time.Time{} }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) ExitCode() int         { return -1 }

// fakeLauncher optionally blocks inside Launch until release is closed.
type fakeLauncher struct {
	mu           sync.Mutex
	entered      chan struct{}
	release      chan struct{}
	launchErr    error
	terminateErr error
	configs      []session.StreamConfig
}

func (l *fakeLauncher) Launch(cfg session.StreamConfig) (session.Handle, error) {
	if l.entered != nil {
		close(l.entered)
	}
	if l.release != nil {
		<-l.release
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	l.configs = append(l.configs, cfg)
	return &fakeHandle{done: make(chan struct{})}, nil
}

func (l *fakeLauncher) Terminate(h session.Handle) error {
	if l.terminateErr != nil {
		return l.terminateErr
	}
	close(h.(*fakeHandle).done)
	return nil
}

func newTestFacade(t *testing.T, l *fakeLauncher, opts ...Option) (*Facade, *session.Manager, *stats.Store) {
	t.Helper()
	m := session.NewManager(l, session.WithLogger(testLogger()))
	store := stats.NewStore()
	opts = append([]Option{WithLogger(testLogger())}, opts...)
	return New(m, store, opts...), m, store
}

func TestStartStreamingDefaults(t *testing.T) {
	l := &fakeLauncher{}
	f, m, _ := newTestFacade(t, l)

	msg, err := f.StartStreaming("  udp://127.0.0.1:1234 ", 5000)
	if err != nil {
		t.Fatalf("StartStreaming failed: %v", err)
	}
	if msg != "Stream iniciado com sucesso" {
		t.Errorf("message = %q", msg)
	}
	if m.State() != session.StateStreaming {
		t.Errorf("state = %s, want streaming", m.State())
	}

	want := session.StreamConfig{
		Destination:  "udp://127.0.0.1:1234",
		Bitrate:      5000,
		Resolution:   "1920x1080",
		AudioEnabled: true,
		VideoEnabled: true,
	}
	if len(l.configs) != 1 || l.configs[0] != want {
		t.Errorf("launched configs = %+v, want [%+v]", l.configs, want)
	}
}

func TestStartStreamingTwice(t *testing.T) {
	f, _, _ := newTestFacade(t, &fakeLauncher{})

	if _, err := f.StartStreaming("udp://127.0.0.1:1234", 5000); err != nil {
		t.Fatalf("first start failed: %v", err)
	}
	_, err := f.StartStreaming("udp://127.0.0.1:1234", 5000)

	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error %T is not *CommandError", err)
	}
	if cmdErr.Code != session.ErrCodeAlreadyActive {
		t.Errorf("Code = %q, want %q", cmdErr.Code, session.ErrCodeAlreadyActive)
	}
	if err.Error() != "Stream já está ativo" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, session.ErrAlreadyActive) {
		t.Error("CommandError should unwrap to the session error")
	}
}

func TestStopStreaming(t *testing.T) {
	f, m, _ := newTestFacade(t, &fakeLauncher{})

	_, err := f.StopStreaming()
	if err == nil || err.Error() != "Stream não está ativo" {
		t.Fatalf("stop while idle = %v, want 'Stream não está ativo'", err)
	}

	if _, err := f.StartStreaming("udp://127.0.0.1:1234", 5000); err != nil {
		t.Fatalf("StartStreaming failed: %v", err)
	}
	msg, err := f.StopStreaming()
	if err != nil {
		t.Fatalf("StopStreaming failed: %v", err)
	}
	if msg != "Stream parado com sucesso" {
		t.Errorf("message = %q", msg)
	}
	if m.State() != session.StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
}

func TestStartStreamingLaunchFailure(t *testing.T) {
	l := &fakeLauncher{launchErr: errors.New("executable file not found")}
	f, m, _ := newTestFacade(t, l)

	_, err := f.StartStreaming("udp://127.0.0.1:1234", 5000)
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), "Erro ao iniciar stream: executable file not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) || cmdErr.Code != session.ErrCodeLaunchFailed {
		t.Errorf("error = %#v, want LAUNCH_FAILED", err)
	}
	if m.State() != session.StateIdle {
		t.Errorf("state = %s, want idle", m.State())
	}
}

func TestStopStreamingTerminateFailure(t *testing.T) {
	l := &fakeLauncher{}
	f, m, _ := newTestFacade(t, l)

	if _, err := f.StartStreaming("udp://127.0.0.1:1234", 5000); err != nil {
		t.Fatalf("StartStreaming failed: %v", err)
	}
	l.terminateErr = errors.New("operation not permitted")

	_, err := f.StopStreaming()
	if err == nil || !strings.HasPrefix(err.Error(), "Erro ao parar stream: ") {
		t.Fatalf("StopStreaming error = %v", err)
	}
	if !strings.Contains(err.Error(), "operation not permitted") {
		t.Errorf("message should carry the diagnostic: %q", err.Error())
	}
	if m.State() != session.StateStreaming {
		t.Errorf("state = %s, want streaming", m.State())
	}
}

func TestStartStreamingValidation(t *testing.T) {
	tests := []struct {
		name        string
		destination string
		bitrate     uint32
		wantMsg     string
	}{
		{"empty destination", "", 5000, "Destino é obrigatório"},
		{"blank destination", "   ", 5000, "Destino é obrigatório"},
		{"zero bitrate", "udp://127.0.0.1:1234", 0, "Bitrate deve ser maior que zero"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &fakeLauncher{}
			f, m, _ := newTestFacade(t, l)

			_, err := f.StartStreaming(tt.destination, tt.bitrate)
			var cmdErr *CommandError
			if !errors.As(err, &cmdErr) || cmdErr.Code != ErrCodeInvalidInput {
				t.Fatalf("error = %v, want INVALID_INPUT", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
			if len(l.configs) != 0 || m.State() != session.StateIdle {
				t.Error("invalid input must not reach the launcher")
			}
		})
	}
}

func TestEnglishLocale(t *testing.T) {
	f, _, _ := newTestFacade(t, &fakeLauncher{}, WithLocale("en-US"))

	msg, err := f.StartStreaming("udp://127.0.0.1:1234", 5000)
	if err != nil {
		t.Fatalf("StartStreaming failed: %v", err)
	}
	if msg != "Stream started successfully" {
		t.Errorf("message = %q", msg)
	}

	_, err = f.StartStreaming("udp://127.0.0.1:1234", 5000)
	if err == nil || err.Error() != "Stream is already active" {
		t.Errorf("error = %v, want English already-active message", err)
	}
}

func TestMatchLocale(t *testing.T) {
	tests := []struct {
		in   string
		want language.Tag
	}{
		{"pt-BR", language.BrazilianPortuguese},
		{"en", language.English},
		{"en-GB", language.English},
		{"", language.BrazilianPortuguese},
		{"not a locale!", language.BrazilianPortuguese},
		{"ja", language.BrazilianPortuguese},
	}

	for _, tt := range tests {
		if got := MatchLocale(tt.in); got != tt.want {
			t.Errorf("MatchLocale(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestGetStatsDuringBlockedStart(t *testing.T) {
	l := &fakeLauncher{entered: make(chan struct{}), release: make(chan struct{})}
	f, _, store := newTestFacade(t, l)

	want := stats.StreamStats{Bitrate: 4800, FPS: 30, NetworkQuality: "Good"}
	store.Set(want)

	startDone := make(chan error, 1)
	go func() {
		_, err := f.StartStreaming("udp://127.0.0.1:1234", 5000)
		startDone <- err
	}()
	<-l.entered

	got := make(chan stats.StreamStats, 1)
	go func() { got <- f.GetStats() }()

	select {
	case st := <-got:
		if st != want {
			t.Errorf("GetStats() = %+v, want %+v", st, want)
		}
	case <-time.After(time.Second):
		t.Fatal("GetStats blocked while start was in progress")
	}

	close(l.release)
	if err := <-startDone; err != nil {
		t.Fatalf("StartStreaming failed: %v", err)
	}
}

func TestGetStatsInitial(t *testing.T) {
	f, _, _ := newTestFacade(t, &fakeLauncher{})

	if got := f.GetStats(); got != stats.Initial() {
		t.Errorf("GetStats() = %+v, want initial snapshot", got)
	}
}

func TestStatus(t *testing.T) {
	f, _, _ := newTestFacade(t, &fakeLauncher{})

	if st := f.Status(); st.State != session.StateIdle {
		t.Errorf("state = %s, want idle", st.State)
	}
	if _, err := f.StartStreaming("udp://127.0.0.1:1234", 2500); err != nil {
		t.Fatal(err)
	}
	st := f.Status()
	if st.State != session.StateStreaming || st.PID != 4242 || st.Config.Bitrate != 2500 {
		t.Errorf("status = %+v", st)
	}
}
