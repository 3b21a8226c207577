package logging

import (
	"log/slog"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

func TestJournalFieldName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"pid", "PID"},
		{"session_id", "SESSION_ID"},
		{"encoder.pid", "ENCODER_PID"},
		{"_hidden", "HIDDEN"},
		{"9lives", "F_9LIVES"},
		{"", "F_"},
	}
	for _, tt := range tests {
		if got := journalFieldName(tt.in); got != tt.want {
			t.Errorf("journalFieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestJournalFieldsFromAttrs(t *testing.T) {
	h := NewJournalHandler(slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("module", "session")}).
		WithGroup("encoder").(*JournalHandler)

	fields := map[string]string{}
	addJournalField(fields, h.prefix, slog.Int("pid", 42))
	addJournalField(fields, h.prefix, slog.Group("exit", slog.Int("code", 3)))
	addJournalField(fields, "", slog.Duration("took", 1500*time.Millisecond))
	addJournalField(fields, "", slog.Float64("fps", 29.97))

	want := map[string]string{
		"ENCODER_PID":       "42",
		"ENCODER_EXIT_CODE": "3",
		"TOOK":              "1.5s",
		"FPS":               "29.97",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("%s = %q, want %q", k, fields[k], v)
		}
	}
	if h.fields["MODULE"] != "session" {
		t.Errorf("MODULE = %q, want session", h.fields["MODULE"])
	}
}

func TestJournalPriority(t *testing.T) {
	tests := []struct {
		level slog.Level
		want  journal.Priority
	}{
		{slog.LevelDebug, journal.PriDebug},
		{slog.LevelInfo, journal.PriInfo},
		{slog.LevelWarn, journal.PriWarning},
		{slog.LevelError, journal.PriErr},
	}
	for _, tt := range tests {
		if got := journalPriority(tt.level); got != tt.want {
			t.Errorf("journalPriority(%v) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
