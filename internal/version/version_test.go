package version

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if !strings.Contains(info.Platform, "/") {
		t.Errorf("Platform = %q, want os/arch", info.Platform)
	}
}

func TestBanners(t *testing.T) {
	old := Version
	Version = "1.2.3"
	defer func() { Version = old }()

	if got := UserAgent(); got != "livecast/1.2.3" {
		t.Errorf("UserAgent() = %q", got)
	}
	if got := Short(); !strings.HasPrefix(got, "livecast 1.2.3 (") {
		t.Errorf("Short() = %q", got)
	}
}

func TestApplyBuildSettings(t *testing.T) {
	tests := []struct {
		name       string
		start      Info
		settings   []debug.BuildSetting
		wantCommit string
		wantDate   string
		wantDirty  bool
	}{
		{
			name:  "vcs stamp fills defaults",
			start: Info{GitCommit: "unknown", BuildDate: "unknown"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef0123"},
				{Key: "vcs.time", Value: "2026-01-27T10:30:00Z"},
				{Key: "vcs.modified", Value: "true"},
			},
			wantCommit: "0123456789ab",
			wantDate:   "2026-01-27T10:30:00Z",
			wantDirty:  true,
		},
		{
			name:       "ldflags win",
			start:      Info{GitCommit: "abc1234", BuildDate: "2026-01-01"},
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "ffff"}, {Key: "vcs.time", Value: "x"}},
			wantCommit: "abc1234",
			wantDate:   "2026-01-01",
		},
		{
			name:       "no vcs info",
			start:      Info{GitCommit: "unknown", BuildDate: "unknown"},
			wantCommit: "unknown",
			wantDate:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.start
			applyBuildSettings(&info, tt.settings)
			if info.GitCommit != tt.wantCommit || info.BuildDate != tt.wantDate || info.Modified != tt.wantDirty {
				t.Errorf("got commit=%q date=%q modified=%v", info.GitCommit, info.BuildDate, info.Modified)
			}
		})
	}
}
