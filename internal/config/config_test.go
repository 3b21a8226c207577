package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

type testOptions struct {
	Config string `help:"Config file path"`

	Port            string   `toml:"server.port" env:"SERVER_PORT"`
	EncoderBinary   string   `toml:"encoder.binary" env:"ENCODER_BINARY"`
	KillByName      bool     `toml:"encoder.kill_by_name_fallback" env:"ENCODER_KILL_BY_NAME"`
	DefaultBitrate  uint32   `toml:"stream.default_bitrate" env:"STREAM_DEFAULT_BITRATE"`
	Retries         int      `toml:"encoder.retries" env:"ENCODER_RETRIES"`
	Ratio           float64  `toml:"metrics.ratio" env:"METRICS_RATIO"`
	AllowedOrigins  []string `toml:"server.allowed_origins" env:"SERVER_ALLOWED_ORIGINS"`
	NotConfigurable string
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":9000"
allowed_origins = ["a", "b"]

[encoder]
binary = "/usr/local/bin/ffmpeg"
kill_by_name_fallback = true
retries = 3

[stream]
default_bitrate = 4500

[metrics]
ratio = 0.5
`)

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.Port != ":9000" {
		t.Errorf("Port = %q, want :9000", opts.Port)
	}
	if opts.EncoderBinary != "/usr/local/bin/ffmpeg" {
		t.Errorf("EncoderBinary = %q", opts.EncoderBinary)
	}
	if !opts.KillByName {
		t.Error("KillByName should be true")
	}
	if opts.DefaultBitrate != 4500 {
		t.Errorf("DefaultBitrate = %d, want 4500", opts.DefaultBitrate)
	}
	if opts.Retries != 3 {
		t.Errorf("Retries = %d, want 3", opts.Retries)
	}
	if opts.Ratio != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", opts.Ratio)
	}
	if !reflect.DeepEqual(opts.AllowedOrigins, []string{"a", "b"}) {
		t.Errorf("AllowedOrigins = %v", opts.AllowedOrigins)
	}
}

func TestLoadConfigEnvOverridesTOML(t *testing.T) {
	path := writeConfig(t, `
[server]
port = ":9000"

[encoder]
binary = "ffmpeg-from-file"
`)

	t.Setenv(EnvPrefix+"ENCODER_BINARY", "ffmpeg-from-env")
	t.Setenv(EnvPrefix+"STREAM_DEFAULT_BITRATE", "6000")
	t.Setenv(EnvPrefix+"SERVER_ALLOWED_ORIGINS", " x , y ")

	opts := &testOptions{Config: path}
	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.EncoderBinary != "ffmpeg-from-env" {
		t.Errorf("EncoderBinary = %q, want env value", opts.EncoderBinary)
	}
	if opts.Port != ":9000" {
		t.Errorf("Port = %q, want TOML value", opts.Port)
	}
	if opts.DefaultBitrate != 6000 {
		t.Errorf("DefaultBitrate = %d, want 6000", opts.DefaultBitrate)
	}
	if !reflect.DeepEqual(opts.AllowedOrigins, []string{"x", "y"}) {
		t.Errorf("AllowedOrigins = %v, want [x y]", opts.AllowedOrigins)
	}
}

func TestLoadConfigCLIFlagWins(t *testing.T) {
	path := writeConfig(t, `
[encoder]
binary = "ffmpeg-from-file"

[server]
port = ":9000"
`)
	t.Setenv(EnvPrefix+"SERVER_PORT", ":9100")

	opts := &testOptions{Config: path}
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringVar(&opts.EncoderBinary, "encoder-binary", "ffmpeg", "")
	cmd.Flags().StringVar(&opts.Port, "port", ":8090", "")
	if err := cmd.Flags().Parse([]string{"--encoder-binary", "ffmpeg-from-cli"}); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(opts, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if opts.EncoderBinary != "ffmpeg-from-cli" {
		t.Errorf("EncoderBinary = %q, want CLI value", opts.EncoderBinary)
	}
	if opts.Port != ":9100" {
		t.Errorf("Port = %q, want env value for unchanged flag", opts.Port)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	opts := &testOptions{Config: filepath.Join(t.TempDir(), "missing.toml"), Port: ":8090"}

	if err := LoadConfig(opts, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
	if opts.Port != ":8090" {
		t.Errorf("defaults should be kept, got %q", opts.Port)
	}
}

func TestLoadConfigInvalidTOML(t *testing.T) {
	path := writeConfig(t, "[server\nport = ")

	if err := LoadConfig(&testOptions{Config: path}, nil); err == nil {
		t.Fatal("LoadConfig should fail for invalid TOML")
	}
}

func TestLoadConfigRejectsNonPointer(t *testing.T) {
	if err := LoadConfig(testOptions{}, nil); err == nil {
		t.Fatal("expected error for non-pointer options")
	}
}

func TestFieldNameToFlag(t *testing.T) {
	tests := map[string]string{
		"Port":                   "port",
		"LoggingLevel":           "logging-level",
		"EncoderGracefulTimeout": "encoder-graceful-timeout",
		"LoggingHTTP":            "logging-http",
		"UILocale":               "ui-locale",
	}
	for in, want := range tests {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"level1": map[string]any{
			"level2": map[string]any{"value": "nested_value"},
			"simple": "simple_value",
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"level1.simple", "simple_value"},
		{"level1.level2.value", "nested_value"},
		{"nonexistent", nil},
		{"root.child", nil},
		{"level1.nonexistent", nil},
	}

	for _, tt := range tests {
		if got := getNestedValue(data, tt.path); got != tt.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", tt.path, got, tt.expected)
		}
	}
}

func TestSetFieldValueIgnoresNegativeForUnsigned(t *testing.T) {
	s := &testOptions{DefaultBitrate: 100}
	setFieldValue(reflect.ValueOf(s).Elem().FieldByName("DefaultBitrate"), int64(-5))

	if s.DefaultBitrate != 100 {
		t.Errorf("DefaultBitrate = %d, negative TOML value should be ignored", s.DefaultBitrate)
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
session = "debug"
encoder = "error"

[server]
port = ":1"
`)

	cfg, err := LoadLoggingConfig(path)
	if err != nil {
		t.Fatalf("LoadLoggingConfig failed: %v", err)
	}

	if cfg.Level != "warn" || cfg.Format != "json" {
		t.Errorf("got level=%q format=%q, want warn/json", cfg.Level, cfg.Format)
	}
	want := map[string]string{"session": "debug", "encoder": "error"}
	if !reflect.DeepEqual(cfg.Modules, want) {
		t.Errorf("Modules = %v, want %v", cfg.Modules, want)
	}
}

func TestLoadLoggingConfigDefaults(t *testing.T) {
	cfg, err := LoadLoggingConfig(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Level != "info" || cfg.Format != "text" || len(cfg.Modules) != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}
