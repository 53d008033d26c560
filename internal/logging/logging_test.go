package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNewLoggerTo_WritesScopedJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := WithClipID(WithComponent(NewLoggerTo(&buf, "info"), "interaction"), "clip-1")

	logger.Debug("hidden")
	logger.Info("clip dropped", "start", 2.5)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not a single JSON object: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "clip dropped" || entry["component"] != "interaction" || entry["clip_id"] != "clip-1" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "****"},
		{"12345678", "****"},
		{"abcd1234efgh", "abcd...efgh"},
	}

	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizePath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		t.Skip("no home directory")
	}

	if got := SanitizePath(filepath.Join(home, "Movies", "a.mp4")); got != filepath.Join("~", "Movies", "a.mp4") {
		t.Errorf("SanitizePath() = %q", got)
	}
	if got := SanitizePath("/srv/media/a.mp4"); got != "/srv/media/a.mp4" && home != "/" {
		t.Errorf("SanitizePath() = %q, want unchanged", got)
	}
}
