package config

import (
	"path/filepath"
	"testing"
	"time"
)

var allEnv = []string{
	EnvPort, EnvLogLevel, EnvDataDir, EnvHeadless, EnvFFmpeg, EnvFFprobe, EnvProbeTimeout,
	EnvPixelsPerSecond, EnvSnapInterval, EnvProjectWidth, EnvProjectHeight, EnvProjectFPS,
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range allEnv {
		t.Setenv(name, "")
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != DefaultPort {
		t.Errorf("Port() = %d, want %d", cfg.Port(), DefaultPort)
	}
	if cfg.LogLevel() != "info" {
		t.Errorf("LogLevel() = %q", cfg.LogLevel())
	}
	if cfg.Headless() {
		t.Error("Headless() = true by default")
	}
	if cfg.FFmpegPath() != "ffmpeg" || cfg.FFprobePath() != "ffprobe" {
		t.Errorf("toolchain = %q / %q", cfg.FFmpegPath(), cfg.FFprobePath())
	}
	if cfg.ProbeTimeout() != 30*time.Second {
		t.Errorf("ProbeTimeout() = %v", cfg.ProbeTimeout())
	}
	if cfg.PixelsPerSecond() != 20 || cfg.SnapInterval() != 0.5 {
		t.Errorf("grid = %v px/s, %v s", cfg.PixelsPerSecond(), cfg.SnapInterval())
	}
	if cfg.ProjectWidth() != 1920 || cfg.ProjectHeight() != 1080 || cfg.ProjectFPS() != 30 {
		t.Errorf("canvas = %dx%d@%v", cfg.ProjectWidth(), cfg.ProjectHeight(), cfg.ProjectFPS())
	}
}

func TestNew_FromEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvDataDir, dir)
	t.Setenv(EnvHeadless, "true")
	t.Setenv(EnvFFmpeg, "/opt/ffmpeg/bin/ffmpeg")
	t.Setenv(EnvProbeTimeout, "5")
	t.Setenv(EnvPixelsPerSecond, "40")
	t.Setenv(EnvProjectFPS, "24")
	t.Setenv(EnvProjectWidth, "1280")
	t.Setenv(EnvProjectHeight, "720")

	cfg, err := New()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port() != 9100 {
		t.Errorf("Port() = %d", cfg.Port())
	}
	if cfg.DBPath() != filepath.Join(dir, DBFilename) {
		t.Errorf("DBPath() = %q", cfg.DBPath())
	}
	if cfg.ThumbnailDir() != filepath.Join(dir, "thumbnails") {
		t.Errorf("ThumbnailDir() = %q", cfg.ThumbnailDir())
	}
	if cfg.ExportDir() != filepath.Join(dir, "exports") {
		t.Errorf("ExportDir() = %q", cfg.ExportDir())
	}
	if !cfg.Headless() {
		t.Error("Headless() = false")
	}
	if cfg.FFmpegPath() != "/opt/ffmpeg/bin/ffmpeg" {
		t.Errorf("FFmpegPath() = %q", cfg.FFmpegPath())
	}
	if cfg.ProbeTimeout() != 5*time.Second {
		t.Errorf("ProbeTimeout() = %v", cfg.ProbeTimeout())
	}
	if cfg.PixelsPerSecond() != 40 || cfg.ProjectFPS() != 24 {
		t.Errorf("PixelsPerSecond() = %v, ProjectFPS() = %v", cfg.PixelsPerSecond(), cfg.ProjectFPS())
	}
	if cfg.ProjectWidth() != 1280 || cfg.ProjectHeight() != 720 {
		t.Errorf("canvas = %dx%d", cfg.ProjectWidth(), cfg.ProjectHeight())
	}
}

func TestNew_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
	}{
		{"port not a number", EnvPort, "abc"},
		{"port out of range", EnvPort, "70000"},
		{"headless not a bool", EnvHeadless, "maybe"},
		{"zero probe timeout", EnvProbeTimeout, "0"},
		{"negative pixels per second", EnvPixelsPerSecond, "-20"},
		{"zero snap interval", EnvSnapInterval, "0"},
		{"fps not a number", EnvProjectFPS, "fast"},
		{"zero width", EnvProjectWidth, "0"},
		{"height not a number", EnvProjectHeight, "tall"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.value)
			if _, err := New(); err == nil {
				t.Errorf("New() with %s=%q succeeded", tt.env, tt.value)
			}
		})
	}
}
