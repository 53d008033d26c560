// Package config provides configuration management for the coclip agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort     = 8790
	DefaultLogLevel = "info"
	DefaultDataDir  = ".coclip"

	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"

	DefaultPixelsPerSecond = 20.0
	DefaultSnapInterval    = 0.5

	DefaultProjectWidth  = 1920
	DefaultProjectHeight = 1080
	DefaultProjectFPS    = 30.0

	DefaultProbeTimeout = 30 // seconds

	// Environment variable names
	EnvPort     = "COCLIP_PORT"
	EnvLogLevel = "COCLIP_LOG_LEVEL"
	EnvDataDir  = "COCLIP_DATA_DIR"
	EnvHeadless = "COCLIP_HEADLESS"

	// Media toolchain
	EnvFFmpeg       = "COCLIP_FFMPEG"
	EnvFFprobe      = "COCLIP_FFPROBE"
	EnvProbeTimeout = "COCLIP_PROBE_TIMEOUT"

	// Timeline surface
	EnvPixelsPerSecond = "COCLIP_PIXELS_PER_SECOND"
	EnvSnapInterval    = "COCLIP_SNAP_INTERVAL"
	EnvProjectWidth    = "COCLIP_PROJECT_WIDTH"
	EnvProjectHeight   = "COCLIP_PROJECT_HEIGHT"
	EnvProjectFPS      = "COCLIP_PROJECT_FPS"

	// Database filename
	DBFilename = "coclip.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ThumbnailDir() string
	ExportDir() string
	Headless() bool
	FFmpegPath() string
	FFprobePath() string
	ProbeTimeout() time.Duration
	PixelsPerSecond() float64
	SnapInterval() float64
	ProjectWidth() int
	ProjectHeight() int
	ProjectFPS() float64
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port     int
	logLevel string
	dataDir  string
	headless bool

	ffmpeg       string
	ffprobe      string
	probeTimeout time.Duration

	pixelsPerSecond float64
	snapInterval    float64
	width           int
	height          int
	fps             float64
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:            DefaultPort,
		logLevel:        DefaultLogLevel,
		dataDir:         defaultDataDir(),
		ffmpeg:          DefaultFFmpeg,
		ffprobe:         DefaultFFprobe,
		probeTimeout:    DefaultProbeTimeout * time.Second,
		pixelsPerSecond: DefaultPixelsPerSecond,
		snapInterval:    DefaultSnapInterval,
		width:           DefaultProjectWidth,
		height:          DefaultProjectHeight,
		fps:             DefaultProjectFPS,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	if v := os.Getenv(EnvFFmpeg); v != "" {
		cfg.ffmpeg = v
	}
	if v := os.Getenv(EnvFFprobe); v != "" {
		cfg.ffprobe = v
	}

	if v := os.Getenv(EnvProbeTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive number of seconds", EnvProbeTimeout)
		}
		cfg.probeTimeout = time.Duration(secs) * time.Second
	}

	var err error
	if cfg.pixelsPerSecond, err = positiveFloat(EnvPixelsPerSecond, cfg.pixelsPerSecond); err != nil {
		return nil, err
	}
	if cfg.snapInterval, err = positiveFloat(EnvSnapInterval, cfg.snapInterval); err != nil {
		return nil, err
	}
	if cfg.fps, err = positiveFloat(EnvProjectFPS, cfg.fps); err != nil {
		return nil, err
	}
	if cfg.width, err = positiveInt(EnvProjectWidth, cfg.width); err != nil {
		return nil, err
	}
	if cfg.height, err = positiveInt(EnvProjectHeight, cfg.height); err != nil {
		return nil, err
	}

	return cfg, nil
}

func positiveFloat(name string, def float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if !(f > 0) || f > 1e6 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return f, nil
}

func positiveInt(name string, def int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", name)
	}
	return n, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ThumbnailDir is where extracted poster frames are written.
func (c *EnvConfig) ThumbnailDir() string {
	return filepath.Join(c.dataDir, "thumbnails")
}

// ExportDir is the default destination for EDL exports.
func (c *EnvConfig) ExportDir() string {
	return filepath.Join(c.dataDir, "exports")
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpeg
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobe
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return c.probeTimeout
}

func (c *EnvConfig) PixelsPerSecond() float64 {
	return c.pixelsPerSecond
}

func (c *EnvConfig) SnapInterval() float64 {
	return c.snapInterval
}

func (c *EnvConfig) ProjectWidth() int {
	return c.width
}

func (c *EnvConfig) ProjectHeight() int {
	return c.height
}

func (c *EnvConfig) ProjectFPS() float64 {
	return c.fps
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
