package pipeline

import (
	"context"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// Doctor checks which toolchain executables are usable.
type Doctor interface {
	Check(ctx context.Context) (*Capabilities, error)
}

// ToolDoctor resolves ffmpeg and ffprobe on PATH and runs `-version` on each.
type ToolDoctor struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
	Logger      *slog.Logger
}

func (d *ToolDoctor) Check(ctx context.Context) (*Capabilities, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	caps := &Capabilities{
		FFmpeg:   d.checkTool(ctx, d.FFmpegPath),
		FFprobe:  d.checkTool(ctx, d.FFprobePath),
		ProbedAt: time.Now(),
	}
	d.Logger.Info("toolchain probe complete",
		"ffmpeg", caps.FFmpeg.Available,
		"ffprobe", caps.FFprobe.Available,
	)
	return caps, nil
}

func (d *ToolDoctor) checkTool(ctx context.Context, name string) ToolInfo {
	path, err := exec.LookPath(name)
	if err != nil {
		return ToolInfo{Error: err.Error()}
	}
	result := run(ctx, d.Logger, true, path, "-version")
	if !result.IsSuccess() {
		return ToolInfo{Path: path, Error: truncate(result.StderrTail, 256)}
	}
	return ToolInfo{Available: true, Path: path, Version: versionLine(string(result.Stdout))}
}

// versionLine extracts "6.1.1" from "ffmpeg version 6.1.1 Copyright ...".
func versionLine(out string) string {
	first, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(first)
	for i, f := range fields {
		if f == "version" && i+1 < len(fields) {
			return fields[i+1]
		}
	}
	return strings.TrimSpace(first)
}

// CachedDoctor caches doctor results for a TTL and serves the last good
// result when a re-probe fails.
type CachedDoctor struct {
	doctor Doctor
	ttl    time.Duration
	logger *slog.Logger

	mu     sync.RWMutex
	cached *Capabilities
}

func NewCachedDoctor(doctor Doctor, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		doctor: doctor,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := d.doctor.Check(ctx)
	if err != nil {
		d.logger.Warn("toolchain probe failed", "error", err)
		if d.cached != nil {
			return d.cached, nil
		}
		return nil, err
	}

	d.cached = caps
	return caps, nil
}

func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}

// Toolchain routes calls to the real binaries when the last doctor probe
// found them and to a fallback otherwise, so installing ffmpeg while the
// agent runs takes effect once the cache expires.
type Toolchain struct {
	doctor   *CachedDoctor
	primary  FFmpeg
	fallback FFmpeg
}

func NewToolchain(doctor *CachedDoctor, primary, fallback FFmpeg) *Toolchain {
	return &Toolchain{doctor: doctor, primary: primary, fallback: fallback}
}

func (t *Toolchain) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	caps, err := t.doctor.Get(ctx)
	if err != nil || !caps.CanProbe() {
		return t.fallback.Probe(ctx, path)
	}
	return t.primary.Probe(ctx, path)
}

func (t *Toolchain) Thumbnail(ctx context.Context, path, outPath string, at float64) error {
	caps, err := t.doctor.Get(ctx)
	if err != nil || !caps.CanThumbnail() {
		return t.fallback.Thumbnail(ctx, path, outPath, at)
	}
	return t.primary.Thumbnail(ctx, path, outPath, at)
}
