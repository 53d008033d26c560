// Package pipeline runs the ffmpeg toolchain as subprocesses: media probing,
// poster frame extraction and toolchain health checks.
package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// ProbeResult is the subset of ffprobe output the catalog keeps.
type ProbeResult struct {
	Duration   float64 `json:"duration"`
	Width      int     `json:"width,omitempty"`
	Height     int     `json:"height,omitempty"`
	Codec      string  `json:"codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	Bitrate    int64   `json:"bitrate,omitempty"`
}

// HasVideo reports whether the probe found a picture stream.
func (p ProbeResult) HasVideo() bool { return p.Codec != "" }

// ToolInfo describes one executable of the toolchain.
type ToolInfo struct {
	Available bool   `json:"available"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Capabilities is the result of a doctor probe.
type Capabilities struct {
	FFmpeg   ToolInfo  `json:"ffmpeg"`
	FFprobe  ToolInfo  `json:"ffprobe"`
	ProbedAt time.Time `json:"probed_at"`
}

func (c Capabilities) CanProbe() bool     { return c.FFprobe.Available }
func (c Capabilities) CanThumbnail() bool { return c.FFmpeg.Available }

// RunResult is the structured outcome of one subprocess.
type RunResult struct {
	ExitCode   int           `json:"exit_code"`
	Stdout     []byte        `json:"-"`
	StderrTail string        `json:"stderr_tail,omitempty"`
	Duration   time.Duration `json:"duration"`
}

func (r RunResult) IsSuccess() bool { return r.ExitCode == 0 }

// parseRational turns ffprobe's "30000/1001" or "25" into frames per second.
func parseRational(s string) float64 {
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	if !found {
		return n
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0
	}
	return n / d
}
