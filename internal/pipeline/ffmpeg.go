package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	ThumbnailWidth  = 320
	ThumbnailOffset = 1.0 // seconds into the media
)

// ErrToolUnavailable is returned by StubFFmpeg for operations that need the
// real toolchain.
var ErrToolUnavailable = errors.New("ffmpeg toolchain not available")

// FFmpeg is what the catalog needs from the media toolchain.
type FFmpeg interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
	Thumbnail(ctx context.Context, path, outPath string, at float64) error
}

// ExecConfig configures ExecFFmpeg.
type ExecConfig struct {
	FFmpegPath   string
	FFprobePath  string
	ProbeTimeout time.Duration
	Logger       *slog.Logger
}

// ExecFFmpeg shells out to ffprobe and ffmpeg.
type ExecFFmpeg struct {
	cfg ExecConfig
}

func NewExecFFmpeg(cfg ExecConfig) *ExecFFmpeg {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FFprobePath == "" {
		cfg.FFprobePath = "ffprobe"
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &ExecFFmpeg{cfg: cfg}
}

func (f *ExecFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	result := run(ctx, f.cfg.Logger, true, f.cfg.FFprobePath,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if !result.IsSuccess() {
		return nil, fmt.Errorf("ffprobe exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
	}
	return ParseProbe(result.Stdout)
}

// Thumbnail writes one scaled JPEG frame taken at the given offset.
func (f *ExecFFmpeg) Thumbnail(ctx context.Context, path, outPath string, at float64) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.ProbeTimeout)
	defer cancel()

	result := run(ctx, f.cfg.Logger, false, f.cfg.FFmpegPath,
		"-y",
		"-v", "error",
		"-ss", strconv.FormatFloat(at, 'f', 3, 64),
		"-i", path,
		"-frames:v", "1",
		"-vf", fmt.Sprintf("scale=%d:-2", ThumbnailWidth),
		outPath,
	)
	if !result.IsSuccess() {
		return fmt.Errorf("ffmpeg exited %d: %s", result.ExitCode, truncate(result.StderrTail, 512))
	}
	return nil
}

// ThumbnailOffsetFor picks the frame to extract: one second in, or the
// midpoint of anything shorter than two seconds.
func ThumbnailOffsetFor(duration float64) float64 {
	if duration > 0 && duration < 2*ThumbnailOffset {
		return duration / 2
	}
	return ThumbnailOffset
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		Duration     string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
}

// ParseProbe decodes `ffprobe -print_format json -show_format -show_streams`.
// Durations that ffprobe cannot determine are left at zero.
func ParseProbe(data []byte) (*ProbeResult, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("cannot parse ffprobe JSON: %w", err)
	}

	res := &ProbeResult{}
	res.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	res.Bitrate, _ = strconv.ParseInt(out.Format.BitRate, 10, 64)

	for _, s := range out.Streams {
		switch s.CodecType {
		case "video":
			if res.Codec != "" {
				continue
			}
			res.Codec = s.CodecName
			res.Width = s.Width
			res.Height = s.Height
			res.FrameRate = parseRational(s.AvgFrameRate)
			if res.FrameRate == 0 {
				res.FrameRate = parseRational(s.RFrameRate)
			}
		case "audio":
			if res.AudioCodec == "" {
				res.AudioCodec = s.CodecName
			}
		}
		if res.Duration == 0 {
			res.Duration, _ = strconv.ParseFloat(s.Duration, 64)
		}
	}
	if res.Duration < 0 {
		res.Duration = 0
	}
	return res, nil
}

// StubFFmpeg stands in when the toolchain is missing. Probes succeed with an
// unknown duration so imports still land in the asset library.
type StubFFmpeg struct {
	logger *slog.Logger
}

func NewStubFFmpeg(logger *slog.Logger) *StubFFmpeg {
	return &StubFFmpeg{logger: logger}
}

func (f *StubFFmpeg) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	f.logger.Debug("ffmpeg stub: probe skipped", "path", filepath.Base(path))
	return &ProbeResult{}, nil
}

func (f *StubFFmpeg) Thumbnail(ctx context.Context, path, outPath string, at float64) error {
	return ErrToolUnavailable
}
