package api

import (
	"time"

	"github.com/coclip/coclip-agent/internal/catalog"
	"github.com/coclip/coclip-agent/internal/placement"
	"github.com/coclip/coclip-agent/internal/playback"
	"github.com/coclip/coclip-agent/internal/timeline"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State       string             `json:"state"`
	LastError   string             `json:"last_error,omitempty"`
	FilesCount  int                `json:"files_count"`
	AssetsCount int                `json:"assets_count"`
	ClipsCount  int                `json:"clips_count"`
	JobsActive  int                `json:"jobs_active"`
	ActiveJob   *JobResponse       `json:"active_job,omitempty"`
	Toolchain   *ToolchainResponse `json:"toolchain,omitempty"`
	Playback    playback.State     `json:"playback"`
}

type ToolchainResponse struct {
	FFmpeg      bool   `json:"ffmpeg"`
	FFprobe     bool   `json:"ffprobe"`
	Version     string `json:"version,omitempty"`
	LastProbeAt string `json:"last_probe_at,omitempty"`
}

type ProjectResponse struct {
	Version uint64           `json:"version"`
	Project timeline.Project `json:"project"`
}

type AssetsResponse struct {
	Assets []timeline.Asset `json:"assets"`
}

type ImportRequest struct {
	Path   string `json:"path"`
	Folder bool   `json:"folder,omitempty"`
}

type JobResponse struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Status    string `json:"status"`
	Path      string `json:"path"`
	FileID    string `json:"file_id,omitempty"`
	AssetID   string `json:"asset_id,omitempty"`
	Progress  int    `json:"progress"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type MediaFileResponse struct {
	ID          string        `json:"id"`
	Path        string        `json:"path"`
	Filename    string        `json:"filename"`
	Kind        timeline.Kind `json:"kind"`
	Size        int64         `json:"size"`
	SizeHuman   string        `json:"size_human"`
	Fingerprint string        `json:"fingerprint"`
	Duration    float64       `json:"duration,omitempty"`
	Width       int           `json:"width,omitempty"`
	Height      int           `json:"height,omitempty"`
	Codec       string        `json:"codec,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	CreatedAt   string        `json:"created_at"`
}

type MediaFilesResponse struct {
	Files []MediaFileResponse `json:"files"`
}

type AddTrackRequest struct {
	Kind          timeline.Kind `json:"kind"`
	BeforeTrackID string        `json:"before_track_id,omitempty"`
	Name          string        `json:"name,omitempty"`
}

type TrackFlagRequest struct {
	Value bool `json:"value"`
}

type TrackResponse struct {
	Track timeline.Track `json:"track"`
}

type AppendClipRequest struct {
	AssetID string `json:"asset_id"`
}

type AddTextRequest struct {
	TrackID string  `json:"track_id"`
	At      float64 `json:"at"`
	Text    string  `json:"text"`
}

type SplitRequest struct {
	At float64 `json:"at"`
}

type SplitResponse struct {
	ClipID string `json:"clip_id"`
}

type ClipResponse struct {
	Clip timeline.Clip `json:"clip"`
}

type SelectRequest struct {
	ClipID string `json:"clip_id"`
}

type PointerRequest struct {
	Phase    string  `json:"phase"`
	OffsetPx float64 `json:"offset_px"`
}

type DragRequest struct {
	TrackID  string            `json:"track_id"`
	OffsetPx float64           `json:"offset_px"`
	Payload  placement.Payload `json:"payload"`
}

type GhostResponse struct {
	Ghost placement.Ghost `json:"ghost"`
	Label string          `json:"label"`
}

type ResizeRequest struct {
	ClipID string         `json:"clip_id"`
	Edge   placement.Edge `json:"edge"`
}

type ResizeMoveRequest struct {
	DeltaPx float64 `json:"delta_px"`
}

type MoveRequest struct {
	ClipID       string  `json:"clip_id"`
	GrabOffsetPx float64 `json:"grab_offset_px"`
}

type MoveToRequest struct {
	OffsetPx float64 `json:"offset_px"`
}

type ReleaseResponse struct {
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
}

type SnappingResponse struct {
	Snapping bool `json:"snapping"`
}

type SeekRequest struct {
	Time float64 `json:"time"`
}

type SkipRequest struct {
	Seconds float64 `json:"seconds"`
}

type FrameRequest struct {
	Frame int64 `json:"frame"`
}

type FrameResponse struct {
	Applied bool           `json:"applied"`
	State   playback.State `json:"state"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func JobToResponse(j *catalog.Job) JobResponse {
	return JobResponse{
		ID:        j.ID,
		Type:      j.Type,
		Status:    j.Status,
		Path:      j.Path,
		FileID:    j.FileID,
		AssetID:   j.AssetID,
		Progress:  j.Progress,
		Error:     j.Error,
		CreatedAt: j.CreatedAt.Format(time.RFC3339),
		UpdatedAt: j.UpdatedAt.Format(time.RFC3339),
	}
}

func MediaFileToResponse(f *catalog.MediaFile) MediaFileResponse {
	return MediaFileResponse{
		ID:          f.ID,
		Path:        f.Path,
		Filename:    f.Filename,
		Kind:        f.Kind,
		Size:        f.Size,
		SizeHuman:   f.HumanSize(),
		Fingerprint: f.Fingerprint,
		Duration:    f.Duration,
		Width:       f.Width,
		Height:      f.Height,
		Codec:       f.Codec,
		Thumbnail:   f.Thumbnail,
		CreatedAt:   f.CreatedAt.Format(time.RFC3339),
	}
}
