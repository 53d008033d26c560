// Package catalog tracks imported media files and the background jobs that
// probe them and hand finished assets to the timeline.
package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/coclip/coclip-agent/internal/ids"
	"github.com/coclip/coclip-agent/internal/timeline"
	"github.com/dustin/go-humanize"
)

// MediaFile is one probed file on disk.
type MediaFile struct {
	ID          string        `json:"id"`
	Path        string        `json:"path"`
	Filename    string        `json:"filename"`
	Kind        timeline.Kind `json:"kind"`
	Size        int64         `json:"size"`
	Mtime       time.Time     `json:"mtime"`
	Fingerprint string        `json:"fingerprint"`
	Duration    float64       `json:"duration"`
	Width       int           `json:"width,omitempty"`
	Height      int           `json:"height,omitempty"`
	Codec       string        `json:"codec,omitempty"`
	Thumbnail   string        `json:"thumbnail,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// HumanSize renders Size as "12 MB".
func (m MediaFile) HumanSize() string {
	if m.Size < 0 {
		return humanize.Bytes(0)
	}
	return humanize.Bytes(uint64(m.Size))
}

const (
	JobTypeScan   = "scan"
	JobTypeImport = "import"

	JobStatusPending   = "pending"
	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Path      string    `json:"path"`
	FileID    string    `json:"file_id,omitempty"`
	AssetID   string    `json:"asset_id,omitempty"`
	Progress  int       `json:"progress"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Done reports whether the job reached a terminal status.
func (j Job) Done() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

var mediaExtensions = map[string]timeline.Kind{
	".mp4":  timeline.KindVideo,
	".mov":  timeline.KindVideo,
	".mkv":  timeline.KindVideo,
	".webm": timeline.KindVideo,
	".m4v":  timeline.KindVideo,

	".mp3":  timeline.KindAudio,
	".wav":  timeline.KindAudio,
	".m4a":  timeline.KindAudio,
	".aac":  timeline.KindAudio,
	".ogg":  timeline.KindAudio,
	".flac": timeline.KindAudio,

	".png":  timeline.KindImage,
	".jpg":  timeline.KindImage,
	".jpeg": timeline.KindImage,
	".gif":  timeline.KindImage,
	".webp": timeline.KindImage,
}

// DetectKind classifies a file by extension.
func DetectKind(filename string) (timeline.Kind, bool) {
	kind, ok := mediaExtensions[strings.ToLower(filepath.Ext(filename))]
	return kind, ok
}

func NewID() string {
	return ids.New()
}
