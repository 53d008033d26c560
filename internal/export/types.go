// Package export turns a project snapshot into interchange formats: CMX 3600
// edit decision lists and the frame-based composition the renderer consumes.
package export

type EDLRequest struct {
	TrackID   string `json:"track_id"`
	OutputDir string `json:"output_dir,omitempty"`
}

// Event is one EDL line pair. Times are seconds.
type Event struct {
	Channel   string
	ClipName  string
	MediaPath string
	SourceIn  float64
	SourceOut float64
	RecordIn  float64
	RecordOut float64
}

type EDLResponse struct {
	Status     string `json:"status"`
	TrackID    string `json:"track_id"`
	EventCount int    `json:"event_count"`
	OutputPath string `json:"output_path,omitempty"`
	EDL        string `json:"edl"`
}

// Composition is a render description in frames.
type Composition struct {
	Width            int     `json:"width"`
	Height           int     `json:"height"`
	FPS              float64 `json:"fps"`
	DurationInFrames int     `json:"duration_in_frames"`
	Layers           []Layer `json:"layers"`
}

// Layer is one unmuted track. Layers[0] is drawn on top.
type Layer struct {
	TrackID string     `json:"track_id"`
	Kind    string     `json:"kind"`
	Items   []Sequence `json:"items"`
}

type Sequence struct {
	ClipID           string            `json:"clip_id"`
	Kind             string            `json:"kind"`
	Src              string            `json:"src,omitempty"`
	Text             string            `json:"text,omitempty"`
	From             int               `json:"from"`
	DurationInFrames int               `json:"duration_in_frames"`
	StartFrom        int               `json:"start_from"`
	Volume           *float64          `json:"volume,omitempty"`
	Style            map[string]string `json:"style,omitempty"`
}
