package timeline

import "math"

type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
	KindText  Kind = "text"
	KindImage Kind = "image"
)

const (
	// DefaultClipDuration is used for kinds without a native duration.
	DefaultClipDuration = 5.0
)

// TimeBased reports whether clips of this kind read from an asset timeline.
func (k Kind) TimeBased() bool {
	return k == KindVideo || k == KindAudio
}

func (k Kind) IsTrackKind() bool {
	return k == KindVideo || k == KindAudio || k == KindText
}

func (k Kind) IsAssetKind() bool {
	return k == KindVideo || k == KindAudio || k == KindImage
}

func (k Kind) Valid() bool {
	return k.IsTrackKind() || k == KindImage
}

// Accepts reports whether a track of trackKind may hold an item of itemKind.
// Video tracks also take images.
func Accepts(trackKind, itemKind Kind) bool {
	if trackKind == itemKind {
		return trackKind.IsTrackKind()
	}
	return trackKind == KindVideo && itemKind == KindImage
}

type Asset struct {
	ID        string  `json:"id"`
	Kind      Kind    `json:"kind"`
	Source    string  `json:"source"`
	Name      string  `json:"name"`
	Duration  float64 `json:"duration,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

// HasDuration reports whether the asset carries a known native duration.
func (a Asset) HasDuration() bool {
	return a.Kind.TimeBased() && a.Duration > 0
}

// AssetDescriptor is what the import collaborator hands over once metadata
// extraction has finished.
type AssetDescriptor struct {
	Kind      Kind    `json:"kind"`
	Source    string  `json:"source"`
	Name      string  `json:"name"`
	Duration  float64 `json:"duration,omitempty"`
	Thumbnail string  `json:"thumbnail,omitempty"`
}

type Clip struct {
	ID           string            `json:"id"`
	Kind         Kind              `json:"kind"`
	TrackID      string            `json:"track_id"`
	AssetID      string            `json:"asset_id,omitempty"`
	Start        float64           `json:"start"`
	Duration     float64           `json:"duration"`
	SourceOffset float64           `json:"source_offset"`
	Content      string            `json:"content"`
	Name         string            `json:"name,omitempty"`
	Volume       *float64          `json:"volume,omitempty"`
	Style        map[string]string `json:"style,omitempty"`
}

func (c Clip) End() float64 {
	return c.Start + c.Duration
}

// Contains reports whether t lies strictly inside the clip.
func (c Clip) Contains(t float64) bool {
	return t > c.Start && t < c.End()
}

func (c Clip) clone() Clip {
	if c.Volume != nil {
		v := *c.Volume
		c.Volume = &v
	}
	if c.Style != nil {
		style := make(map[string]string, len(c.Style))
		for k, v := range c.Style {
			style[k] = v
		}
		c.Style = style
	}
	return c
}

type Track struct {
	ID     string `json:"id"`
	Kind   Kind   `json:"kind"`
	Name   string `json:"name"`
	Clips  []Clip `json:"clips"`
	Muted  bool   `json:"muted,omitempty"`
	Locked bool   `json:"locked,omitempty"`
}

// End returns the end time of the last clip on the track, or 0.
func (t Track) End() float64 {
	end := 0.0
	for _, c := range t.Clips {
		end = math.Max(end, c.End())
	}
	return end
}

func (t Track) FindClip(id string) (Clip, bool) {
	for _, c := range t.Clips {
		if c.ID == id {
			return c, true
		}
	}
	return Clip{}, false
}

type Scene struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	StartTime float64 `json:"start_time,omitempty"`
	EndTime   float64 `json:"end_time,omitempty"`
}

type Project struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	FPS      float64 `json:"fps"`
	Duration float64 `json:"duration"`
	Scenes   []Scene `json:"scenes"`
	Tracks   []Track `json:"tracks"`
	Assets   []Asset `json:"assets"`
}

func (p Project) FindTrack(id string) (Track, bool) {
	if i := p.trackIndex(id); i >= 0 {
		return p.Tracks[i], true
	}
	return Track{}, false
}

func (p Project) FindAsset(id string) (Asset, bool) {
	for _, a := range p.Assets {
		if a.ID == id {
			return a, true
		}
	}
	return Asset{}, false
}

// FindClip searches every track for the clip.
func (p Project) FindClip(id string) (Clip, bool) {
	ti, ci := p.clipIndex(id)
	if ti < 0 {
		return Clip{}, false
	}
	return p.Tracks[ti].Clips[ci], true
}

// MaxClipEnd returns the latest end time over all clips.
func (p Project) MaxClipEnd() float64 {
	end := 0.0
	for _, t := range p.Tracks {
		end = math.Max(end, t.End())
	}
	return end
}

func (p Project) ClipCount() int {
	n := 0
	for _, t := range p.Tracks {
		n += len(t.Clips)
	}
	return n
}

func (p Project) trackIndex(id string) int {
	for i, t := range p.Tracks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (p Project) clipIndex(id string) (int, int) {
	for ti, t := range p.Tracks {
		for ci, c := range t.Clips {
			if c.ID == id {
				return ti, ci
			}
		}
	}
	return -1, -1
}

// Clone returns a deep copy that shares no mutable state with p.
func (p Project) Clone() Project {
	out := p
	out.Scenes = make([]Scene, len(p.Scenes))
	copy(out.Scenes, p.Scenes)
	out.Assets = make([]Asset, len(p.Assets))
	copy(out.Assets, p.Assets)
	out.Tracks = make([]Track, len(p.Tracks))
	for i, t := range p.Tracks {
		nt := t
		nt.Clips = make([]Clip, len(t.Clips))
		for j, c := range t.Clips {
			nt.Clips[j] = c.clone()
		}
		out.Tracks[i] = nt
	}
	return out
}

// ProjectConfig carries the canvas settings for a new project.
type ProjectConfig struct {
	Width  int
	Height int
	FPS    float64
}

// NewProject builds the starting document: one text, one video and one
// audio track, four placeholder scenes and a 60 second canvas.
func NewProject(cfg ProjectConfig, newID func() string) Project {
	if cfg.Width <= 0 {
		cfg.Width = 1920
	}
	if cfg.Height <= 0 {
		cfg.Height = 1080
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	return Project{
		ID:       "project-1",
		Name:     "New Masterpiece",
		Width:    cfg.Width,
		Height:   cfg.Height,
		FPS:      cfg.FPS,
		Duration: 60,
		Scenes: []Scene{
			{ID: "scene-1", Name: "Intro"},
			{ID: "scene-2", Name: "Scene 1"},
			{ID: "scene-3", Name: "Transition"},
			{ID: "scene-4", Name: "Scene 2"},
		},
		Tracks: []Track{
			{ID: newID(), Kind: KindText, Name: "Text Layer", Clips: []Clip{}},
			{ID: newID(), Kind: KindVideo, Name: "Video Track 1", Clips: []Clip{}},
			{ID: newID(), Kind: KindAudio, Name: "Audio Track", Clips: []Clip{}},
		},
		Assets: []Asset{},
	}
}
