package timeline

import (
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/coclip/coclip-agent/internal/ids"
)

// ClipPatch lists the clip fields UpdateClip may change. Nil fields are left
// untouched. Track membership is not patchable.
type ClipPatch struct {
	Start        *float64          `json:"start,omitempty"`
	Duration     *float64          `json:"duration,omitempty"`
	SourceOffset *float64          `json:"source_offset,omitempty"`
	Content      *string           `json:"content,omitempty"`
	Name         *string           `json:"name,omitempty"`
	Volume       *float64          `json:"volume,omitempty"`
	Style        map[string]string `json:"style,omitempty"`
}

func (p ClipPatch) valid() bool {
	if p.Start != nil && (!finite(*p.Start) || *p.Start < 0) {
		return false
	}
	if p.Duration != nil && (!finite(*p.Duration) || *p.Duration <= 0) {
		return false
	}
	if p.SourceOffset != nil && (!finite(*p.SourceOffset) || *p.SourceOffset < 0) {
		return false
	}
	if p.Volume != nil && (!finite(*p.Volume) || *p.Volume < 0 || *p.Volume > 1) {
		return false
	}
	return true
}

func (p ClipPatch) apply(c *Clip) {
	if p.Start != nil {
		c.Start = *p.Start
	}
	if p.Duration != nil {
		c.Duration = *p.Duration
	}
	if p.SourceOffset != nil {
		c.SourceOffset = *p.SourceOffset
	}
	if p.Content != nil {
		c.Content = *p.Content
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Volume != nil {
		v := *p.Volume
		c.Volume = &v
	}
	if p.Style != nil {
		style := make(map[string]string, len(p.Style))
		for k, v := range p.Style {
			style[k] = v
		}
		c.Style = style
	}
}

// Document owns one project. Every mutation goes through a single sequential
// update queue that always sees the latest committed state, so mutations
// issued back to back observe each other in order. Mutations never fail: an
// operation that cannot apply leaves the committed project untouched.
type Document struct {
	mu       sync.Mutex
	project  *Project
	selected string
	version  uint64

	newID  ids.Generator
	logger *slog.Logger
}

type Option func(*Document)

func WithIDGenerator(gen ids.Generator) Option {
	return func(d *Document) {
		if gen != nil {
			d.newID = gen
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(d *Document) {
		d.logger = logger
	}
}

func NewDocument(p Project, opts ...Option) *Document {
	d := &Document{newID: ids.New}
	for _, opt := range opts {
		opt(d)
	}
	initial := p.Clone()
	d.project = &initial
	return d
}

// Snapshot returns a deep copy of the committed project.
func (d *Document) Snapshot() Project {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.project.Clone()
}

// Version increases by one for every committed mutation.
func (d *Document) Version() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

func (d *Document) Selected() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selected
}

// Select marks a clip as selected. An empty id clears the selection; an
// unknown id is ignored.
func (d *Document) Select(clipID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if clipID == "" {
		d.selected = ""
		return
	}
	if _, ok := d.project.FindClip(clipID); ok {
		d.selected = clipID
	}
}

// update runs fn against a private copy of the latest committed project and
// publishes it only when fn reports a change.
func (d *Document) update(op string, fn func(p *Project) bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	next := d.project.Clone()
	if !fn(&next) {
		if d.logger != nil {
			d.logger.Debug("timeline mutation ignored", "op", op)
		}
		return false
	}
	d.project = &next
	d.version++
	if d.logger != nil {
		d.logger.Debug("timeline mutation applied", "op", op, "version", d.version, "duration", next.Duration)
	}
	return true
}

// AddAsset registers imported media and returns its id.
func (d *Document) AddAsset(desc AssetDescriptor) string {
	if !desc.Kind.IsAssetKind() {
		return ""
	}
	var id string
	d.update("add_asset", func(p *Project) bool {
		id = d.newID()
		duration := desc.Duration
		if !desc.Kind.TimeBased() || !finite(duration) || duration < 0 {
			duration = 0
		}
		p.Assets = append(p.Assets, Asset{
			ID:        id,
			Kind:      desc.Kind,
			Source:    desc.Source,
			Name:      desc.Name,
			Duration:  duration,
			Thumbnail: desc.Thumbnail,
		})
		return true
	})
	return id
}

// AddClipToTrack places an asset on a track at the given time. The track must
// accept the asset's kind. Overlap is not checked here; callers validate the
// position first.
func (d *Document) AddClipToTrack(assetID, trackID string, at float64) string {
	if !finite(at) {
		return ""
	}
	var id string
	d.update("add_clip", func(p *Project) bool {
		asset, ok := p.FindAsset(assetID)
		if !ok {
			return false
		}
		ti := p.trackIndex(trackID)
		if ti < 0 || !Accepts(p.Tracks[ti].Kind, asset.Kind) {
			return false
		}
		duration := DefaultClipDuration
		if asset.HasDuration() {
			duration = asset.Duration
		}
		id = d.newID()
		clip := Clip{
			ID:       id,
			Kind:     asset.Kind,
			TrackID:  trackID,
			AssetID:  asset.ID,
			Start:    math.Max(0, at),
			Duration: duration,
			Content:  asset.Source,
			Name:     asset.Name,
		}
		p.Tracks[ti].Clips = append(p.Tracks[ti].Clips, clip)
		p.Duration = math.Max(p.Duration, clip.End())
		return true
	})
	return id
}

// AddTextClip places a literal text clip on a text track.
func (d *Document) AddTextClip(trackID string, at float64, text string) string {
	if !finite(at) {
		return ""
	}
	var id string
	d.update("add_text_clip", func(p *Project) bool {
		ti := p.trackIndex(trackID)
		if ti < 0 || p.Tracks[ti].Kind != KindText {
			return false
		}
		id = d.newID()
		clip := Clip{
			ID:       id,
			Kind:     KindText,
			TrackID:  trackID,
			Start:    math.Max(0, at),
			Duration: DefaultClipDuration,
			Content:  text,
			Name:     text,
		}
		p.Tracks[ti].Clips = append(p.Tracks[ti].Clips, clip)
		p.Duration = math.Max(p.Duration, clip.End())
		return true
	})
	return id
}

// UpdateClip merges patch into the clip and extends the project duration to
// cover every clip end.
func (d *Document) UpdateClip(clipID string, patch ClipPatch) {
	d.UpdateClipWhen(clipID, patch, nil)
}

// UpdateClipWhen is UpdateClip guarded by accept, which sees the committed
// clip, its track and the patched clip under the queue lock. accept must not
// call back into the document. It reports whether the patch was committed.
func (d *Document) UpdateClipWhen(clipID string, patch ClipPatch, accept func(track Track, current, next Clip) bool) bool {
	if !patch.valid() {
		return false
	}
	return d.update("update_clip", func(p *Project) bool {
		ti, ci := p.clipIndex(clipID)
		if ti < 0 {
			return false
		}
		current := p.Tracks[ti].Clips[ci]
		next := current.clone()
		patch.apply(&next)
		if accept != nil && !accept(p.Tracks[ti], current, next) {
			return false
		}
		p.Tracks[ti].Clips[ci] = next
		p.Duration = math.Max(p.Duration, p.MaxClipEnd())
		return true
	})
}

// SplitClip cuts a clip in two at an absolute timeline position strictly
// inside it. The original clip keeps the first half; the second half gets a
// new id and is appended to the same track. Returns the new clip id.
func (d *Document) SplitClip(clipID string, at float64) string {
	var id string
	d.update("split_clip", func(p *Project) bool {
		ti, ci := p.clipIndex(clipID)
		if ti < 0 {
			return false
		}
		first := &p.Tracks[ti].Clips[ci]
		if !first.Contains(at) {
			return false
		}
		end := first.End()
		offset := at - first.Start

		second := first.clone()
		id = d.newID()
		second.ID = id
		second.Start = at
		second.Duration = end - at
		second.SourceOffset = first.SourceOffset + offset

		first.Duration = offset
		p.Tracks[ti].Clips = append(p.Tracks[ti].Clips, second)
		return true
	})
	return id
}

// RemoveClip deletes a clip and clears the selection if it pointed at it.
func (d *Document) RemoveClip(clipID string) {
	d.update("remove_clip", func(p *Project) bool {
		ti, ci := p.clipIndex(clipID)
		if ti < 0 {
			return false
		}
		clips := p.Tracks[ti].Clips
		p.Tracks[ti].Clips = append(clips[:ci:ci], clips[ci+1:]...)
		if d.selected == clipID {
			d.selected = ""
		}
		return true
	})
}

// AddTrack creates an empty track and returns its id. The track is inserted
// before beforeTrackID when that track exists, otherwise appended. An empty
// name gets "<Kind> Track <n>".
func (d *Document) AddTrack(kind Kind, beforeTrackID, name string) string {
	if !kind.IsTrackKind() {
		return ""
	}
	id := d.newID()
	d.update("add_track", func(p *Project) bool {
		if name == "" {
			name = defaultTrackName(kind, p.Tracks)
		}
		track := Track{ID: id, Kind: kind, Name: name, Clips: []Clip{}}

		idx := len(p.Tracks)
		if beforeTrackID != "" {
			if i := p.trackIndex(beforeTrackID); i >= 0 {
				idx = i
			}
		}
		tracks := make([]Track, 0, len(p.Tracks)+1)
		tracks = append(tracks, p.Tracks[:idx]...)
		tracks = append(tracks, track)
		tracks = append(tracks, p.Tracks[idx:]...)
		p.Tracks = tracks
		return true
	})
	return id
}

func (d *Document) SetTrackMuted(trackID string, muted bool) {
	d.update("set_track_muted", func(p *Project) bool {
		ti := p.trackIndex(trackID)
		if ti < 0 || p.Tracks[ti].Muted == muted {
			return false
		}
		p.Tracks[ti].Muted = muted
		return true
	})
}

func (d *Document) SetTrackLocked(trackID string, locked bool) {
	d.update("set_track_locked", func(p *Project) bool {
		ti := p.trackIndex(trackID)
		if ti < 0 || p.Tracks[ti].Locked == locked {
			return false
		}
		p.Tracks[ti].Locked = locked
		return true
	})
}

func defaultTrackName(kind Kind, tracks []Track) string {
	n := 0
	for _, t := range tracks {
		if t.Kind == kind {
			n++
		}
	}
	label := string(kind)
	label = strings.ToUpper(label[:1]) + label[1:]
	return label + " Track " + strconv.Itoa(n+1)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
