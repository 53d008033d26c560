// Package placement decides where dragged items may land on a timeline. The
// functions are pure so drag-over previews and drop commits share one code
// path.
package placement

import (
	"math"

	"github.com/coclip/coclip-agent/internal/timeline"
)

const (
	DefaultPixelsPerSecond   = 20.0
	DefaultSnapInterval      = 0.5
	DefaultMagneticThreshold = 0.2
)

// Grid converts pointer offsets to timeline seconds.
type Grid struct {
	PixelsPerSecond   float64
	SnapInterval      float64
	MagneticThreshold float64
}

func DefaultGrid() Grid {
	return Grid{
		PixelsPerSecond:   DefaultPixelsPerSecond,
		SnapInterval:      DefaultSnapInterval,
		MagneticThreshold: DefaultMagneticThreshold,
	}
}

func (g Grid) normalized() Grid {
	if g.PixelsPerSecond <= 0 {
		g.PixelsPerSecond = DefaultPixelsPerSecond
	}
	if g.SnapInterval <= 0 {
		g.SnapInterval = DefaultSnapInterval
	}
	if g.MagneticThreshold < 0 {
		g.MagneticThreshold = DefaultMagneticThreshold
	}
	return g
}

// Seconds converts a pixel distance to seconds without clamping.
func (g Grid) Seconds(px float64) float64 {
	return px / g.normalized().PixelsPerSecond
}

func (g Grid) Pixels(seconds float64) float64 {
	return seconds * g.normalized().PixelsPerSecond
}

// ResolveStart turns a pointer offset into a clip start. Negative positions
// floor at 0, anything under the magnetic threshold sticks to 0, and with
// snapping on the result is rounded to the snap interval.
func (g Grid) ResolveStart(offsetPx float64, snapping bool) float64 {
	g = g.normalized()
	if math.IsNaN(offsetPx) {
		return 0
	}
	start := math.Max(0, offsetPx/g.PixelsPerSecond)
	if math.IsInf(start, 1) {
		return 0
	}
	if start < g.MagneticThreshold {
		return 0
	}
	if snapping {
		start = math.Round(start/g.SnapInterval) * g.SnapInterval
	}
	return start
}

// Payload is what a drag gesture carries.
type Payload struct {
	AssetID  string        `json:"asset_id"`
	Kind     timeline.Kind `json:"kind"`
	Duration float64       `json:"duration"`
}

// ClipDuration is the length the dropped clip will have.
func (p Payload) ClipDuration() float64 {
	if p.Duration > 0 && !math.IsInf(p.Duration, 0) {
		return p.Duration
	}
	return timeline.DefaultClipDuration
}

// Overlaps reports whether [start, start+duration) intersects any clip other
// than ignoreID.
func Overlaps(clips []timeline.Clip, start, duration float64, ignoreID string) bool {
	end := start + duration
	for _, c := range clips {
		if c.ID == ignoreID {
			continue
		}
		if start < c.End() && end > c.Start {
			return true
		}
	}
	return false
}

// Ghost is the uncommitted preview of a pending placement.
type Ghost struct {
	TrackID  string  `json:"track_id"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
	Valid    bool    `json:"valid"`
}

func (g Ghost) Label() string {
	if g.Valid {
		return "Drop Here"
	}
	return "Overlap"
}

// Preview reports where a payload would sit on track. Valid is false when the
// track refuses the kind or the slot is taken.
func Preview(track timeline.Track, payload Payload, start float64) Ghost {
	duration := payload.ClipDuration()
	return Ghost{
		TrackID:  track.ID,
		Start:    start,
		Duration: duration,
		Valid: timeline.Accepts(track.Kind, payload.Kind) &&
			!Overlaps(track.Clips, start, duration, ""),
	}
}

type DropAction int

const (
	DropRejected DropAction = iota
	DropOnTrack
	DropOnNewTrack
)

func (a DropAction) String() string {
	switch a {
	case DropOnTrack:
		return "on_track"
	case DropOnNewTrack:
		return "on_new_track"
	default:
		return "rejected"
	}
}

// DropPlan describes how a drop is committed. For DropOnNewTrack a track of
// TrackKind is inserted before TrackID and the clip goes there.
type DropPlan struct {
	Action    DropAction
	TrackID   string
	TrackKind timeline.Kind
	Start     float64
	Duration  float64
}

// PlanDrop decides how a drop on track is committed. Incompatible kinds and
// locked tracks are rejected; an overlapping drop is layered onto a new track
// of the target's kind.
func PlanDrop(track timeline.Track, payload Payload, start float64) DropPlan {
	plan := DropPlan{
		TrackID:   track.ID,
		TrackKind: track.Kind,
		Start:     start,
		Duration:  payload.ClipDuration(),
	}
	if track.Locked || !timeline.Accepts(track.Kind, payload.Kind) {
		plan.Action = DropRejected
		return plan
	}
	if Overlaps(track.Clips, start, plan.Duration, "") {
		plan.Action = DropOnNewTrack
		return plan
	}
	plan.Action = DropOnTrack
	return plan
}

// FirstCompatible returns the first unlocked track that accepts kind.
func FirstCompatible(p timeline.Project, kind timeline.Kind) (timeline.Track, bool) {
	for _, t := range p.Tracks {
		if !t.Locked && timeline.Accepts(t.Kind, kind) {
			return t, true
		}
	}
	return timeline.Track{}, false
}
