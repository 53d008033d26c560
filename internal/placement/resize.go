package placement

import (
	"math"
	"sort"

	"github.com/coclip/coclip-agent/internal/timeline"
)

// MinClipDuration is the shortest a trim may make a clip.
const MinClipDuration = 0.1

type Edge string

const (
	EdgeLeft  Edge = "left"
	EdgeRight Edge = "right"
)

func (e Edge) Valid() bool {
	return e == EdgeLeft || e == EdgeRight
}

// Bounds limits how far a clip may be trimmed on its track.
type Bounds struct {
	MinStart float64
	MaxEnd   float64
}

// NeighborBounds derives trim bounds for clipID from the clips next to it on
// the same track, ordered by start. Without a right neighbour MaxEnd is +Inf.
func NeighborBounds(track timeline.Track, clipID string) Bounds {
	b := Bounds{MinStart: 0, MaxEnd: math.Inf(1)}

	clips := make([]timeline.Clip, len(track.Clips))
	copy(clips, track.Clips)
	sort.SliceStable(clips, func(i, j int) bool { return clips[i].Start < clips[j].Start })

	idx := -1
	for i, c := range clips {
		if c.ID == clipID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return b
	}
	if idx > 0 {
		b.MinStart = math.Max(0, clips[idx-1].End())
	}
	if idx < len(clips)-1 {
		b.MaxEnd = clips[idx+1].Start
	}
	return b
}

// Resize trims clip by delta seconds on edge and returns the clamped result.
// The right edge changes only the duration. The left edge moves start and
// duration together so the end stays put; time-based clips shift their
// source offset with it. assetDuration of 0 means the source length is
// unknown. When no legal size exists the clip is returned unchanged.
func Resize(clip timeline.Clip, edge Edge, delta float64, bounds Bounds, assetDuration float64) timeline.Clip {
	if math.IsNaN(delta) {
		return clip
	}
	switch edge {
	case EdgeRight:
		return resizeRight(clip, delta, bounds, assetDuration)
	case EdgeLeft:
		return resizeLeft(clip, delta, bounds)
	default:
		return clip
	}
}

func resizeRight(clip timeline.Clip, delta float64, bounds Bounds, assetDuration float64) timeline.Clip {
	upper := bounds.MaxEnd - clip.Start
	if clip.Kind.TimeBased() && assetDuration > 0 {
		upper = math.Min(upper, assetDuration-clip.SourceOffset)
	}
	if upper < MinClipDuration {
		return clip
	}
	clip.Duration = clamp(clip.Duration+delta, MinClipDuration, upper)
	return clip
}

func resizeLeft(clip timeline.Clip, delta float64, bounds Bounds) timeline.Clip {
	lower := math.Max(0, bounds.MinStart) - clip.Start
	if clip.Kind.TimeBased() {
		lower = math.Max(lower, -clip.SourceOffset)
	}
	upper := clip.Duration - MinClipDuration
	if upper < lower {
		return clip
	}
	d := clamp(delta, lower, upper)
	end := clip.End()
	clip.Start += d
	clip.Duration = end - clip.Start
	if clip.Kind.TimeBased() {
		clip.SourceOffset += d
	}
	return clip
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
