package export

import (
	"math"

	"github.com/coclip/coclip-agent/internal/timeline"
)

// MediaURL maps an asset to the URL the renderer loads it from. Nil keeps
// the asset's source path.
type MediaURL func(asset timeline.Asset) string

// BuildComposition converts a snapshot to frames at the project's fps.
// Muted tracks are omitted and the track order is reversed so the first
// track in the project ends up as the top layer.
func BuildComposition(p timeline.Project, mediaURL MediaURL) Composition {
	fps := p.FPS
	if fps <= 0 {
		fps = 30
	}

	comp := Composition{
		Width:            p.Width,
		Height:           p.Height,
		FPS:              fps,
		DurationInFrames: toFrames(math.Max(p.Duration, p.MaxClipEnd()), fps),
		Layers:           []Layer{},
	}

	for i := len(p.Tracks) - 1; i >= 0; i-- {
		track := p.Tracks[i]
		if track.Muted {
			continue
		}
		layer := Layer{TrackID: track.ID, Kind: string(track.Kind), Items: []Sequence{}}
		for _, c := range track.Clips {
			seq := Sequence{
				ClipID:           c.ID,
				Kind:             string(c.Kind),
				From:             toFrames(c.Start, fps),
				DurationInFrames: toFrames(c.Duration, fps),
				Volume:           c.Volume,
				Style:            c.Style,
			}
			if c.Kind.TimeBased() {
				seq.StartFrom = toFrames(c.SourceOffset, fps)
			}
			if c.Kind == timeline.KindText {
				seq.Text = c.Content
			} else if asset, ok := p.FindAsset(c.AssetID); ok {
				seq.Src = asset.Source
				if mediaURL != nil {
					seq.Src = mediaURL(asset)
				}
			}
			layer.Items = append(layer.Items, seq)
		}
		comp.Layers = append(comp.Layers, layer)
	}
	return comp
}

func toFrames(seconds, fps float64) int {
	return int(math.Round(seconds * fps))
}
