package export

import (
	"testing"

	"github.com/coclip/coclip-agent/internal/timeline"
)

func TestBuildComposition(t *testing.T) {
	comp := BuildComposition(testProject(), func(a timeline.Asset) string {
		return "/assets/" + a.ID + "/media"
	})

	if comp.Width != 1920 || comp.Height != 1080 || comp.FPS != 30 || comp.DurationInFrames != 1800 {
		t.Errorf("canvas = %+v", comp)
	}
	if len(comp.Layers) != 2 {
		t.Fatalf("layers = %d, want 2 (muted audio omitted)", len(comp.Layers))
	}
	if comp.Layers[0].TrackID != "t-video" || comp.Layers[1].TrackID != "t-text" {
		t.Errorf("layer order = %s, %s", comp.Layers[0].TrackID, comp.Layers[1].TrackID)
	}

	byID := map[string]Sequence{}
	for _, l := range comp.Layers {
		for _, s := range l.Items {
			byID[s.ClipID] = s
		}
	}

	intro := byID["c-intro"]
	if intro.From != 0 || intro.DurationInFrames != 300 || intro.StartFrom != 60 || intro.Src != "/assets/a-intro/media" {
		t.Errorf("intro = %+v", intro)
	}
	logo := byID["c-logo"]
	if logo.From != 360 || logo.DurationInFrames != 150 || logo.StartFrom != 0 {
		t.Errorf("logo = %+v", logo)
	}
	title := byID["c-title"]
	if title.Text != "Hello" || title.Src != "" || title.DurationInFrames != 90 {
		t.Errorf("title = %+v", title)
	}
}

func TestBuildComposition_SourcePathsAndLongTimeline(t *testing.T) {
	p := testProject()
	p.Tracks[2].Muted = false
	p.Duration = 10

	comp := BuildComposition(p, nil)

	if len(comp.Layers) != 3 || comp.Layers[0].TrackID != "t-audio" {
		t.Fatalf("layers = %+v", comp.Layers)
	}
	music := comp.Layers[0].Items[0]
	if music.Src != "/media/music.mp3" || music.From != 45 || music.Volume == nil || *music.Volume != 0.5 {
		t.Errorf("music = %+v", music)
	}
	if comp.DurationInFrames != 945 {
		t.Errorf("DurationInFrames = %d, want 945 (last clip end)", comp.DurationInFrames)
	}
}
