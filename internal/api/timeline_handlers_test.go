package api

import (
	"net/http"
	"testing"

	"github.com/coclip/coclip-agent/internal/interaction"
	"github.com/coclip/coclip-agent/internal/timeline"
)

func TestAddTrack(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/tracks", AddTrackRequest{Kind: timeline.KindAudio, BeforeTrackID: env.video})
	expectStatus(t, rr, http.StatusCreated)
	track := decode[TrackResponse](t, rr).Track
	if track.Kind != timeline.KindAudio || track.Name == "" {
		t.Fatalf("track = %+v", track)
	}

	tracks := env.cfg.Document.Snapshot().Tracks
	if len(tracks) != 4 || tracks[1].ID != track.ID || tracks[2].ID != env.video {
		t.Errorf("track order = %v", trackIDs(tracks))
	}

	for _, kind := range []timeline.Kind{timeline.KindImage, "banner", ""} {
		expectErrorCode(t, env.do(t, http.MethodPost, "/tracks", AddTrackRequest{Kind: kind}),
			http.StatusUnprocessableEntity, "INVALID_KIND")
	}
	if n := len(env.cfg.Document.Snapshot().Tracks); n != 4 {
		t.Errorf("tracks = %d after rejected adds, want 4", n)
	}
}

func trackIDs(tracks []timeline.Track) []string {
	out := make([]string, len(tracks))
	for i, tr := range tracks {
		out[i] = tr.ID
	}
	return out
}

func TestTrackFlags_LockRefusesEdits(t *testing.T) {
	env := newTestEnv(t)
	assetID := env.addAsset(t, timeline.KindVideo, "/media/a.mp4", 10)
	res := decode[interaction.DropResult](t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: assetID}))

	rr := env.do(t, http.MethodPut, "/tracks/"+env.video+"/locked", TrackFlagRequest{Value: true})
	expectStatus(t, rr, http.StatusOK)
	if !decode[TrackResponse](t, rr).Track.Locked {
		t.Fatal("track not locked")
	}

	expectErrorCode(t, env.do(t, http.MethodPatch, "/clips/"+res.ClipID, map[string]any{"start": 3}),
		http.StatusConflict, "TRACK_LOCKED")
	expectErrorCode(t, env.do(t, http.MethodDelete, "/clips/"+res.ClipID, nil),
		http.StatusConflict, "TRACK_LOCKED")
	expectErrorCode(t, env.do(t, http.MethodPut, "/tracks/missing/locked", TrackFlagRequest{Value: true}),
		http.StatusNotFound, "NOT_FOUND")

	expectStatus(t, env.do(t, http.MethodPut, "/tracks/"+env.video+"/locked", TrackFlagRequest{Value: false}), http.StatusOK)
	rr = env.do(t, http.MethodPatch, "/clips/"+res.ClipID, map[string]any{"start": 3})
	expectStatus(t, rr, http.StatusOK)
	if clip := decode[ClipResponse](t, rr).Clip; clip.Start != 3 {
		t.Errorf("clip start = %v, want 3", clip.Start)
	}
}

func TestTrackMuted(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPut, "/tracks/"+env.audio+"/muted", TrackFlagRequest{Value: true})
	expectStatus(t, rr, http.StatusOK)
	if !decode[TrackResponse](t, rr).Track.Muted {
		t.Fatal("track not muted")
	}
	if track, _ := env.cfg.Document.Snapshot().FindTrack(env.audio); !track.Muted {
		t.Error("document track not muted")
	}
}

func TestPatchClip(t *testing.T) {
	env := newTestEnv(t)
	assetID := env.addAsset(t, timeline.KindVideo, "/media/a.mp4", 10)
	first := decode[interaction.DropResult](t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: assetID}))
	second := decode[interaction.DropResult](t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: assetID}))
	if second.Start != 10 {
		t.Fatalf("second clip start = %v, want 10", second.Start)
	}

	tests := []struct {
		name   string
		clipID string
		patch  map[string]any
		status int
		code   string
	}{
		{"unknown clip", "missing", map[string]any{"start": 1}, http.StatusNotFound, "NOT_FOUND"},
		{"negative duration", first.ClipID, map[string]any{"duration": -1}, http.StatusUnprocessableEntity, "INVALID_EDIT"},
		{"past asset end", first.ClipID, map[string]any{"duration": 11}, http.StatusUnprocessableEntity, "INVALID_EDIT"},
		{"volume out of range", first.ClipID, map[string]any{"volume": 1.5}, http.StatusUnprocessableEntity, "INVALID_EDIT"},
		{"overlaps neighbour", first.ClipID, map[string]any{"start": 5}, http.StatusConflict, "OVERLAP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectErrorCode(t, env.do(t, http.MethodPatch, "/clips/"+tt.clipID, tt.patch), tt.status, tt.code)
		})
	}

	rr := env.do(t, http.MethodPatch, "/clips/"+first.ClipID, map[string]any{"duration": 4, "name": "Intro"})
	expectStatus(t, rr, http.StatusOK)
	clip := decode[ClipResponse](t, rr).Clip
	if clip.Duration != 4 || clip.Name != "Intro" {
		t.Errorf("clip = %+v", clip)
	}
}

func TestSplitAndDeleteClip(t *testing.T) {
	env := newTestEnv(t)
	assetID := env.addAsset(t, timeline.KindVideo, "/media/a.mp4", 10)
	res := decode[interaction.DropResult](t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: assetID}))

	rr := env.do(t, http.MethodPost, "/clips/"+res.ClipID+"/split", SplitRequest{At: 4})
	expectStatus(t, rr, http.StatusCreated)
	second := decode[SplitResponse](t, rr).ClipID

	clip, ok := env.cfg.Document.Snapshot().FindClip(second)
	if !ok || clip.Start != 4 || clip.Duration != 6 || clip.SourceOffset != 4 {
		t.Fatalf("second half = %+v", clip)
	}

	expectErrorCode(t, env.do(t, http.MethodPost, "/clips/"+res.ClipID+"/split", SplitRequest{At: 4}),
		http.StatusUnprocessableEntity, "INVALID_EDIT")
	expectErrorCode(t, env.do(t, http.MethodPost, "/clips/missing/split", SplitRequest{At: 1}),
		http.StatusNotFound, "NOT_FOUND")

	expectStatus(t, env.do(t, http.MethodDelete, "/clips/"+second, nil), http.StatusNoContent)
	expectErrorCode(t, env.do(t, http.MethodDelete, "/clips/"+second, nil), http.StatusNotFound, "NOT_FOUND")
	if n := env.cfg.Document.Snapshot().ClipCount(); n != 1 {
		t.Errorf("ClipCount() = %d, want 1", n)
	}
}

func TestAppendClip(t *testing.T) {
	env := newTestEnv(t)
	imageID := env.addAsset(t, timeline.KindImage, "/media/still.png", 0)

	expectErrorCode(t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: "missing"}),
		http.StatusNotFound, "NOT_FOUND")

	rr := env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: imageID})
	expectStatus(t, rr, http.StatusCreated)
	if res := decode[interaction.DropResult](t, rr); res.TrackID != env.video {
		t.Errorf("image landed on %s, want video track %s", res.TrackID, env.video)
	}

	env.cfg.Document.SetTrackLocked(env.video, true)
	expectErrorCode(t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: imageID}),
		http.StatusUnprocessableEntity, "NO_COMPATIBLE_TRACK")
}

func TestAddText(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/clips/text", AddTextRequest{TrackID: env.text, At: 1, Text: "Hello"})
	expectStatus(t, rr, http.StatusCreated)
	first := decode[interaction.DropResult](t, rr)
	if first.NewTrack || first.Start != 1 {
		t.Fatalf("first = %+v", first)
	}

	rr = env.do(t, http.MethodPost, "/clips/text", AddTextRequest{TrackID: env.text, At: 2, Text: "World"})
	expectStatus(t, rr, http.StatusCreated)
	if second := decode[interaction.DropResult](t, rr); !second.NewTrack {
		t.Errorf("overlapping text should layer onto a new track: %+v", second)
	}

	expectErrorCode(t, env.do(t, http.MethodPost, "/clips/text", AddTextRequest{TrackID: env.video, At: 1, Text: "x"}),
		http.StatusUnprocessableEntity, "DROP_REJECTED")
	expectErrorCode(t, env.do(t, http.MethodPost, "/clips/text", AddTextRequest{TrackID: "missing", At: 1, Text: "x"}),
		http.StatusNotFound, "NOT_FOUND")
}

func TestSelection(t *testing.T) {
	env := newTestEnv(t)
	assetID := env.addAsset(t, timeline.KindVideo, "/media/a.mp4", 10)
	res := decode[interaction.DropResult](t, env.do(t, http.MethodPost, "/clips/append", AppendClipRequest{AssetID: assetID}))

	expectErrorCode(t, env.do(t, http.MethodPost, "/selection", SelectRequest{ClipID: "missing"}),
		http.StatusNotFound, "NOT_FOUND")
	expectErrorCode(t, env.do(t, http.MethodPost, "/selection/split", nil),
		http.StatusUnprocessableEntity, "NOTHING_TO_SPLIT")

	rr := env.do(t, http.MethodPost, "/selection", SelectRequest{ClipID: res.ClipID})
	expectStatus(t, rr, http.StatusOK)
	if state := decode[interaction.State](t, rr); state.Selected != res.ClipID {
		t.Fatalf("selected = %q, want %q", state.Selected, res.ClipID)
	}

	expectStatus(t, env.do(t, http.MethodPost, "/playback/seek", SeekRequest{Time: 2.5}), http.StatusOK)
	rr = env.do(t, http.MethodPost, "/selection/split", nil)
	expectStatus(t, rr, http.StatusCreated)
	if id := decode[SplitResponse](t, rr).ClipID; id == "" {
		t.Fatal("split returned no clip id")
	}

	expectStatus(t, env.do(t, http.MethodPost, "/selection/delete", nil), http.StatusNoContent)
	if _, ok := env.cfg.Document.Snapshot().FindClip(res.ClipID); ok {
		t.Error("selected clip still present after delete")
	}
	expectErrorCode(t, env.do(t, http.MethodPost, "/selection/delete", nil),
		http.StatusUnprocessableEntity, "NOTHING_TO_DELETE")

	expectStatus(t, env.do(t, http.MethodDelete, "/selection", nil), http.StatusNoContent)
}
