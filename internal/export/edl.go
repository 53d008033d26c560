package export

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/coclip/coclip-agent/internal/timeline"
)

var ErrUnknownTrack = errors.New("unknown track")

// TrackEvents lists a track's media clips in timeline order. Text clips have
// no source media and are left out; images hold a still from frame zero.
func TrackEvents(p timeline.Project, trackID string) ([]Event, error) {
	track, ok := p.FindTrack(trackID)
	if !ok {
		return nil, ErrUnknownTrack
	}

	clips := make([]timeline.Clip, len(track.Clips))
	copy(clips, track.Clips)
	sort.SliceStable(clips, func(i, j int) bool { return clips[i].Start < clips[j].Start })

	channel := "V"
	if track.Kind == timeline.KindAudio {
		channel = "A"
	}

	var events []Event
	for _, c := range clips {
		if c.Kind == timeline.KindText {
			continue
		}
		asset, _ := p.FindAsset(c.AssetID)
		name := c.Name
		if name == "" {
			name = asset.Name
		}
		offset := 0.0
		if c.Kind.TimeBased() {
			offset = c.SourceOffset
		}
		events = append(events, Event{
			Channel:   channel,
			ClipName:  SanitizeName(name, 64),
			MediaPath: asset.Source,
			SourceIn:  offset,
			SourceOut: offset + c.Duration,
			RecordIn:  c.Start,
			RecordOut: c.End(),
		})
	}
	return events, nil
}

// GenerateEDL renders events as CMX 3600 text. Record times are taken from
// the timeline, so gaps between clips are preserved.
func GenerateEDL(events []Event, title string, frameRate float64) string {
	fps := int(math.Round(frameRate))
	if fps <= 0 {
		fps = 30
	}

	isDropFrame := math.Abs(frameRate-29.97) < 0.01 || math.Abs(frameRate-59.94) < 0.01

	lines := []string{fmt.Sprintf("TITLE: %s", SanitizeName(title, 70))}
	if isDropFrame {
		lines = append(lines, "FCM: DROP FRAME")
	} else {
		lines = append(lines, "FCM: NON-DROP FRAME")
	}
	lines = append(lines, "")

	for i, ev := range events {
		lines = append(lines,
			fmt.Sprintf("%03d  %-8s %-5s C        %s %s %s %s", i+1, "AX", ev.Channel,
				Timecode(ev.SourceIn, fps), Timecode(ev.SourceOut, fps),
				Timecode(ev.RecordIn, fps), Timecode(ev.RecordOut, fps)),
			fmt.Sprintf("* FROM CLIP NAME:  %s", ev.ClipName),
			fmt.Sprintf("* MEDIA PATH:  %s", ev.MediaPath),
		)
	}

	lines = append(lines, "")
	return strings.Join(lines, "\n")
}

// Timecode formats seconds as HH:MM:SS:FF.
func Timecode(seconds float64, fps int) string {
	if seconds < 0 {
		seconds = 0
	}
	totalFrames := int(math.Round(seconds * float64(fps)))
	frames := totalFrames % fps
	totalSeconds := totalFrames / fps
	secs := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	minutes := totalMinutes % 60
	hours := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hours, minutes, secs, frames)
}

// WriteEDL writes content to <dir>/<name>.edl and returns the path.
func WriteEDL(dir, name, content string) (string, error) {
	if err := ValidateOutputDir(dir); err != nil {
		return "", err
	}
	base := SanitizeName(name, 80)
	if base == "" {
		base = "timeline"
	}
	path := filepath.Join(dir, base+".edl")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write EDL: %w", err)
	}
	return path, nil
}
