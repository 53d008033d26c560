package playback

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Predictor projects the displayed playhead between authoritative updates.
// It is read-only with respect to the clock.
type Predictor struct {
	BaseTime float64
	BaseWall time.Time
	Playing  bool
}

// At returns the predicted position at wall time now.
func (p Predictor) At(now time.Time) float64 {
	if !p.Playing {
		return p.BaseTime
	}
	elapsed := now.Sub(p.BaseWall).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	return p.BaseTime + elapsed
}

// State is a point-in-time view of the clock.
type State struct {
	CurrentTime float64 `json:"current_time"`
	Playing     bool    `json:"playing"`
	Predicted   float64 `json:"predicted"`
	Timecode    string  `json:"timecode"`
}

// Clock holds the authoritative playhead. Seeks and frame reports write it;
// every write re-bases the predictor.
type Clock struct {
	mu      sync.Mutex
	now     func() time.Time
	current float64
	playing bool
	pred    Predictor
}

type ClockOption func(*Clock)

// WithNow replaces the wall clock, mainly for tests.
func WithNow(now func() time.Time) ClockOption {
	return func(c *Clock) {
		if now != nil {
			c.now = now
		}
	}
}

func NewClock(opts ...ClockOption) *Clock {
	c := &Clock{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.pred = Predictor{BaseWall: c.now()}
	return c
}

func (c *Clock) rebase() {
	c.pred = Predictor{BaseTime: c.current, BaseWall: c.now(), Playing: c.playing}
}

// Seek moves the playhead. Negative times clamp to 0; non-finite input is
// ignored.
func (c *Clock) Seek(t float64) {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = math.Max(0, t)
	c.rebase()
}

// Skip moves the playhead by delta, clamped to [0, limit], and returns the
// new position.
func (c *Clock) Skip(delta, limit float64) float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if math.IsNaN(delta) || math.IsNaN(limit) {
		return c.current
	}
	next := math.Max(0, c.current+delta)
	if limit >= 0 {
		next = math.Min(next, limit)
	}
	c.current = next
	c.rebase()
	return next
}

// ReportFrame applies a renderer position report. Reports are dropped while
// paused so a late report cannot pull the playhead back after a seek.
func (c *Clock) ReportFrame(frame int64, fps float64) bool {
	if frame < 0 || !(fps > 0) || math.IsInf(fps, 0) {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return false
	}
	c.current = float64(frame) / fps
	c.rebase()
	return true
}

func (c *Clock) SetPlaying(playing bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing == playing {
		return
	}
	c.playing = playing
	c.rebase()
}

// Toggle flips play/pause and returns the new playing flag.
func (c *Clock) Toggle() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = !c.playing
	c.rebase()
	return c.playing
}

func (c *Clock) CurrentTime() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Clock) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Predicted is the display position for the current wall time.
func (c *Clock) Predicted() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pred.At(c.now())
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	predicted := c.pred.At(c.now())
	return State{
		CurrentTime: c.current,
		Playing:     c.playing,
		Predicted:   predicted,
		Timecode:    FormatClock(predicted),
	}
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped at an hour;
// non-finite and negative inputs render as 00:00.
func FormatClock(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		seconds = 0
	}
	total := int64(math.Floor(seconds))
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
