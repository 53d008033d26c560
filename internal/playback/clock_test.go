package playback

import (
	"math"
	"testing"
	"time"
)

type fakeWall struct {
	t time.Time
}

func (f *fakeWall) now() time.Time { return f.t }

func (f *fakeWall) advance(d time.Duration) { f.t = f.t.Add(d) }

func newTestClock() (*Clock, *fakeWall) {
	wall := &fakeWall{t: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	return NewClock(WithNow(wall.now)), wall
}

func TestPredictor_At(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		p    Predictor
		now  time.Time
		want float64
	}{
		{"paused holds", Predictor{BaseTime: 3, BaseWall: base}, base.Add(2 * time.Second), 3},
		{"playing advances", Predictor{BaseTime: 3, BaseWall: base, Playing: true}, base.Add(1500 * time.Millisecond), 4.5},
		{"clock behind base", Predictor{BaseTime: 3, BaseWall: base, Playing: true}, base.Add(-time.Second), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.At(tt.now); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("At() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClock_PredictsWhilePlaying(t *testing.T) {
	c, wall := newTestClock()

	c.Seek(10)
	wall.advance(time.Second)
	if got := c.Predicted(); got != 10 {
		t.Errorf("paused Predicted() = %v, want 10", got)
	}

	c.SetPlaying(true)
	wall.advance(250 * time.Millisecond)
	if got := c.Predicted(); math.Abs(got-10.25) > 1e-9 {
		t.Errorf("Predicted() = %v, want 10.25", got)
	}
	if got := c.CurrentTime(); got != 10 {
		t.Errorf("prediction leaked into CurrentTime() = %v", got)
	}
}

func TestClock_ReportFrameRebases(t *testing.T) {
	c, wall := newTestClock()
	c.SetPlaying(true)
	wall.advance(2 * time.Second)

	if !c.ReportFrame(45, 30) {
		t.Fatal("ReportFrame() ignored while playing")
	}
	if got := c.CurrentTime(); got != 1.5 {
		t.Errorf("CurrentTime() = %v, want 1.5", got)
	}
	if got := c.Predicted(); got != 1.5 {
		t.Errorf("Predicted() right after report = %v, want 1.5", got)
	}

	wall.advance(100 * time.Millisecond)
	if got := c.Predicted(); math.Abs(got-1.6) > 1e-9 {
		t.Errorf("Predicted() = %v, want 1.6", got)
	}
}

func TestClock_ReportFrameIgnoredWhilePaused(t *testing.T) {
	c, _ := newTestClock()
	c.Seek(20)

	if c.ReportFrame(30, 30) {
		t.Error("ReportFrame() applied while paused")
	}
	if got := c.CurrentTime(); got != 20 {
		t.Errorf("CurrentTime() = %v, want 20", got)
	}
}

func TestClock_ReportFrameRejectsBadInput(t *testing.T) {
	c, _ := newTestClock()
	c.SetPlaying(true)

	for _, tt := range []struct {
		frame int64
		fps   float64
	}{{-1, 30}, {10, 0}, {10, -30}, {10, math.NaN()}, {10, math.Inf(1)}} {
		if c.ReportFrame(tt.frame, tt.fps) {
			t.Errorf("ReportFrame(%d, %v) applied", tt.frame, tt.fps)
		}
	}
}

func TestClock_Skip(t *testing.T) {
	tests := []struct {
		name  string
		from  float64
		delta float64
		limit float64
		want  float64
	}{
		{"forward", 10, 5, 60, 15},
		{"backward", 10, -5, 60, 5},
		{"clamped at zero", 3, -5, 60, 0},
		{"clamped at limit", 58, 5, 60, 60},
		{"no limit", 58, 5, -1, 63},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClock()
			c.Seek(tt.from)
			if got := c.Skip(tt.delta, tt.limit); got != tt.want {
				t.Errorf("Skip() = %v, want %v", got, tt.want)
			}
			if got := c.CurrentTime(); got != tt.want {
				t.Errorf("CurrentTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClock_SeekClamps(t *testing.T) {
	c, _ := newTestClock()
	c.Seek(-4)
	if got := c.CurrentTime(); got != 0 {
		t.Errorf("CurrentTime() = %v, want 0", got)
	}
	c.Seek(7)
	c.Seek(math.NaN())
	if got := c.CurrentTime(); got != 7 {
		t.Errorf("NaN seek changed time to %v", got)
	}
}

func TestClock_ToggleAndState(t *testing.T) {
	c, wall := newTestClock()
	c.Seek(61)

	if !c.Toggle() {
		t.Fatal("Toggle() = false, want playing")
	}
	wall.advance(2 * time.Second)

	s := c.State()
	if !s.Playing || s.CurrentTime != 61 || s.Predicted != 63 || s.Timecode != "01:03" {
		t.Errorf("State() = %+v", s)
	}

	if c.Toggle() {
		t.Error("second Toggle() = true, want paused")
	}
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "00:00"},
		{4.99, "00:04"},
		{65, "01:05"},
		{3599.5, "59:59"},
		{3600, "60:00"},
		{-3, "00:00"},
		{math.NaN(), "00:00"},
		{math.Inf(1), "00:00"},
		{math.Inf(-1), "00:00"},
	}

	for _, tt := range tests {
		if got := FormatClock(tt.in); got != tt.want {
			t.Errorf("FormatClock(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
