package ui

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coclip/coclip-agent/internal/catalog"
	"github.com/coclip/coclip-agent/internal/interaction"
	"github.com/coclip/coclip-agent/internal/playback"
	"github.com/coclip/coclip-agent/internal/timeline"
	"github.com/getlantern/systray"
)

//go:embed icon.png
var iconBytes []byte

const refreshInterval = 500 * time.Millisecond

type Tray struct {
	doc    *timeline.Document
	clock  *playback.Clock
	ctrl   *interaction.Controller
	runner *catalog.Runner
	logger *slog.Logger

	playheadItem *systray.MenuItem
	projectItem  *systray.MenuItem
	importsItem  *systray.MenuItem
	playItem     *systray.MenuItem
	snapItem     *systray.MenuItem
	pauseItem    *systray.MenuItem

	mu sync.Mutex

	onQuit func()
	stop   chan struct{}
}

type TrayConfig struct {
	Document   *timeline.Document
	Clock      *playback.Clock
	Controller *interaction.Controller
	Runner     *catalog.Runner
	Logger     *slog.Logger
	OnQuit     func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		doc:    cfg.Document,
		clock:  cfg.Clock,
		ctrl:   cfg.Controller,
		runner: cfg.Runner,
		logger: cfg.Logger,
		onQuit: cfg.OnQuit,
		stop:   make(chan struct{}),
	}
}

// Run blocks on the platform event loop.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("coclip")
	systray.SetTooltip("coclip timeline agent")

	t.playheadItem = systray.AddMenuItem(PlayheadLabel(playback.State{}), "Playhead position")
	t.playheadItem.Disable()
	t.projectItem = systray.AddMenuItem(ProjectLabel(timeline.Project{}), "Timeline contents")
	t.projectItem.Disable()
	t.importsItem = systray.AddMenuItem(ImportsLabel(0, false), "Media import queue")
	t.importsItem.Disable()

	systray.AddSeparator()

	t.playItem = systray.AddMenuItem("Play", "Start or pause playback")
	t.snapItem = systray.AddMenuItem(SnappingLabel(t.ctrl.Snapping()), "Snap placements to the grid")
	t.pauseItem = systray.AddMenuItem("Pause Imports", "Pause media probing")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit coclip")

	go t.refreshLoop()

	go func() {
		for {
			select {
			case <-t.playItem.ClickedCh:
				t.clock.Toggle()
				t.refresh()
			case <-t.snapItem.ClickedCh:
				t.snapItem.SetTitle(SnappingLabel(t.ctrl.ToggleSnapping()))
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				close(t.stop)
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

func (t *Tray) refreshLoop() {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			t.refresh()
		}
	}
}

func (t *Tray) refresh() {
	t.mu.Lock()
	defer t.mu.Unlock()

	state := t.clock.State()
	t.playheadItem.SetTitle(PlayheadLabel(state))
	if state.Playing {
		t.playItem.SetTitle("Pause")
	} else {
		t.playItem.SetTitle("Play")
	}
	t.projectItem.SetTitle(ProjectLabel(t.doc.Snapshot()))

	if t.runner != nil {
		ctx, cancel := context.WithTimeout(context.Background(), refreshInterval)
		active := t.runner.GetActiveJobCount(ctx)
		cancel()
		t.importsItem.SetTitle(ImportsLabel(active, t.runner.IsPaused()))
	}
}

func (t *Tray) togglePause() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
		t.pauseItem.SetTitle("Pause Imports")
	} else {
		t.runner.Pause()
		t.pauseItem.SetTitle("Resume Imports")
	}
}

func (t *Tray) Quit() {
	systray.Quit()
}

// PlayheadLabel renders "Playhead: 01:05 (playing)".
func PlayheadLabel(s playback.State) string {
	status := "paused"
	if s.Playing {
		status = "playing"
	}
	return fmt.Sprintf("Playhead: %s (%s)", playback.FormatClock(s.Predicted), status)
}

func ProjectLabel(p timeline.Project) string {
	return fmt.Sprintf("Clips: %d  Assets: %d  Length: %s",
		p.ClipCount(), len(p.Assets), playback.FormatClock(p.Duration))
}

func ImportsLabel(active int, paused bool) string {
	if paused {
		return fmt.Sprintf("Imports: paused (%d queued)", active)
	}
	if active == 0 {
		return "Imports: idle"
	}
	return fmt.Sprintf("Imports: %d active", active)
}

func SnappingLabel(on bool) string {
	if on {
		return "Snapping: On"
	}
	return "Snapping: Off"
}
