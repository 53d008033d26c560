// Package interaction turns pointer gestures into timeline edits. In-flight
// gestures live in session state owned by the Controller and reach the
// document only when they are released.
package interaction

import (
	"errors"
	"log/slog"
	"math"
	"sync"

	"github.com/coclip/coclip-agent/internal/logging"
	"github.com/coclip/coclip-agent/internal/placement"
	"github.com/coclip/coclip-agent/internal/playback"
	"github.com/coclip/coclip-agent/internal/timeline"
)

var (
	ErrUnknownClip  = errors.New("clip not found")
	ErrUnknownTrack = errors.New("track not found")
	ErrTrackLocked  = errors.New("track is locked")
	ErrOverlap      = errors.New("clip would overlap another clip")
	ErrInvalidEdit  = errors.New("edit violates clip bounds")
)

// DropResult reports where a placement landed.
type DropResult struct {
	ClipID   string  `json:"clip_id"`
	TrackID  string  `json:"track_id"`
	Start    float64 `json:"start"`
	NewTrack bool    `json:"new_track"`
}

type resizeSession struct {
	clipID        string
	edge          placement.Edge
	origin        timeline.Clip
	bounds        placement.Bounds
	assetDuration float64
	current       timeline.Clip
}

type moveSession struct {
	clipID   string
	grabPx   float64
	origin   timeline.Clip
	track    timeline.Track
	ghost    placement.Ghost
	hasGhost bool
}

// Controller coordinates gestures against one document and its clock.
type Controller struct {
	doc    *timeline.Document
	clock  *playback.Clock
	grid   placement.Grid
	logger *slog.Logger

	mu        sync.Mutex
	snapping  bool
	scrubbing bool
	ghost     *placement.Ghost
	resize    *resizeSession
	move      *moveSession
}

type Option func(*Controller)

func WithGrid(g placement.Grid) Option {
	return func(c *Controller) {
		c.grid = g
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSnapping sets the initial snapping mode. Snapping starts off.
func WithSnapping(on bool) Option {
	return func(c *Controller) {
		c.snapping = on
	}
}

func NewController(doc *timeline.Document, clock *playback.Clock, opts ...Option) *Controller {
	c := &Controller{
		doc:    doc,
		clock:  clock,
		grid:   placement.DefaultGrid(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Grid() placement.Grid {
	return c.grid
}

func (c *Controller) scrubTime(offsetPx float64) float64 {
	if math.IsNaN(offsetPx) {
		return 0
	}
	return math.Max(0, c.grid.Seconds(offsetPx))
}

// PointerDown starts a scrub on empty timeline space: the playhead jumps to
// the pointer and the selection is cleared.
func (c *Controller) PointerDown(offsetPx float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrubbing = true
	c.clock.Seek(c.scrubTime(offsetPx))
	c.doc.Select("")
}

// PointerMove follows the pointer while scrubbing. It reports whether the
// playhead moved.
func (c *Controller) PointerMove(offsetPx float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.scrubbing {
		return false
	}
	c.clock.Seek(c.scrubTime(offsetPx))
	return true
}

func (c *Controller) PointerUp() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scrubbing = false
}

// Leave aborts every in-flight gesture. The document is not touched.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resize != nil || c.move != nil {
		c.logger.Debug("gesture cancelled on leave")
	}
	c.scrubbing = false
	c.ghost = nil
	c.resize = nil
	c.move = nil
}

func (c *Controller) ToggleSnapping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapping = !c.snapping
	return c.snapping
}

func (c *Controller) Snapping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapping
}

// payloadFor resolves a drag payload against the committed assets so the
// preview and the commit use the duration the document will use.
func payloadFor(p timeline.Project, payload placement.Payload) (placement.Payload, bool) {
	if payload.AssetID == "" {
		return payload, payload.Kind == timeline.KindText
	}
	asset, ok := p.FindAsset(payload.AssetID)
	if !ok {
		return payload, false
	}
	payload.Kind = asset.Kind
	payload.Duration = 0
	if asset.HasDuration() {
		payload.Duration = asset.Duration
	}
	return payload, true
}

// DragOver previews a drop. It returns false, and clears any ghost, when the
// track is unknown or refuses the payload.
func (c *Controller) DragOver(trackID string, offsetPx float64, payload placement.Payload) (placement.Ghost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.doc.Snapshot()
	track, ok := p.FindTrack(trackID)
	if ok {
		payload, ok = payloadFor(p, payload)
	}
	if !ok || track.Locked || !timeline.Accepts(track.Kind, payload.Kind) {
		c.ghost = nil
		return placement.Ghost{}, false
	}
	ghost := placement.Preview(track, payload, c.grid.ResolveStart(offsetPx, c.snapping))
	c.ghost = &ghost
	return ghost, true
}

func (c *Controller) Ghost() (placement.Ghost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ghost == nil {
		return placement.Ghost{}, false
	}
	return *c.ghost, true
}

func (c *Controller) CancelDrag() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ghost = nil
}

// Drop commits a drag at the pointer position. An overlapping drop is placed
// on a new track of the same kind inserted above the target. Incompatible or
// unknown targets leave the document untouched.
func (c *Controller) Drop(trackID string, offsetPx float64, payload placement.Payload) (DropResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ghost = nil

	p := c.doc.Snapshot()
	track, ok := p.FindTrack(trackID)
	if !ok {
		return DropResult{}, false
	}
	if payload.AssetID == "" {
		return DropResult{}, false
	}
	payload, ok = payloadFor(p, payload)
	if !ok {
		return DropResult{}, false
	}
	start := c.grid.ResolveStart(offsetPx, c.snapping)
	return c.commitPlan(placement.PlanDrop(track, payload, start), func(target string) string {
		return c.doc.AddClipToTrack(payload.AssetID, target, start)
	})
}

// AddText places a text clip at an absolute time, layering it like a drop
// when the slot is taken.
func (c *Controller) AddText(trackID string, at float64, text string) (DropResult, bool) {
	if math.IsNaN(at) || math.IsInf(at, 0) {
		return DropResult{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	track, ok := c.doc.Snapshot().FindTrack(trackID)
	if !ok {
		return DropResult{}, false
	}
	at = math.Max(0, at)
	plan := placement.PlanDrop(track, placement.Payload{Kind: timeline.KindText}, at)
	return c.commitPlan(plan, func(target string) string {
		return c.doc.AddTextClip(target, at, text)
	})
}

// commitPlan runs a drop plan through the document. Track insertion and clip
// placement are issued back to back on the document's update queue.
func (c *Controller) commitPlan(plan placement.DropPlan, place func(trackID string) string) (DropResult, bool) {
	target := plan.TrackID
	switch plan.Action {
	case placement.DropOnTrack:
	case placement.DropOnNewTrack:
		target = c.doc.AddTrack(plan.TrackKind, plan.TrackID, "")
		if target == "" {
			return DropResult{}, false
		}
	default:
		c.logger.Debug("drop rejected", "track_id", plan.TrackID)
		return DropResult{}, false
	}

	clipID := place(target)
	if clipID == "" {
		return DropResult{}, false
	}
	c.logger.Info("clip placed",
		"clip_id", clipID,
		"track_id", target,
		"start", plan.Start,
		"action", plan.Action.String(),
	)
	return DropResult{
		ClipID:   clipID,
		TrackID:  target,
		Start:    plan.Start,
		NewTrack: plan.Action == placement.DropOnNewTrack,
	}, true
}

// AddToEnd appends an asset after the last clip of the first track that
// takes its kind.
func (c *Controller) AddToEnd(assetID string) (DropResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.doc.Snapshot()
	asset, ok := p.FindAsset(assetID)
	if !ok {
		return DropResult{}, false
	}
	track, ok := placement.FirstCompatible(p, asset.Kind)
	if !ok {
		return DropResult{}, false
	}
	start := track.End()
	clipID := c.doc.AddClipToTrack(asset.ID, track.ID, start)
	if clipID == "" {
		return DropResult{}, false
	}
	c.logger.Info("clip appended", "clip_id", clipID, "track_id", track.ID, "start", start)
	return DropResult{ClipID: clipID, TrackID: track.ID, Start: start}, true
}

func (c *Controller) locate(p timeline.Project, clipID string) (timeline.Clip, timeline.Track, error) {
	clip, ok := p.FindClip(clipID)
	if !ok {
		return timeline.Clip{}, timeline.Track{}, ErrUnknownClip
	}
	track, ok := p.FindTrack(clip.TrackID)
	if !ok {
		return timeline.Clip{}, timeline.Track{}, ErrUnknownTrack
	}
	if track.Locked {
		return timeline.Clip{}, timeline.Track{}, ErrTrackLocked
	}
	return clip, track, nil
}

// BeginResize opens a trim session on one edge of a clip.
func (c *Controller) BeginResize(clipID string, edge placement.Edge) bool {
	if !edge.Valid() {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &resizeSession{clipID: clipID, edge: edge}
	if !c.rebaseResize(s) {
		return false
	}
	s.current = s.origin
	c.resize = s
	return true
}

// rebaseResize reloads the clip, its neighbour bounds and its source length
// from the committed document.
func (c *Controller) rebaseResize(s *resizeSession) bool {
	p := c.doc.Snapshot()
	clip, track, err := c.locate(p, s.clipID)
	if err != nil {
		return false
	}
	s.origin = clip
	s.bounds = placement.NeighborBounds(track, s.clipID)
	s.assetDuration = 0
	if asset, ok := p.FindAsset(clip.AssetID); ok && asset.HasDuration() {
		s.assetDuration = asset.Duration
	}
	return true
}

// ResizeMove applies the total pointer travel since BeginResize and returns
// the clamped preview. The preview is measured against the committed
// document, so edits made since BeginResize narrow it. The session ends when
// the clip is gone or its track is locked.
func (c *Controller) ResizeMove(deltaPx float64) (timeline.Clip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.resize
	if s == nil {
		return timeline.Clip{}, false
	}
	if !c.rebaseResize(s) {
		c.resize = nil
		return timeline.Clip{}, false
	}
	s.current = placement.Resize(s.origin, s.edge, c.grid.Seconds(deltaPx), s.bounds, s.assetDuration)
	return s.current, true
}

// ReleaseResize commits the previewed trim. The commit is refused when the
// clip changed after the last preview, its track was locked, or the trim
// would now overlap a neighbour. It reports whether the document changed.
func (c *Controller) ReleaseResize() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.resize
	c.resize = nil
	if s == nil {
		return false
	}
	cur := s.current
	if sameSpan(cur, s.origin) {
		return false
	}

	patch := timeline.ClipPatch{
		Start:        &cur.Start,
		Duration:     &cur.Duration,
		SourceOffset: &cur.SourceOffset,
	}
	committed := c.doc.UpdateClipWhen(s.clipID, patch, func(track timeline.Track, current, next timeline.Clip) bool {
		return !track.Locked && sameSpan(current, s.origin) &&
			!placement.Overlaps(track.Clips, next.Start, next.Duration, s.clipID)
	})
	if !committed {
		c.logger.Debug("trim refused", "clip_id", s.clipID)
		return false
	}
	logging.WithClipID(c.logger, s.clipID).Info("clip trimmed",
		"edge", string(s.edge),
		"start", cur.Start,
		"duration", cur.Duration,
	)
	return true
}

func (c *Controller) CancelResize() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resize = nil
}

// ResizePreview returns the in-flight trim, if any.
func (c *Controller) ResizePreview() (timeline.Clip, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resize == nil {
		return timeline.Clip{}, false
	}
	return c.resize.current, true
}

// BeginMove picks a clip up. grabOffsetPx is the pointer distance from the
// clip's left edge.
func (c *Controller) BeginMove(clipID string, grabOffsetPx float64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	clip, track, err := c.locate(c.doc.Snapshot(), clipID)
	if err != nil {
		return false
	}
	if math.IsNaN(grabOffsetPx) {
		grabOffsetPx = 0
	}
	c.move = &moveSession{clipID: clipID, grabPx: grabOffsetPx, origin: clip, track: track}
	return true
}

// MoveTo previews the clip at a new pointer offset on its own track, checked
// against the committed clips. The session ends when the clip is gone or its
// track is locked.
func (c *Controller) MoveTo(offsetPx float64) (placement.Ghost, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.move
	if s == nil {
		return placement.Ghost{}, false
	}
	clip, track, err := c.locate(c.doc.Snapshot(), s.clipID)
	if err != nil {
		c.move = nil
		return placement.Ghost{}, false
	}
	s.origin, s.track = clip, track
	start := c.grid.ResolveStart(offsetPx-s.grabPx, c.snapping)
	s.ghost = placement.Ghost{
		TrackID:  s.track.ID,
		Start:    start,
		Duration: s.origin.Duration,
		Valid:    !placement.Overlaps(s.track.Clips, start, s.origin.Duration, s.clipID),
	}
	s.hasGhost = true
	return s.ghost, true
}

// ReleaseMove commits the last previewed position when it is still free and
// the clip has not changed since that preview.
func (c *Controller) ReleaseMove() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.move
	c.move = nil
	if s == nil || !s.hasGhost || !s.ghost.Valid || s.ghost.Start == s.origin.Start {
		return false
	}
	start := s.ghost.Start
	committed := c.doc.UpdateClipWhen(s.clipID, timeline.ClipPatch{Start: &start}, func(track timeline.Track, current, next timeline.Clip) bool {
		return !track.Locked && sameSpan(current, s.origin) &&
			!placement.Overlaps(track.Clips, next.Start, next.Duration, s.clipID)
	})
	if !committed {
		c.logger.Debug("move refused", "clip_id", s.clipID)
		return false
	}
	c.logger.Info("clip moved", "clip_id", s.clipID, "from", s.origin.Start, "to", start)
	return true
}

func (c *Controller) CancelMove() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.move = nil
}

// ApplyPatch validates a direct clip edit against its neighbours and asset
// before passing it to the document.
func (c *Controller) ApplyPatch(clipID string, patch timeline.ClipPatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.doc.Snapshot()
	clip, track, err := c.locate(p, clipID)
	if err != nil {
		return err
	}
	next := clip
	if patch.Start != nil {
		next.Start = *patch.Start
	}
	if patch.Duration != nil {
		next.Duration = *patch.Duration
	}
	if patch.SourceOffset != nil {
		next.SourceOffset = *patch.SourceOffset
	}
	if !finite(next.Start) || !finite(next.Duration) || !finite(next.SourceOffset) ||
		next.Start < 0 || next.Duration < placement.MinClipDuration || next.SourceOffset < 0 {
		return ErrInvalidEdit
	}
	if patch.Volume != nil && !(*patch.Volume >= 0 && *patch.Volume <= 1) {
		return ErrInvalidEdit
	}
	if asset, ok := p.FindAsset(clip.AssetID); ok && asset.HasDuration() &&
		next.SourceOffset+next.Duration > asset.Duration {
		return ErrInvalidEdit
	}
	if placement.Overlaps(track.Clips, next.Start, next.Duration, clipID) {
		return ErrOverlap
	}

	var refused error
	committed := c.doc.UpdateClipWhen(clipID, patch, func(track timeline.Track, _, next timeline.Clip) bool {
		switch {
		case track.Locked:
			refused = ErrTrackLocked
		case placement.Overlaps(track.Clips, next.Start, next.Duration, clipID):
			refused = ErrOverlap
		}
		return refused == nil
	})
	if !committed && refused == nil {
		return ErrUnknownClip
	}
	return refused
}

// Select marks a clip; an empty id clears the selection.
func (c *Controller) Select(clipID string) {
	c.doc.Select(clipID)
}

// Split cuts a clip at an absolute time strictly inside it and returns the
// id of the second half.
func (c *Controller) Split(clipID string, at float64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.split(clipID, at)
}

func (c *Controller) split(clipID string, at float64) (string, error) {
	clip, _, err := c.locate(c.doc.Snapshot(), clipID)
	if err != nil {
		return "", err
	}
	if !finite(at) || !clip.Contains(at) {
		return "", ErrInvalidEdit
	}
	id := c.doc.SplitClip(clipID, at)
	if id == "" {
		return "", ErrInvalidEdit
	}
	c.logger.Info("clip split", "clip_id", clipID, "new_clip_id", id, "at", at)
	return id, nil
}

// SplitSelected cuts the selected clip at the playhead.
func (c *Controller) SplitSelected() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := c.doc.Selected()
	if selected == "" {
		return "", false
	}
	id, err := c.split(selected, c.clock.CurrentTime())
	return id, err == nil
}

// Delete removes a clip from an unlocked track.
func (c *Controller) Delete(clipID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remove(clipID)
}

func (c *Controller) remove(clipID string) error {
	if _, _, err := c.locate(c.doc.Snapshot(), clipID); err != nil {
		return err
	}
	c.doc.RemoveClip(clipID)
	c.logger.Info("clip deleted", "clip_id", clipID)
	return nil
}

// DeleteSelected removes the selected clip.
func (c *Controller) DeleteSelected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	selected := c.doc.Selected()
	if selected == "" {
		return false
	}
	return c.remove(selected) == nil
}

// SkipBy moves the playhead by seconds within the project duration.
func (c *Controller) SkipBy(seconds float64) float64 {
	return c.clock.Skip(seconds, c.doc.Snapshot().Duration)
}

// State is the controller's view for the presentation layer.
type State struct {
	Scrubbing bool             `json:"scrubbing"`
	Snapping  bool             `json:"snapping"`
	Selected  string           `json:"selected,omitempty"`
	Ghost     *placement.Ghost `json:"ghost,omitempty"`
	Resize    *timeline.Clip   `json:"resize,omitempty"`
	Move      *placement.Ghost `json:"move,omitempty"`

	// PlayheadPx is the predicted playhead position on the ruler.
	PlayheadPx float64 `json:"playhead_px"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := State{
		Scrubbing: c.scrubbing,
		Snapping:  c.snapping,
		Selected:  c.doc.Selected(),

		PlayheadPx: c.grid.Pixels(c.clock.Predicted()),
	}
	if c.ghost != nil {
		g := *c.ghost
		s.Ghost = &g
	}
	if c.resize != nil {
		clip := c.resize.current
		s.Resize = &clip
	}
	if c.move != nil && c.move.hasGhost {
		g := c.move.ghost
		s.Move = &g
	}
	return s
}

// sameSpan reports whether two clips cover the same timeline and source span.
func sameSpan(a, b timeline.Clip) bool {
	return a.Start == b.Start && a.Duration == b.Duration && a.SourceOffset == b.SourceOffset
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
