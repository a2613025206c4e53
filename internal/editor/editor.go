// Package editor routes pointer, wheel, and touch input to the viewport
// transform or the mark store depending on the exclusive editing mode, and
// converts every rejected action into a transient status notification.
package editor

import (
	"errors"
	"sync"
	"time"

	"seelayer/internal/imageio"
	"seelayer/internal/layer"
	"seelayer/internal/mark"
	"seelayer/internal/viewport"
	"seelayer/pkg/geometry"
)

const (
	// markHitRadius is the pointer hit-circle radius around a mark center.
	markHitRadius = 12.0

	// wheelZoomStep converts wheel deltaY units into user-scale change.
	wheelZoomStep = 0.0025
)

// EventType identifies editor state changes the view layer can subscribe to.
type EventType int

const (
	EventImageChanged EventType = iota
	EventTransformChanged
	EventMarksChanged
	EventModeChanged
)

// Listener is called when a subscribed event fires. Editors are driven by a
// single input queue, so listeners run synchronously on that flow.
type Listener func()

// pendingTransform coalesces raw pan/zoom input so the viewport is mutated
// at most once per Flush (one transform update per display refresh).
type pendingTransform struct {
	dx, dy  float64
	scale   float64
	anchor  geometry.Point2D
	hasPan  bool
	hasZoom bool
}

// Editor owns the full state bundle for one image slot. One Editor per slot;
// instances share nothing. Input and rendering run on a single goroutine,
// but save and upload completions arrive asynchronously, so the lifecycle
// flags and the image reference they touch are guarded by a mutex.
type Editor struct {
	vp       *viewport.Viewport
	marks    *mark.Store
	mode     Mode
	notifier *Notifier

	title string

	gesture *gestureSession
	pending pendingTransform

	listeners map[EventType][]Listener

	// onDeleteRequest is invoked when a right-click or long-press asks for
	// a mark's delete confirmation.
	onDeleteRequest func(mark.Mark)

	// mu guards the fields crossed by async save/upload results.
	mu       sync.Mutex
	imageURL string
	saving   bool
	closed   bool

	now func() time.Time
}

// New creates an editor for a container of the given size, starting locked
// and empty.
func New(containerW, containerH float64) *Editor {
	return &Editor{
		vp:        viewport.New(containerW, containerH),
		marks:     mark.NewStore(containerW, containerH),
		mode:      ModeLocked,
		notifier:  NewNotifier(),
		listeners: make(map[EventType][]Listener),
		now:       time.Now,
	}
}

// On registers a listener for the given event.
func (e *Editor) On(event EventType, fn Listener) {
	e.listeners[event] = append(e.listeners[event], fn)
}

func (e *Editor) emit(event EventType) {
	for _, fn := range e.listeners[event] {
		fn()
	}
}

// Notifier returns the status notification channel for this editor.
func (e *Editor) Notifier() *Notifier {
	return e.notifier
}

// OnDeleteRequest registers the handler that opens a delete confirmation for
// a mark.
func (e *Editor) OnDeleteRequest(fn func(mark.Mark)) {
	e.onDeleteRequest = fn
}

// Viewport exposes the transform model (read paths for the view layer).
func (e *Editor) Viewport() *viewport.Viewport {
	return e.vp
}

// Mode returns the current editing mode.
func (e *Editor) Mode() Mode {
	return e.mode
}

// Title returns the layer title.
func (e *Editor) Title() string {
	return e.title
}

// SetTitle updates the layer title.
func (e *Editor) SetTitle(title string) {
	e.title = title
}

// ImageURL returns the current image reference.
func (e *Editor) ImageURL() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.imageURL
}

// Marks returns the marks in display order.
func (e *Editor) Marks() []mark.Mark {
	return e.marks.Marks()
}

// SelectedMark returns the selected mark, if any.
func (e *Editor) SelectedMark() (mark.Mark, bool) {
	id, ok := e.marks.Selected()
	if !ok {
		return mark.Mark{}, false
	}
	return e.marks.Get(id)
}

// DisplayIndex returns the 1-based on-screen number for a mark id.
func (e *Editor) DisplayIndex(id int) int {
	return e.marks.DisplayIndex(id)
}

// ToggleMode flips between locked and adjust. The toggle itself is never
// guarded.
func (e *Editor) ToggleMode() Mode {
	if e.mode == ModeLocked {
		e.mode = ModeAdjust
	} else {
		e.mode = ModeLocked
	}
	e.endGesture()
	e.emit(EventModeChanged)
	return e.mode
}

// AttachImage installs a newly uploaded image. Marks are cleared (their notes
// persist), the transform resets to fit-and-center, and the editor enters
// adjust mode. A deferred load (container not laid out) is returned to the
// caller for retry.
func (e *Editor) AttachImage(naturalW, naturalH int, url string) error {
	if err := e.vp.Load(naturalW, naturalH); err != nil {
		if !errors.Is(err, viewport.ErrDeferred) {
			e.notifier.Notify("Invalid image", SeverityError)
		}
		return err
	}

	e.setImageURL(url)
	e.marks.ClearMarks()
	e.mode = ModeAdjust
	e.pending = pendingTransform{}
	e.endGesture()

	e.notifier.Notify("Image loaded", SeveritySuccess)
	e.emit(EventImageChanged)
	e.emit(EventModeChanged)
	e.emit(EventMarksChanged)
	e.emit(EventTransformChanged)
	return nil
}

// SetImageURL swaps the image reference without touching any other state,
// used when the optimistic local preview path is replaced by the durable
// library copy once a save completes. Safe to call from the completion
// goroutine; a closed editor drops the swap.
func (e *Editor) SetImageURL(url string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.imageURL = url
}

func (e *Editor) setImageURL(url string) {
	e.mu.Lock()
	e.imageURL = url
	e.mu.Unlock()
}

// DeleteImage removes the image and all annotation state. The mark id
// counter is not rewound.
func (e *Editor) DeleteImage() {
	if !e.vp.Loaded() {
		return
	}
	e.vp.Clear()
	e.marks.Reset()
	e.setImageURL("")
	e.mode = ModeLocked
	e.pending = pendingTransform{}
	e.endGesture()

	e.emit(EventImageChanged)
	e.emit(EventModeChanged)
	e.emit(EventMarksChanged)
	e.emit(EventTransformChanged)
}

// Snapshot captures the persisted record shape for the current state.
func (e *Editor) Snapshot() layer.Record {
	panX, panY := e.vp.Pan()
	return layer.Record{
		Title:     e.title,
		ImageURL:  e.ImageURL(),
		Marks:     e.marks.Marks(),
		TextStore: e.marks.Notes(),
		UserScale: e.vp.UserScale(),
		TX:        panX,
		TY:        panY,
	}
}

// RestoreRecord loads a persisted record: the saved transform is applied
// instead of the fit-and-center reset, and marks and notes are reinstated.
func (e *Editor) RestoreRecord(rec layer.Record, naturalW, naturalH int) error {
	if err := e.vp.Restore(naturalW, naturalH, rec.UserScale, rec.TX, rec.TY); err != nil {
		return err
	}

	e.title = rec.Title
	e.setImageURL(rec.ImageURL)
	e.marks.RestoreState(rec.Marks, rec.TextStore)
	e.mode = ModeAdjust
	e.pending = pendingTransform{}
	e.endGesture()

	e.emit(EventImageChanged)
	e.emit(EventModeChanged)
	e.emit(EventMarksChanged)
	e.emit(EventTransformChanged)
	return nil
}

// ─── mark editing (locked mode) ───

// DoubleTap places a mark at the given container position. Outside locked
// mode, or without an image, or at capacity, the action is rejected with a
// notification and no state change.
func (e *Editor) DoubleTap(pos geometry.Point2D) {
	if !e.vp.Loaded() {
		e.notifier.Notify("Upload an image first", SeverityInfo)
		return
	}
	if e.mode != ModeLocked {
		e.notifier.Notify("Switch to lock mode to add marks", SeverityInfo)
		return
	}

	if _, err := e.marks.Add(pos.X, pos.Y); err != nil {
		e.ReportError(err)
		return
	}
	e.emit(EventMarksChanged)
}

// Tap selects the mark under the position while locked. In adjust mode the
// overlay is pass-through, so taps fall through to nothing.
func (e *Editor) Tap(pos geometry.Point2D) {
	if e.mode != ModeLocked {
		return
	}
	if m, ok := e.marks.HitTest(pos.X, pos.Y, markHitRadius); ok {
		e.marks.Select(m.ID)
		e.emit(EventMarksChanged)
	}
}

// SelectMark sets the selection directly (sequence bar click).
func (e *Editor) SelectMark(id int) {
	if e.mode != ModeLocked {
		e.notifier.Notify("Switch to lock mode to edit marks", SeverityInfo)
		return
	}
	e.marks.Select(id)
	e.emit(EventMarksChanged)
}

// RequestDeleteMark asks for delete confirmation on the mark under the
// position (right-click path).
func (e *Editor) RequestDeleteMark(pos geometry.Point2D) {
	if e.mode != ModeLocked {
		e.notifier.Notify("Switch to lock mode to edit marks", SeverityInfo)
		return
	}
	if m, ok := e.marks.HitTest(pos.X, pos.Y, markHitRadius); ok {
		if e.onDeleteRequest != nil {
			e.onDeleteRequest(m)
		}
	}
}

// DeleteMark removes a mark after confirmation. Other marks keep their ids,
// positions, and notes.
func (e *Editor) DeleteMark(id int) {
	if e.mode != ModeLocked {
		e.notifier.Notify("Switch to lock mode to edit marks", SeverityInfo)
		return
	}
	if err := e.marks.Delete(id); err != nil {
		return
	}
	e.emit(EventMarksChanged)
}

// NoteTarget returns the mark id currently receiving text input, if any.
func (e *Editor) NoteTarget() (int, bool) {
	return e.marks.Selected()
}

// NoteText returns the note for the current text target.
func (e *Editor) NoteText() string {
	id, ok := e.marks.Selected()
	if !ok {
		return ""
	}
	return e.marks.Text(id)
}

// SetNoteText routes typed text to the selected mark's note.
func (e *Editor) SetNoteText(text string) {
	id, ok := e.marks.Selected()
	if !ok {
		return
	}
	if err := e.marks.SetText(id, text); err == nil {
		e.emit(EventMarksChanged)
	}
}

// ─── pan/zoom input (adjust mode) ───

// SetUserScale applies an unanchored zoom (slider path). Guarded to adjust
// mode.
func (e *Editor) SetUserScale(scale float64) {
	if !e.adjustable("Click Adjust to zoom") {
		return
	}
	e.pending.scale = scale
	e.pending.hasZoom = false // unanchored: apply directly
	e.vp.SetUserScale(scale)
	e.emit(EventTransformChanged)
}

// Wheel handles a mouse wheel event over the viewport. The zoom change is
// proportional to -deltaY and anchored at the cursor. Returns true when the
// event was consumed (the caller should suppress page scrolling); false lets
// it pass through and shows a mode hint.
func (e *Editor) Wheel(deltaY float64, at geometry.Point2D) bool {
	if !e.vp.Loaded() || e.mode != ModeAdjust {
		e.notifier.Notify("Click Adjust to pan and zoom", SeverityInfo)
		return false
	}

	base := e.vp.UserScale()
	if e.pending.hasZoom {
		base = e.pending.scale
	}
	e.pending.scale = base - deltaY*wheelZoomStep
	e.pending.anchor = at
	e.pending.hasZoom = true
	return true
}

// PointerDown starts a mouse gesture: a pan in adjust mode, or a mark drag
// when pressing a mark while locked.
func (e *Editor) PointerDown(pos geometry.Point2D) {
	switch e.mode {
	case ModeAdjust:
		if !e.vp.Loaded() {
			return
		}
		g := newGestureSession()
		g.kind = gesturePan
		g.last = pos
		e.gesture = g
	case ModeLocked:
		m, ok := e.marks.HitTest(pos.X, pos.Y, markHitRadius)
		if !ok {
			return
		}
		e.marks.Select(m.ID)
		g := newGestureSession()
		g.kind = gestureMarkDrag
		g.markID = m.ID
		g.grab = geometry.Point2D{X: pos.X - m.X, Y: pos.Y - m.Y}
		e.gesture = g
		e.emit(EventMarksChanged)
	}
}

// PointerMove continues the active mouse gesture.
func (e *Editor) PointerMove(pos geometry.Point2D) {
	g := e.gesture
	if g == nil {
		return
	}
	switch g.kind {
	case gesturePan:
		e.pending.dx += pos.X - g.last.X
		e.pending.dy += pos.Y - g.last.Y
		e.pending.hasPan = true
		g.last = pos
	case gestureMarkDrag:
		if err := e.marks.Move(g.markID, pos.X-g.grab.X, pos.Y-g.grab.Y); err == nil {
			e.emit(EventMarksChanged)
		}
	}
}

// PointerUp ends the active mouse gesture.
func (e *Editor) PointerUp() {
	e.endGesture()
}

// ─── touch input ───

// TouchDown tracks a new touch point. In adjust mode the first touch starts
// a pan; a second touch aborts the pan and records a fresh pinch baseline so
// the scale does not jump. While locked, a touch on a mark starts hold
// tracking for long-press delete.
func (e *Editor) TouchDown(id int, pos geometry.Point2D) {
	if e.gesture == nil {
		e.gesture = newGestureSession()
	}
	g := e.gesture
	g.touchDown(id, pos)

	switch e.mode {
	case ModeAdjust:
		if !e.vp.Loaded() {
			return
		}
		switch g.touchCount() {
		case 1:
			g.kind = gesturePan
			g.last = pos
		case 2:
			// Abort the pan cleanly, then pinch from the new baseline.
			e.pending.dx = 0
			e.pending.dy = 0
			e.pending.hasPan = false
			g.beginPinch(e.vp.UserScale())
		}
	case ModeLocked:
		if g.touchCount() != 1 {
			return
		}
		if m, ok := e.marks.HitTest(pos.X, pos.Y, markHitRadius); ok {
			g.kind = gestureMarkHold
			g.markID = m.ID
			g.grab = geometry.Point2D{X: pos.X - m.X, Y: pos.Y - m.Y}
			g.pressStart = e.now()
			g.pressAt = pos
			g.moved = false
		}
	}
}

// TouchMove continues the active touch gesture.
func (e *Editor) TouchMove(id int, pos geometry.Point2D) {
	g := e.gesture
	if g == nil {
		return
	}
	g.touchMove(id, pos)

	switch g.kind {
	case gesturePan:
		e.pending.dx += pos.X - g.last.X
		e.pending.dy += pos.Y - g.last.Y
		e.pending.hasPan = true
		g.last = pos
	case gesturePinch:
		scale, anchor, ok := g.pinchScale()
		if !ok {
			return
		}
		e.pending.scale = scale
		e.pending.anchor = anchor
		e.pending.hasZoom = true
	case gestureMarkHold:
		if pos.Distance(g.pressAt) > longPressSlop {
			g.moved = true
			g.kind = gestureMarkDrag
		}
	case gestureMarkDrag:
		if err := e.marks.Move(g.markID, pos.X-g.grab.X, pos.Y-g.grab.Y); err == nil {
			e.emit(EventMarksChanged)
		}
	}
}

// TouchUp releases a touch point. Dropping from two touches to one restarts
// a pan from the remaining touch; releasing a held mark either selects it
// (short press) or requests delete confirmation (long press).
func (e *Editor) TouchUp(id int, pos geometry.Point2D) {
	g := e.gesture
	if g == nil {
		return
	}

	if g.kind == gestureMarkHold {
		held := e.now().Sub(g.pressStart)
		if held >= longPressDelay && !g.moved {
			if e.onDeleteRequest != nil {
				if m, ok := e.marks.Get(g.markID); ok {
					e.onDeleteRequest(m)
				}
			}
		} else {
			e.marks.Select(g.markID)
			e.emit(EventMarksChanged)
		}
	}

	g.touchUp(id)
	switch g.touchCount() {
	case 0:
		e.endGesture()
	case 1:
		if e.mode == ModeAdjust && e.vp.Loaded() {
			g.kind = gesturePan
			g.last = g.touches[g.touchOrder[0]]
		}
	default:
		if g.kind == gesturePinch {
			g.beginPinch(e.vp.UserScale())
		}
	}
}

// Flush applies the coalesced pan/zoom input to the viewport, at most one
// transform mutation per call. Input queued before an image load finished is
// discarded so a stale update cannot overwrite the fresh fit-and-center
// state. Returns true when the transform changed.
func (e *Editor) Flush() bool {
	if e.vp.ConsumeJustLoaded() {
		e.pending = pendingTransform{}
		return false
	}
	if !e.pending.hasPan && !e.pending.hasZoom {
		return false
	}
	if !e.vp.Loaded() || e.mode != ModeAdjust {
		e.pending = pendingTransform{}
		return false
	}

	if e.pending.hasZoom {
		e.vp.ZoomAt(e.pending.scale, e.pending.anchor)
	}
	if e.pending.hasPan {
		e.vp.PanBy(e.pending.dx, e.pending.dy)
	}
	e.pending = pendingTransform{}
	e.emit(EventTransformChanged)
	return true
}

func (e *Editor) endGesture() {
	e.gesture = nil
}

func (e *Editor) adjustable(hint string) bool {
	if !e.vp.Loaded() {
		e.notifier.Notify("Upload an image first", SeverityInfo)
		return false
	}
	if e.mode != ModeAdjust {
		e.notifier.Notify(hint, SeverityInfo)
		return false
	}
	return true
}

// ─── error reporting and lifecycle ───

// ReportError converts a recoverable error into a status notification. No
// error from this layer unwinds state; the worst case is "action ignored,
// message shown".
func (e *Editor) ReportError(err error) {
	if err == nil {
		return
	}

	var verr *imageio.ValidationError
	switch {
	case errors.As(err, &verr):
		e.notifier.Notify(verr.Message(), SeverityError)
	case errors.Is(err, mark.ErrCapacity):
		e.notifier.Notify("Mark limit reached (8)", SeverityError)
	case errors.Is(err, viewport.ErrDeferred):
		// Retried automatically; not user-visible.
	default:
		e.notifier.Notify("Save failed, your edits are kept locally", SeverityError)
	}
}

// BeginSave marks a save as in flight; a second save attempt while one is
// running is rejected. Returns false when saving is already in progress or
// the editor is closed.
func (e *Editor) BeginSave() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.saving || e.closed {
		return false
	}
	e.saving = true
	return true
}

// FinishSave clears the save-in-flight flag. Called from the save
// completion goroutine.
func (e *Editor) FinishSave() {
	e.mu.Lock()
	e.saving = false
	e.mu.Unlock()
}

// Close marks the editor instance as gone. Late async results (upload
// completions, save responses) must check Closed before applying.
func (e *Editor) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.endGesture()
}

// Closed reports whether the instance was discarded.
func (e *Editor) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}
