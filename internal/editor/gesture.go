package editor

import (
	"time"

	"seelayer/pkg/geometry"
)

// longPressDelay is the touch hold duration that counts as a delete request
// on a mark.
const longPressDelay = 500 * time.Millisecond

// longPressSlop is how far a touch may wander while still counting as a
// long-press rather than a drag.
const longPressSlop = 8.0

type gestureKind int

const (
	gestureNone gestureKind = iota
	gesturePan
	gesturePinch
	gestureMarkDrag
	gestureMarkHold
)

// gestureSession is the scratch state for one in-progress pointer or touch
// gesture. A session is created at gesture start and discarded at gesture
// end, so nothing leaks between gestures or between editor instances.
type gestureSession struct {
	kind gestureKind

	// Pan: last pointer/touch position.
	last geometry.Point2D

	// Mark drag: which mark, and the grab offset from its center.
	markID int
	grab   geometry.Point2D

	// Pinch baseline, re-recorded whenever the touch count changes.
	touches        map[int]geometry.Point2D
	touchOrder     []int
	pinchStartDist float64
	pinchBaseScale float64

	// Touch hold tracking for long-press delete.
	pressStart time.Time
	pressAt    geometry.Point2D
	moved      bool
}

func newGestureSession() *gestureSession {
	return &gestureSession{touches: make(map[int]geometry.Point2D)}
}

func (g *gestureSession) touchDown(id int, pos geometry.Point2D) {
	if _, ok := g.touches[id]; !ok {
		g.touchOrder = append(g.touchOrder, id)
	}
	g.touches[id] = pos
}

func (g *gestureSession) touchMove(id int, pos geometry.Point2D) {
	if _, ok := g.touches[id]; ok {
		g.touches[id] = pos
	}
}

func (g *gestureSession) touchUp(id int) {
	delete(g.touches, id)
	for i, t := range g.touchOrder {
		if t == id {
			g.touchOrder = append(g.touchOrder[:i], g.touchOrder[i+1:]...)
			break
		}
	}
}

func (g *gestureSession) touchCount() int {
	return len(g.touches)
}

// primaryTouches returns the two earliest active touches for pinch tracking.
func (g *gestureSession) primaryTouches() (a, b geometry.Point2D, ok bool) {
	if len(g.touchOrder) < 2 {
		return a, b, false
	}
	return g.touches[g.touchOrder[0]], g.touches[g.touchOrder[1]], true
}

// beginPinch records a fresh pinch baseline from the current two touches.
// Called both on the second touch-down and when dropping from three touches
// back to two, so the scale never jumps.
func (g *gestureSession) beginPinch(currentScale float64) {
	a, b, ok := g.primaryTouches()
	if !ok {
		return
	}
	g.kind = gesturePinch
	g.pinchStartDist = a.Distance(b)
	g.pinchBaseScale = currentScale
}

// pinchScale returns the zoom factor and anchor midpoint for the current
// touch positions. ok is false when the baseline is degenerate.
func (g *gestureSession) pinchScale() (scale float64, anchor geometry.Point2D, ok bool) {
	a, b, have := g.primaryTouches()
	if !have || g.pinchStartDist <= 0 {
		return 0, geometry.Point2D{}, false
	}
	dist := a.Distance(b)
	return dist / g.pinchStartDist * g.pinchBaseScale, geometry.Midpoint(a, b), true
}
