// Package viewport maintains the mapping between natural image pixels and the
// displayed, user-adjusted view: fit-to-container base scale, user zoom, and
// clamped pan offsets.
package viewport

import (
	"errors"

	"seelayer/pkg/geometry"
)

const (
	// MinUserScale and MaxUserScale bound the user zoom factor.
	MinUserScale = 1.0
	MaxUserScale = 3.0

	// panBuffer is how far (in container pixels) the image may be dragged
	// past fully covering the container on an axis.
	panBuffer = 12.0
)

var (
	// ErrNoImage is returned when an image with a zero dimension is loaded.
	ErrNoImage = errors.New("viewport: image has no size")

	// ErrDeferred is returned when the container has not been laid out yet.
	// The caller should retry once layout is available.
	ErrDeferred = errors.New("viewport: container not measurable yet")
)

// Viewport holds the transform state for one image slot.
// All coordinates are container-local pixels with origin at the top-left.
type Viewport struct {
	naturalW, naturalH     int
	containerW, containerH float64

	baseScale float64
	userScale float64
	panX      float64
	panY      float64

	loaded     bool
	justLoaded bool
}

// New creates a viewport for a container of the given size.
func New(containerW, containerH float64) *Viewport {
	return &Viewport{
		containerW: containerW,
		containerH: containerH,
		userScale:  MinUserScale,
	}
}

// SetContainerSize updates the container dimensions. It does not recompute
// the base scale; that happens on the next Load or Restore.
func (v *Viewport) SetContainerSize(w, h float64) {
	v.containerW = w
	v.containerH = h
}

// ContainerSize returns the container dimensions.
func (v *Viewport) ContainerSize() geometry.Size {
	return geometry.Size{Width: v.containerW, Height: v.containerH}
}

// Load installs a freshly decoded image: the base scale is recomputed against
// the current container size and the user transform is reset. Returns
// ErrNoImage for a zero-sized image and ErrDeferred when the container has no
// measurable size yet.
func (v *Viewport) Load(naturalW, naturalH int) error {
	return v.load(naturalW, naturalH, MinUserScale, 0, 0)
}

// Restore installs an image together with a previously persisted transform.
// The saved scale and pan are clamped against the recomputed base scale.
func (v *Viewport) Restore(naturalW, naturalH int, userScale, panX, panY float64) error {
	return v.load(naturalW, naturalH, userScale, panX, panY)
}

func (v *Viewport) load(naturalW, naturalH int, userScale, panX, panY float64) error {
	if naturalW <= 0 || naturalH <= 0 {
		return ErrNoImage
	}
	if v.containerW <= 0 || v.containerH <= 0 {
		return ErrDeferred
	}

	v.naturalW = naturalW
	v.naturalH = naturalH

	scaleX := v.containerW / float64(naturalW)
	scaleY := v.containerH / float64(naturalH)
	if scaleY < scaleX {
		v.baseScale = scaleY
	} else {
		v.baseScale = scaleX
	}

	v.userScale = clampScale(userScale)
	v.panX = panX
	v.panY = panY
	v.clampPan()
	if v.userScale == MinUserScale {
		v.panX = 0
		v.panY = 0
	}

	v.loaded = true
	v.justLoaded = true
	return nil
}

// Clear removes the image. Subsequent pan/zoom calls are no-ops.
func (v *Viewport) Clear() {
	v.naturalW = 0
	v.naturalH = 0
	v.baseScale = 0
	v.userScale = MinUserScale
	v.panX = 0
	v.panY = 0
	v.loaded = false
	v.justLoaded = false
}

// Loaded reports whether an image is installed.
func (v *Viewport) Loaded() bool {
	return v.loaded
}

// ConsumeJustLoaded reports whether a load completed since the previous call,
// clearing the flag. Render paths use this to drop transform updates queued
// before the load finished.
func (v *Viewport) ConsumeJustLoaded() bool {
	was := v.justLoaded
	v.justLoaded = false
	return was
}

// NaturalSize returns the intrinsic image dimensions.
func (v *Viewport) NaturalSize() (w, h int) {
	return v.naturalW, v.naturalH
}

// BaseScale returns the fit-to-container scale computed at load time.
func (v *Viewport) BaseScale() float64 {
	return v.baseScale
}

// UserScale returns the current user zoom factor.
func (v *Viewport) UserScale() float64 {
	return v.userScale
}

// Pan returns the current pan offset relative to the centered position.
func (v *Viewport) Pan() (x, y float64) {
	return v.panX, v.panY
}

// EffectiveScale returns baseScale * userScale.
func (v *Viewport) EffectiveScale() float64 {
	return v.baseScale * v.userScale
}

// EffectiveSize returns the on-screen image size at the current zoom.
func (v *Viewport) EffectiveSize() geometry.Size {
	scale := v.EffectiveScale()
	return geometry.Size{
		Width:  float64(v.naturalW) * scale,
		Height: float64(v.naturalH) * scale,
	}
}

// SetUserScale applies a zoom change with no anchor (slider or keyboard).
// The value is clamped to [MinUserScale, MaxUserScale]; reaching exactly
// MinUserScale re-centers the image. Returns the scale actually applied.
func (v *Viewport) SetUserScale(scale float64) float64 {
	if !v.loaded {
		return v.userScale
	}
	v.userScale = clampScale(scale)
	if v.userScale == MinUserScale {
		v.panX = 0
		v.panY = 0
	}
	v.clampPan()
	return v.userScale
}

// ZoomAt applies a zoom change anchored at a container-local point (wheel or
// pinch): the image content under the anchor keeps its screen position. The
// pan is then re-clamped, and reaching exactly MinUserScale re-centers.
// Returns the scale actually applied.
func (v *Viewport) ZoomAt(scale float64, anchor geometry.Point2D) float64 {
	if !v.loaded {
		return v.userScale
	}

	oldEff := v.EffectiveScale()
	oldTX, oldTY, _ := v.Render()

	v.userScale = clampScale(scale)
	newEff := v.EffectiveScale()

	if v.userScale == MinUserScale {
		v.panX = 0
		v.panY = 0
		v.clampPan()
		return v.userScale
	}

	if oldEff > 0 {
		// Image coordinate under the anchor before the zoom.
		imgX := (anchor.X - oldTX) / oldEff
		imgY := (anchor.Y - oldTY) / oldEff

		// Solve for the pan that keeps that coordinate under the anchor,
		// accounting for the centering term in Render.
		v.panX = anchor.X - imgX*newEff - (v.containerW-float64(v.naturalW)*newEff)/2
		v.panY = anchor.Y - imgY*newEff - (v.containerH-float64(v.naturalH)*newEff)/2
	}

	v.clampPan()
	return v.userScale
}

// PanBy accumulates a drag delta into the pan offset and re-clamps.
func (v *Viewport) PanBy(dx, dy float64) {
	if !v.loaded {
		return
	}
	v.panX += dx
	v.panY += dy
	v.clampPan()
}

// Render returns the translate and scale to apply to the image element.
// Pure: it does not mutate the viewport.
func (v *Viewport) Render() (translateX, translateY, scale float64) {
	scale = v.EffectiveScale()
	translateX = (v.containerW-float64(v.naturalW)*scale)/2 + v.panX
	translateY = (v.containerH-float64(v.naturalH)*scale)/2 + v.panY
	return translateX, translateY, scale
}

// Transform returns Render as an affine transform from natural image
// coordinates to container coordinates.
func (v *Viewport) Transform() geometry.AffineTransform {
	tx, ty, scale := v.Render()
	return geometry.Translation(tx, ty).Compose(geometry.ScaleUniform(scale))
}

// clampPan enforces the pan boundary invariant: an axis where the scaled
// image fits inside the container is pinned to 0 (centered); otherwise the
// pan is limited so the image edge stays within panBuffer of covering the
// container.
func (v *Viewport) clampPan() {
	eff := v.EffectiveSize()
	v.panX = clampAxis(v.panX, eff.Width, v.containerW)
	v.panY = clampAxis(v.panY, eff.Height, v.containerH)
}

func clampAxis(pan, imageExtent, containerExtent float64) float64 {
	if imageExtent <= containerExtent {
		return 0
	}
	limit := (imageExtent-containerExtent)/2 + panBuffer
	if pan > limit {
		return limit
	}
	if pan < -limit {
		return -limit
	}
	return pan
}

func clampScale(scale float64) float64 {
	if scale < MinUserScale {
		return MinUserScale
	}
	if scale > MaxUserScale {
		return MaxUserScale
	}
	return scale
}
