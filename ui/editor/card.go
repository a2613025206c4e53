package editor

import (
	"fmt"
	"image"
	"image/color"
	"strconv"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/mobile"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	appeditor "seelayer/internal/editor"
	"seelayer/internal/imageio"
	"seelayer/internal/layer"
	"seelayer/internal/mark"
	"seelayer/pkg/geometry"
)

var (
	bgColor       = color.RGBA{R: 243, G: 244, B: 246, A: 255}
	statusInfoCol = color.RGBA{R: 55, G: 65, B: 81, A: 255}
	statusOKCol   = color.RGBA{R: 22, G: 163, B: 74, A: 255}
	statusErrCol  = color.RGBA{R: 220, G: 38, B: 38, A: 255}
)

// Card is one self-contained editing slot: viewport, mark overlay, note
// entry, and controls. Cards share nothing; each owns its editor instance.
type Card struct {
	widget.BaseWidget

	win fyne.Window
	ed  *appeditor.Editor
	log zerolog.Logger

	containerW, containerH float64

	img image.Image

	raster     *fynecanvas.Raster
	view       *viewArea
	statusText *fynecanvas.Text
	titleEntry *widget.Entry
	modeBtn    *widget.Button
	zoomSlider *widget.Slider
	noteEntry  *widget.Entry
	seqBar     *fyne.Container

	content fyne.CanvasObject

	// syncing suppresses control callbacks while the card pushes editor
	// state back into the controls.
	syncing bool

	onSave   func(*Card)
	onRemove func(*Card)
}

// NewCard builds a card for a viewport of the given size.
func NewCard(win fyne.Window, viewW, viewH float64, log zerolog.Logger) *Card {
	c := &Card{
		win:        win,
		ed:         appeditor.New(viewW, viewH),
		log:        log.With().Str("component", "card").Logger(),
		containerW: viewW,
		containerH: viewH,
	}

	c.raster = fynecanvas.NewRaster(c.draw)
	c.raster.ScaleMode = fynecanvas.ImageScaleSmooth
	c.view = newViewArea(c)

	c.buildControls()
	c.wireEvents()

	c.ExtendBaseWidget(c)
	return c
}

// Editor exposes the underlying editor state for the hosting window.
func (c *Card) Editor() *appeditor.Editor {
	return c.ed
}

// OnSave registers the save handler.
func (c *Card) OnSave(fn func(*Card)) {
	c.onSave = fn
}

// OnRemove registers the card removal handler.
func (c *Card) OnRemove(fn func(*Card)) {
	c.onRemove = fn
}

func (c *Card) buildControls() {
	c.statusText = fynecanvas.NewText("", statusInfoCol)
	c.statusText.TextSize = 12
	c.statusText.Hide()

	c.titleEntry = widget.NewEntry()
	c.titleEntry.SetPlaceHolder("Layer title")
	c.titleEntry.OnChanged = func(text string) {
		if !c.syncing {
			c.ed.SetTitle(text)
		}
	}

	c.modeBtn = widget.NewButton("Adjust", func() {
		c.ed.ToggleMode()
	})

	c.zoomSlider = widget.NewSlider(1.0, 3.0)
	c.zoomSlider.Step = 0.01
	c.zoomSlider.OnChanged = func(v float64) {
		if c.syncing {
			return
		}
		c.ed.SetUserScale(v)
		c.frame()
	}
	c.zoomSlider.Disable()

	c.noteEntry = widget.NewMultiLineEntry()
	c.noteEntry.SetPlaceHolder("Select a mark to write its note")
	c.noteEntry.Wrapping = fyne.TextWrapWord
	c.noteEntry.OnChanged = func(text string) {
		if !c.syncing {
			c.ed.SetNoteText(text)
		}
	}
	c.noteEntry.Disable()

	c.seqBar = container.NewHBox()

	uploadBtn := widget.NewButton("Upload Image", c.openImageDialog)
	clearBtn := widget.NewButton("Delete Image", c.confirmDeleteImage)
	saveBtn := widget.NewButton("Save", func() {
		if c.onSave != nil {
			c.onSave(c)
		}
	})
	removeBtn := widget.NewButton("Remove Card", func() {
		if c.onRemove != nil {
			c.onRemove(c)
		}
	})

	viewWrap := container.NewStack(c.raster, c.view)
	viewWrap.Resize(fyne.NewSize(float32(c.containerW), float32(c.containerH)))

	viewHolder := container.NewGridWrap(
		fyne.NewSize(float32(c.containerW), float32(c.containerH)), viewWrap)

	controls := container.NewHBox(uploadBtn, c.modeBtn, clearBtn, saveBtn, removeBtn)
	zoomRow := container.NewBorder(nil, nil, widget.NewLabel("Zoom"), nil, c.zoomSlider)

	c.content = container.NewVBox(
		c.titleEntry,
		c.statusText,
		viewHolder,
		c.seqBar,
		zoomRow,
		c.noteEntry,
		controls,
	)
}

func (c *Card) wireEvents() {
	c.ed.On(appeditor.EventTransformChanged, func() {
		c.syncControls()
		c.raster.Refresh()
	})
	c.ed.On(appeditor.EventMarksChanged, func() {
		c.syncControls()
		c.rebuildSeqBar()
		c.raster.Refresh()
	})
	c.ed.On(appeditor.EventModeChanged, func() {
		c.syncControls()
	})
	c.ed.On(appeditor.EventImageChanged, func() {
		c.syncControls()
		c.rebuildSeqBar()
		c.raster.Refresh()
	})

	c.ed.Notifier().OnChange(func(status appeditor.Status) {
		c.showStatus(status)
	})

	c.ed.OnDeleteRequest(func(m mark.Mark) {
		index := c.ed.DisplayIndex(m.ID)
		dialog.ShowConfirm("Delete mark",
			fmt.Sprintf("Delete mark %d and its note?", index),
			func(confirmed bool) {
				if confirmed {
					c.ed.DeleteMark(m.ID)
				}
			}, c.win)
	})
}

// syncControls pushes editor state into the control widgets.
func (c *Card) syncControls() {
	c.syncing = true
	defer func() { c.syncing = false }()

	if c.titleEntry.Text != c.ed.Title() {
		c.titleEntry.SetText(c.ed.Title())
	}

	if c.ed.Mode() == appeditor.ModeLocked {
		c.modeBtn.SetText("Adjust")
	} else {
		c.modeBtn.SetText("Lock")
	}

	if c.ed.Viewport().Loaded() && c.ed.Mode() == appeditor.ModeAdjust {
		c.zoomSlider.Enable()
	} else {
		c.zoomSlider.Disable()
	}
	c.zoomSlider.SetValue(c.ed.Viewport().UserScale())

	if _, ok := c.ed.NoteTarget(); ok {
		c.noteEntry.Enable()
		if c.noteEntry.Text != c.ed.NoteText() {
			c.noteEntry.SetText(c.ed.NoteText())
		}
	} else {
		c.noteEntry.SetText("")
		c.noteEntry.Disable()
	}
}

func (c *Card) rebuildSeqBar() {
	c.seqBar.RemoveAll()
	selectedID := 0
	if m, ok := c.ed.SelectedMark(); ok {
		selectedID = m.ID
	}
	for i, m := range c.ed.Marks() {
		id := m.ID
		btn := widget.NewButton(strconv.Itoa(i+1), func() {
			c.ed.SelectMark(id)
		})
		if id == selectedID {
			btn.Importance = widget.HighImportance
		}
		c.seqBar.Add(btn)
	}
	c.seqBar.Refresh()
}

func (c *Card) showStatus(status appeditor.Status) {
	if !status.Visible {
		c.statusText.Hide()
		return
	}
	c.statusText.Text = status.Text
	switch status.Severity {
	case appeditor.SeveritySuccess:
		c.statusText.Color = statusOKCol
	case appeditor.SeverityError:
		c.statusText.Color = statusErrCol
	default:
		c.statusText.Color = statusInfoCol
	}
	c.statusText.Show()
	c.statusText.Refresh()
}

func (c *Card) openImageDialog() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		c.attachImageFile(path)
	}, c.win)
	fd.SetFilter(storage.NewExtensionFileFilter(imageio.SupportedFormats()))
	fd.Show()
}

func (c *Card) attachImageFile(path string) {
	img, err := imageio.LoadFile(path)
	if err != nil {
		c.ed.ReportError(err)
		return
	}
	if err := c.ed.AttachImage(img.Width, img.Height, path); err != nil {
		c.ed.ReportError(err)
		return
	}
	c.img = img.Data
	c.log.Info().Str("path", path).Int("w", img.Width).Int("h", img.Height).Msg("image attached")
	c.raster.Refresh()
}

func (c *Card) confirmDeleteImage() {
	if !c.ed.Viewport().Loaded() {
		return
	}
	dialog.ShowConfirm("Delete image",
		"Remove the image and all marks and notes?",
		func(confirmed bool) {
			if !confirmed {
				return
			}
			c.ed.DeleteImage()
			c.img = nil
			c.raster.Refresh()
		}, c.win)
}

// ApplyRecord restores a persisted record into the card, reloading the image
// file it references.
func (c *Card) ApplyRecord(rec layer.Record) error {
	if !rec.HasImage() {
		c.ed.SetTitle(rec.Title)
		c.syncControls()
		return nil
	}

	img, err := imageio.LoadFile(rec.ImageURL)
	if err != nil {
		c.ed.ReportError(err)
		return err
	}
	if err := c.ed.RestoreRecord(rec, img.Width, img.Height); err != nil {
		c.ed.ReportError(err)
		return err
	}
	c.img = img.Data
	c.raster.Refresh()
	return nil
}

// frame applies coalesced pan/zoom input and repaints when it changed
// anything.
func (c *Card) frame() {
	if c.ed.Flush() {
		c.raster.Refresh()
	}
}

// draw composites the transformed image and the mark badges into the raster.
func (c *Card) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.SetRGBA(x, y, bgColor)
		}
	}
	if w == 0 || h == 0 {
		return out
	}

	sx := float64(w) / c.containerW
	sy := float64(h) / c.containerH

	if c.img != nil && c.ed.Viewport().Loaded() {
		tf := c.ed.Viewport().Transform()
		aff := f64.Aff3{
			tf.A * sx, tf.B * sx, tf.TX * sx,
			tf.C * sy, tf.D * sy, tf.TY * sy,
		}
		xdraw.ApproxBiLinear.Transform(out, aff, c.img, c.img.Bounds(), xdraw.Over, nil)
	}

	selectedID := 0
	if m, ok := c.ed.SelectedMark(); ok {
		selectedID = m.ID
	}
	for i, m := range c.ed.Marks() {
		drawMarkBadge(out, m.X*sx, m.Y*sy, i+1, m.ID == selectedID, sx)
	}
	return out
}

// CreateRenderer implements fyne.Widget.
func (c *Card) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(c.content)
}

// viewArea sits over the raster and translates Fyne input events into editor
// calls. All positions are widget-local, which matches the editor's
// container-local coordinate space.
type viewArea struct {
	widget.BaseWidget
	card     *Card
	dragging bool
}

func newViewArea(c *Card) *viewArea {
	v := &viewArea{card: c}
	v.ExtendBaseWidget(v)
	return v
}

func (v *viewArea) CreateRenderer() fyne.WidgetRenderer {
	spacer := fynecanvas.NewRectangle(color.Transparent)
	return widget.NewSimpleRenderer(spacer)
}

func (v *viewArea) MinSize() fyne.Size {
	return fyne.NewSize(float32(v.card.containerW), float32(v.card.containerH))
}

func pointOf(pos fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)}
}

func (v *viewArea) Tapped(ev *fyne.PointEvent) {
	v.card.ed.Tap(pointOf(ev.Position))
}

func (v *viewArea) DoubleTapped(ev *fyne.PointEvent) {
	v.card.ed.DoubleTap(pointOf(ev.Position))
}

func (v *viewArea) TappedSecondary(ev *fyne.PointEvent) {
	v.card.ed.RequestDeleteMark(pointOf(ev.Position))
}

func (v *viewArea) Dragged(ev *fyne.DragEvent) {
	if !v.dragging {
		v.dragging = true
		start := fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
		v.card.ed.PointerDown(pointOf(start))
	}
	v.card.ed.PointerMove(pointOf(ev.Position))
	v.card.frame()
	v.card.raster.Refresh()
}

func (v *viewArea) DragEnd() {
	v.dragging = false
	v.card.ed.PointerUp()
	v.card.frame()
}

func (v *viewArea) Scrolled(ev *fyne.ScrollEvent) {
	// Wheel up zooms in, matching the sign convention of pointer deltas.
	if v.card.ed.Wheel(-float64(ev.Scrolled.DY), pointOf(ev.Position)) {
		v.card.frame()
	}
}

// Touch events arrive one pointer at a time from the mobile driver.

func (v *viewArea) TouchDown(ev *mobile.TouchEvent) {
	v.card.ed.TouchDown(0, pointOf(ev.Position))
}

func (v *viewArea) TouchUp(ev *mobile.TouchEvent) {
	v.card.ed.TouchUp(0, pointOf(ev.Position))
	v.card.frame()
}

func (v *viewArea) TouchCancel(ev *mobile.TouchEvent) {
	v.card.ed.TouchUp(0, pointOf(ev.Position))
}
