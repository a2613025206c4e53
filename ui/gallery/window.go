// Package gallery provides the main window: a column of independent editor
// cards backed by the record store and the draft autosaver.
package gallery

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"seelayer/internal/config"
	appeditor "seelayer/internal/editor"
	"seelayer/internal/imageio"
	"seelayer/internal/store"
	uieditor "seelayer/ui/editor"
)

// Window is the main application window.
type Window struct {
	fyne.Window
	app    fyne.App
	cfg    config.Config
	db     *store.Store
	drafts *store.Drafts
	log    zerolog.Logger

	cardColumn *fyne.Container
	cards      map[*uieditor.Card]*slot
}

// slot tracks one card's persistence identity. savedID is written by the
// save completion goroutine and read on the main goroutine.
type slot struct {
	draftID string

	mu      sync.Mutex
	savedID string
}

func (s *slot) saved() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.savedID
}

func (s *slot) setSaved(id string) {
	s.mu.Lock()
	s.savedID = id
	s.mu.Unlock()
}

// New creates the main window and restores saved records and drafts.
func New(fyneApp fyne.App, cfg config.Config, db *store.Store, drafts *store.Drafts, log zerolog.Logger) *Window {
	win := fyneApp.NewWindow("SeeLayer")

	w := &Window{
		Window: win,
		app:    fyneApp,
		cfg:    cfg,
		db:     db,
		drafts: drafts,
		log:    log.With().Str("component", "gallery").Logger(),
		cards:  make(map[*uieditor.Card]*slot),
	}

	w.setupUI()
	w.restoreSaved()
	w.restoreDrafts()
	if len(w.cards) == 0 {
		w.addCard()
	}
	return w
}

func (w *Window) setupUI() {
	w.cardColumn = container.NewVBox()

	addBtn := widget.NewButton("Add Card", func() {
		w.addCard()
	})

	content := container.NewBorder(
		container.NewHBox(addBtn),
		nil, nil, nil,
		container.NewVScroll(w.cardColumn),
	)
	w.SetContent(content)
	w.Resize(fyne.NewSize(640, 760))
}

// addCard creates an empty card and wires its persistence hooks.
func (w *Window) addCard() *uieditor.Card {
	card := uieditor.NewCard(w.Window, w.cfg.Viewport.Width, w.cfg.Viewport.Height, w.log)
	w.cards[card] = &slot{draftID: uuid.NewString()}

	card.OnSave(func(c *uieditor.Card) { w.saveCard(c) })
	card.OnRemove(func(c *uieditor.Card) { w.confirmRemoveCard(c) })

	// Draft autosave keeps unsaved edits across restarts.
	ed := card.Editor()
	ed.On(appeditor.EventMarksChanged, func() { w.saveDraft(card) })
	ed.On(appeditor.EventTransformChanged, func() { w.saveDraft(card) })
	ed.On(appeditor.EventImageChanged, func() { w.saveDraft(card) })

	w.cardColumn.Add(card)
	w.cardColumn.Refresh()
	return card
}

func (w *Window) saveDraft(card *uieditor.Card) {
	s := w.cards[card]
	if s == nil {
		return
	}
	if err := w.drafts.Save(s.draftID, card.Editor().Snapshot()); err != nil {
		w.log.Warn().Err(err).Str("slot", s.draftID).Msg("draft save failed")
	}
}

// saveCard writes the card's snapshot to the durable store. A save already in
// flight rejects the new attempt; the editor's edits stay local on failure.
func (w *Window) saveCard(card *uieditor.Card) {
	ed := card.Editor()
	if !ed.BeginSave() {
		ed.Notifier().Notify("Save already in progress", appeditor.SeverityInfo)
		return
	}

	snapshot := ed.Snapshot()
	s := w.cards[card]

	go func() {
		defer ed.FinishSave()

		// Replace the picked-file path with a durable library copy before
		// persisting, then swap the editor's reference to it.
		if snapshot.HasImage() {
			durable, err := imageio.CopyToLibrary(snapshot.ImageURL, w.imageDir())
			if err != nil {
				w.log.Warn().Err(err).Str("path", snapshot.ImageURL).Msg("image copy failed, saving original path")
			} else if durable != snapshot.ImageURL {
				snapshot.ImageURL = durable
				ed.SetImageURL(durable)
			}
		}

		ctx := context.Background()
		var err error
		if savedID := s.saved(); savedID == "" {
			var id string
			id, err = w.db.Save(ctx, w.cfg.AuthorID, snapshot)
			if err == nil && !ed.Closed() {
				s.setSaved(id)
			}
		} else {
			err = w.db.Update(ctx, savedID, snapshot)
		}

		// The card may have been removed while the save was running.
		if ed.Closed() {
			return
		}
		if err != nil {
			w.log.Error().Err(err).Msg("save failed")
			ed.ReportError(err)
			return
		}
		w.drafts.Discard(s.draftID)
		ed.Notifier().Notify("Saved", appeditor.SeveritySuccess)
	}()
}

// imageDir is where saved records' image files live.
func (w *Window) imageDir() string {
	return filepath.Join(w.cfg.DataDir, "images")
}

func (w *Window) confirmRemoveCard(card *uieditor.Card) {
	dialog.ShowConfirm("Remove card",
		"Remove this card and its saved record?",
		func(confirmed bool) {
			if !confirmed {
				return
			}
			w.removeCard(card)
		}, w.Window)
}

func (w *Window) removeCard(card *uieditor.Card) {
	s := w.cards[card]
	if s == nil {
		return
	}

	card.Editor().Close()
	if savedID := s.saved(); savedID != "" {
		if err := w.db.Delete(context.Background(), savedID); err != nil && !errors.Is(err, store.ErrNotFound) {
			w.log.Error().Err(err).Str("id", savedID).Msg("delete record failed")
		}
	}
	w.drafts.Discard(s.draftID)

	delete(w.cards, card)
	w.cardColumn.Remove(card)
	w.cardColumn.Refresh()
}

// restoreSaved loads the author's persisted records into cards.
func (w *Window) restoreSaved() {
	records, err := w.db.ListByAuthor(context.Background(), w.cfg.AuthorID)
	if err != nil {
		w.log.Error().Err(err).Msg("list records failed")
		return
	}
	for _, rec := range records {
		card := w.addCard()
		w.cards[card].setSaved(rec.ID)
		if err := card.ApplyRecord(rec.Record); err != nil {
			w.log.Warn().Err(err).Str("id", rec.ID).Msg("record restore failed")
		}
	}
}

// restoreDrafts reloads autosaved drafts that never reached the store.
func (w *Window) restoreDrafts() {
	slots, err := w.drafts.Slots()
	if err != nil {
		w.log.Warn().Err(err).Msg("list drafts failed")
		return
	}
	for _, id := range slots {
		rec, ok, err := w.drafts.Load(id)
		if err != nil || !ok {
			if err != nil {
				w.log.Warn().Err(err).Str("slot", id).Msg("draft load failed")
			}
			continue
		}
		card := w.addCard()
		// Reuse the original slot id so further autosaves overwrite it.
		w.drafts.Discard(w.cards[card].draftID)
		w.cards[card].draftID = id
		if err := card.ApplyRecord(rec); err != nil {
			continue
		}
		card.Editor().Notifier().Notify("Draft restored", appeditor.SeverityInfo)
	}
}
