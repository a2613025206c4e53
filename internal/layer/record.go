// Package layer defines the persisted shape of one composed image slot: the
// image reference, the placed marks with their notes, and the user transform.
package layer

import (
	"seelayer/internal/mark"
)

// Record is the payload exchanged with the persistence store. JSON field
// names match the layer_box row shape consumed by the export tooling.
type Record struct {
	Title     string         `json:"title"`
	ImageURL  string         `json:"image_url"`
	Marks     []mark.Mark    `json:"marks"`
	TextStore map[int]string `json:"text_store"`
	UserScale float64        `json:"user_scale"`
	TX        float64        `json:"tx"`
	TY        float64        `json:"ty"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Marks = make([]mark.Mark, len(r.Marks))
	copy(out.Marks, r.Marks)
	out.TextStore = make(map[int]string, len(r.TextStore))
	for id, text := range r.TextStore {
		out.TextStore[id] = text
	}
	return out
}

// HasImage reports whether the record references an uploaded image.
func (r Record) HasImage() bool {
	return r.ImageURL != ""
}

// NoteFor returns the note text for a mark id, or "" if none.
func (r Record) NoteFor(id int) string {
	return r.TextStore[id]
}
