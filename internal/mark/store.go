// Package mark holds the point annotations for one image slot: a bounded,
// ordered list of numbered marks with optional text notes.
package mark

import (
	"errors"
	"sort"
)

const (
	// Capacity is the maximum number of live marks per image session.
	Capacity = 8

	// clampMargin keeps a mark's hit-circle fully visible inside the
	// container.
	clampMargin = 10.0
)

var (
	// ErrCapacity is returned when adding a mark beyond Capacity.
	ErrCapacity = errors.New("mark: limit reached")

	// ErrNotFound is returned when an operation names a mark id that does
	// not exist.
	ErrNotFound = errors.New("mark: no such mark")
)

// Mark is a user-placed point annotation. Position is in container-local
// pixel coordinates with origin at the container's top-left corner.
type Mark struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Store owns up to Capacity marks and their text notes. Ids are assigned from
// a monotonic counter and are never reused within a session, even after
// deletion or image replacement, so a stale note can never attach to a new
// mark.
type Store struct {
	marks      []Mark
	notes      map[int]string
	selectedID int // 0 = no selection
	nextID     int

	containerW, containerH float64
}

// NewStore creates an empty store for a container of the given size.
func NewStore(containerW, containerH float64) *Store {
	return &Store{
		notes:      make(map[int]string),
		nextID:     1,
		containerW: containerW,
		containerH: containerH,
	}
}

// Add creates a mark at the given container position, clamped so its
// hit-circle stays visible. The new mark becomes the selection. Returns
// ErrCapacity when Capacity marks already exist.
func (s *Store) Add(x, y float64) (Mark, error) {
	if len(s.marks) >= Capacity {
		return Mark{}, ErrCapacity
	}

	m := Mark{
		ID: s.nextID,
		X:  s.clampX(x),
		Y:  s.clampY(y),
	}
	s.nextID++
	s.marks = append(s.marks, m)
	s.selectedID = m.ID
	return m, nil
}

// Select sets the selection to the given mark. No-op if the id is not
// present.
func (s *Store) Select(id int) {
	if _, ok := s.find(id); ok {
		s.selectedID = id
	}
}

// Selected returns the currently selected mark id, or false if none.
func (s *Store) Selected() (int, bool) {
	if s.selectedID == 0 {
		return 0, false
	}
	return s.selectedID, true
}

// ClearSelection removes the current selection.
func (s *Store) ClearSelection() {
	s.selectedID = 0
}

// Move repositions a mark, clamped to keep it visible. Display order and id
// are unchanged.
func (s *Store) Move(id int, x, y float64) error {
	i, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}
	s.marks[i].X = s.clampX(x)
	s.marks[i].Y = s.clampY(y)
	return nil
}

// Delete removes a mark and its note. Remaining marks keep their ids,
// positions, and notes; the id counter does not rewind. Clears the selection
// if the deleted mark held it.
func (s *Store) Delete(id int) error {
	i, ok := s.find(id)
	if !ok {
		return ErrNotFound
	}
	s.marks = append(s.marks[:i], s.marks[i+1:]...)
	delete(s.notes, id)
	if s.selectedID == id {
		s.selectedID = 0
	}
	return nil
}

// DisplayIndex returns the 1-based position of the mark in the current list
// order, used for on-screen numbering. Returns 0 if the id is not present.
func (s *Store) DisplayIndex(id int) int {
	if i, ok := s.find(id); ok {
		return i + 1
	}
	return 0
}

// Get returns the mark with the given id.
func (s *Store) Get(id int) (Mark, bool) {
	if i, ok := s.find(id); ok {
		return s.marks[i], true
	}
	return Mark{}, false
}

// Marks returns a copy of the mark list in display order.
func (s *Store) Marks() []Mark {
	out := make([]Mark, len(s.marks))
	copy(out, s.marks)
	return out
}

// Len returns the number of live marks.
func (s *Store) Len() int {
	return len(s.marks)
}

// HitTest returns the topmost mark whose hit-circle contains the point.
func (s *Store) HitTest(x, y float64, radius float64) (Mark, bool) {
	for i := len(s.marks) - 1; i >= 0; i-- {
		m := s.marks[i]
		dx := m.X - x
		dy := m.Y - y
		if dx*dx+dy*dy <= radius*radius {
			return m, true
		}
	}
	return Mark{}, false
}

// SetText attaches or replaces the note for a mark. Returns ErrNotFound for
// an unknown id.
func (s *Store) SetText(id int, text string) error {
	if _, ok := s.find(id); !ok {
		return ErrNotFound
	}
	s.notes[id] = text
	return nil
}

// Text returns the note for a mark, or "" if none was written.
func (s *Store) Text(id int) string {
	return s.notes[id]
}

// Notes returns a copy of the note map keyed by mark id.
func (s *Store) Notes() map[int]string {
	out := make(map[int]string, len(s.notes))
	for id, text := range s.notes {
		out[id] = text
	}
	return out
}

// ClearMarks removes all marks and the selection but keeps notes and the id
// counter. Used when the image is replaced: notes persist independently of
// image replacement.
func (s *Store) ClearMarks() {
	s.marks = nil
	s.selectedID = 0
}

// Reset removes marks, selection, and notes. The id counter is kept so ids
// remain unique across the whole session.
func (s *Store) Reset() {
	s.marks = nil
	s.notes = make(map[int]string)
	s.selectedID = 0
}

// RestoreState replaces the store contents from persisted data. The id
// counter continues past the highest restored id.
func (s *Store) RestoreState(marks []Mark, notes map[int]string) {
	s.marks = make([]Mark, 0, len(marks))
	s.notes = make(map[int]string, len(notes))
	s.selectedID = 0

	for _, m := range marks {
		if len(s.marks) >= Capacity {
			break
		}
		m.X = s.clampX(m.X)
		m.Y = s.clampY(m.Y)
		s.marks = append(s.marks, m)
		if m.ID >= s.nextID {
			s.nextID = m.ID + 1
		}
	}
	for id, text := range notes {
		s.notes[id] = text
	}

	// Keep restored marks in a stable order even if the persisted list
	// was shuffled.
	sort.SliceStable(s.marks, func(i, j int) bool {
		return s.marks[i].ID < s.marks[j].ID
	})
}

func (s *Store) find(id int) (int, bool) {
	for i, m := range s.marks {
		if m.ID == id {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) clampX(x float64) float64 {
	return clamp(x, clampMargin, s.containerW-clampMargin)
}

func (s *Store) clampY(y float64) float64 {
	return clamp(y, clampMargin, s.containerH-clampMargin)
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
