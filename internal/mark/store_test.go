package mark

import (
	"errors"
	"testing"
)

func TestAddAssignsMonotonicIDs(t *testing.T) {
	s := NewStore(500, 300)

	a, err := s.Add(100, 100)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	b, _ := s.Add(200, 100)
	if a.ID != 1 || b.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", a.ID, b.ID)
	}

	// Deleting never frees an id for reuse.
	if err := s.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	c, _ := s.Add(300, 100)
	if c.ID != 3 {
		t.Errorf("id after delete = %d, want 3", c.ID)
	}
}

func TestCapacityLimit(t *testing.T) {
	s := NewStore(500, 300)
	for i := 0; i < Capacity; i++ {
		if _, err := s.Add(float64(20+i*30), 100); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	_, err := s.Add(400, 200)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("9th Add: got %v, want ErrCapacity", err)
	}
	if s.Len() != Capacity {
		t.Errorf("Len() = %d after rejected add, want %d", s.Len(), Capacity)
	}

	// Delete one, and adding works again with a fresh id.
	marks := s.Marks()
	if err := s.Delete(marks[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	m, err := s.Add(400, 200)
	if err != nil {
		t.Fatalf("Add after delete: %v", err)
	}
	if m.ID != Capacity+1 {
		t.Errorf("new id = %d, want %d", m.ID, Capacity+1)
	}
}

func TestDeleteKeepsOtherMarksIntact(t *testing.T) {
	s := NewStore(500, 300)
	var ids []int
	for i := 0; i < 4; i++ {
		m, _ := s.Add(float64(50+i*50), 150)
		s.SetText(m.ID, "note")
		ids = append(ids, m.ID)
	}

	if err := s.Delete(ids[1]); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	for _, id := range []int{ids[0], ids[2], ids[3]} {
		m, ok := s.Get(id)
		if !ok {
			t.Fatalf("mark %d gone after unrelated delete", id)
		}
		if s.Text(m.ID) != "note" {
			t.Errorf("note for %d lost after unrelated delete", id)
		}
	}
	if _, ok := s.Get(ids[1]); ok {
		t.Error("deleted mark still present")
	}
	if s.Text(ids[1]) != "" {
		t.Error("deleted mark's note still present")
	}
}

func TestDisplayIndexDiffersFromID(t *testing.T) {
	s := NewStore(500, 300)
	a, _ := s.Add(50, 50)
	b, _ := s.Add(100, 50)
	c, _ := s.Add(150, 50)

	s.Delete(a.ID)

	// b and c shift down a display position but keep their ids.
	if got := s.DisplayIndex(b.ID); got != 1 {
		t.Errorf("DisplayIndex(%d) = %d, want 1", b.ID, got)
	}
	if got := s.DisplayIndex(c.ID); got != 2 {
		t.Errorf("DisplayIndex(%d) = %d, want 2", c.ID, got)
	}
	if got := s.DisplayIndex(a.ID); got != 0 {
		t.Errorf("DisplayIndex(deleted) = %d, want 0", got)
	}
}

func TestPositionClamping(t *testing.T) {
	s := NewStore(500, 300)
	tests := []struct {
		name         string
		x, y         float64
		wantX, wantY float64
	}{
		{"inside untouched", 250, 150, 250, 150},
		{"past left top", -40, -5, clampMargin, clampMargin},
		{"past right bottom", 600, 900, 500 - clampMargin, 300 - clampMargin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := s.Add(tt.x, tt.y)
			if err != nil {
				t.Fatalf("Add: %v", err)
			}
			if m.X != tt.wantX || m.Y != tt.wantY {
				t.Errorf("clamped to (%v, %v), want (%v, %v)", m.X, m.Y, tt.wantX, tt.wantY)
			}
		})
	}
}

func TestMoveClampsAndKeepsOrder(t *testing.T) {
	s := NewStore(500, 300)
	a, _ := s.Add(100, 100)
	b, _ := s.Add(200, 100)

	if err := s.Move(a.ID, -50, 400); err != nil {
		t.Fatalf("Move: %v", err)
	}
	moved, _ := s.Get(a.ID)
	if moved.X != clampMargin || moved.Y != 300-clampMargin {
		t.Errorf("moved to (%v, %v), want clamped", moved.X, moved.Y)
	}
	if s.DisplayIndex(a.ID) != 1 || s.DisplayIndex(b.ID) != 2 {
		t.Error("display order changed by Move")
	}

	if err := s.Move(999, 10, 10); !errors.Is(err, ErrNotFound) {
		t.Errorf("Move(unknown) = %v, want ErrNotFound", err)
	}
}

func TestHitTestReturnsTopmost(t *testing.T) {
	s := NewStore(500, 300)
	s.Add(100, 100)
	top, _ := s.Add(104, 102)

	m, ok := s.HitTest(101, 101, 12)
	if !ok {
		t.Fatal("HitTest missed overlapping marks")
	}
	if m.ID != top.ID {
		t.Errorf("HitTest id = %d, want topmost %d", m.ID, top.ID)
	}

	if _, ok := s.HitTest(400, 250, 12); ok {
		t.Error("HitTest hit empty space")
	}
}

func TestSelection(t *testing.T) {
	s := NewStore(500, 300)
	a, _ := s.Add(100, 100)
	b, _ := s.Add(200, 100)

	// The newest mark holds the selection.
	if id, ok := s.Selected(); !ok || id != b.ID {
		t.Errorf("Selected() = %d, %v, want %d", id, ok, b.ID)
	}

	s.Select(999) // unknown id: selection unchanged
	if id, _ := s.Selected(); id != b.ID {
		t.Errorf("selection moved on unknown id: %d", id)
	}

	s.Select(a.ID)
	s.Delete(a.ID)
	if _, ok := s.Selected(); ok {
		t.Error("selection survived deleting the selected mark")
	}
}

func TestClearMarksKeepsNotesAndCounter(t *testing.T) {
	s := NewStore(500, 300)
	a, _ := s.Add(100, 100)
	s.SetText(a.ID, "kept")

	s.ClearMarks()
	if s.Len() != 0 {
		t.Fatalf("Len() = %d after ClearMarks", s.Len())
	}
	if s.Text(a.ID) != "kept" {
		t.Error("note dropped by ClearMarks")
	}

	m, _ := s.Add(150, 150)
	if m.ID != a.ID+1 {
		t.Errorf("id after ClearMarks = %d, want %d", m.ID, a.ID+1)
	}
	// The old note belongs to the old id, not the new mark.
	if s.Text(m.ID) != "" {
		t.Error("stale note attached to new mark")
	}
}

func TestResetDropsNotesButNotCounter(t *testing.T) {
	s := NewStore(500, 300)
	a, _ := s.Add(100, 100)
	s.SetText(a.ID, "gone")

	s.Reset()
	if s.Text(a.ID) != "" {
		t.Error("note survived Reset")
	}
	m, _ := s.Add(150, 150)
	if m.ID != a.ID+1 {
		t.Errorf("id after Reset = %d, want %d", m.ID, a.ID+1)
	}
}

func TestRestoreState(t *testing.T) {
	s := NewStore(500, 300)
	s.RestoreState([]Mark{
		{ID: 7, X: 100, Y: 100},
		{ID: 3, X: 9000, Y: -50},
	}, map[int]string{7: "seven", 3: "three"})

	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	// Restored marks are ordered by id, positions clamped.
	marks := s.Marks()
	if marks[0].ID != 3 || marks[1].ID != 7 {
		t.Errorf("order = %d, %d, want 3, 7", marks[0].ID, marks[1].ID)
	}
	if marks[0].X != 500-clampMargin || marks[0].Y != clampMargin {
		t.Errorf("restored position not clamped: (%v, %v)", marks[0].X, marks[0].Y)
	}
	if s.Text(7) != "seven" {
		t.Error("restored note missing")
	}

	// The counter continues past the highest restored id.
	m, _ := s.Add(200, 200)
	if m.ID != 8 {
		t.Errorf("id after restore = %d, want 8", m.ID)
	}
}
