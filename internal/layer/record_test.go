package layer

import (
	"encoding/json"
	"testing"

	"seelayer/internal/mark"
)

func TestRecordJSONFieldNames(t *testing.T) {
	rec := Record{
		Title:     "front",
		ImageURL:  "/img/front.png",
		Marks:     []mark.Mark{{ID: 1, X: 10, Y: 20}},
		TextStore: map[int]string{1: "note"},
		UserScale: 2,
		TX:        5,
		TY:        -5,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	for _, key := range []string{"title", "image_url", "marks", "text_store", "user_scale", "tx", "ty"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing field %q in %s", key, data)
		}
	}

	var back Record
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal round trip: %v", err)
	}
	if back.TextStore[1] != "note" || back.Marks[0].X != 10 {
		t.Errorf("round trip lost data: %+v", back)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	rec := Record{
		Marks:     []mark.Mark{{ID: 1, X: 10, Y: 20}},
		TextStore: map[int]string{1: "original"},
	}
	cp := rec.Clone()
	cp.Marks[0].X = 999
	cp.TextStore[1] = "changed"

	if rec.Marks[0].X != 10 {
		t.Error("Clone shares the mark slice")
	}
	if rec.TextStore[1] != "original" {
		t.Error("Clone shares the note map")
	}
}

func TestHasImageAndNoteFor(t *testing.T) {
	var empty Record
	if empty.HasImage() {
		t.Error("empty record claims an image")
	}
	if empty.NoteFor(1) != "" {
		t.Error("nil note map returned text")
	}

	rec := Record{ImageURL: "x.png", TextStore: map[int]string{2: "hi"}}
	if !rec.HasImage() {
		t.Error("record with url claims no image")
	}
	if rec.NoteFor(2) != "hi" {
		t.Errorf("NoteFor(2) = %q", rec.NoteFor(2))
	}
}
