package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"seelayer/internal/layer"
	"seelayer/internal/mark"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "test.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord() layer.Record {
	return layer.Record{
		Title:    "board front",
		ImageURL: "/images/front.png",
		Marks: []mark.Mark{
			{ID: 1, X: 120.5, Y: 80.25},
			{ID: 3, X: 300, Y: 150},
		},
		TextStore: map[int]string{1: "solder bridge", 3: "missing cap, \"C12\""},
		UserScale: 2.5,
		TX:        40,
		TY:        -12.5,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := sampleRecord()
	id, err := s.Save(ctx, "clerk-12345", rec)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	saved, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.AuthorID != "clerk-12345" {
		t.Errorf("AuthorID = %q", saved.AuthorID)
	}
	got := saved.Record
	if got.Title != rec.Title || got.ImageURL != rec.ImageURL {
		t.Errorf("header = %q %q", got.Title, got.ImageURL)
	}
	if got.UserScale != rec.UserScale || got.TX != rec.TX || got.TY != rec.TY {
		t.Errorf("transform = %v %v %v", got.UserScale, got.TX, got.TY)
	}
	if len(got.Marks) != 2 || got.Marks[1].ID != 3 || got.Marks[0].Y != 80.25 {
		t.Errorf("marks = %+v", got.Marks)
	}
	if got.TextStore[3] != `missing cap, "C12"` {
		t.Errorf("note = %q", got.TextStore[3])
	}
	if saved.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestLoadNotFound(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(unknown) = %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "author", sampleRecord())
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := sampleRecord()
	rec.Title = "renamed"
	rec.Marks = rec.Marks[:1]
	if err := s.Update(ctx, id, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}

	saved, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if saved.Record.Title != "renamed" || len(saved.Record.Marks) != 1 {
		t.Errorf("updated record = %+v", saved.Record)
	}

	if err := s.Update(ctx, "missing", rec); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown) = %v, want ErrNotFound", err)
	}
}

func TestListByAuthorAndDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	idA1, _ := s.Save(ctx, "alice", sampleRecord())
	s.Save(ctx, "alice", sampleRecord())
	s.Save(ctx, "bob", sampleRecord())

	alice, err := s.ListByAuthor(ctx, "alice")
	if err != nil {
		t.Fatalf("ListByAuthor: %v", err)
	}
	if len(alice) != 2 {
		t.Fatalf("alice records = %d, want 2", len(alice))
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all records = %d, want 3", len(all))
	}

	if err := s.Delete(ctx, idA1); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load(ctx, idA1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load after delete = %v, want ErrNotFound", err)
	}
	if err := s.Delete(ctx, idA1); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete = %v, want ErrNotFound", err)
	}
}

func TestEmptyCollectionsSurviveRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Save(ctx, "author", layer.Record{Title: "blank slot"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved, err := s.Load(ctx, id)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(saved.Record.Marks) != 0 || len(saved.Record.TextStore) != 0 {
		t.Errorf("empty record came back with data: %+v", saved.Record)
	}
}
