package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"seelayer/internal/layer"
	"seelayer/internal/mark"
	"seelayer/internal/store"
)

func TestExportFileName(t *testing.T) {
	tests := []struct {
		author string
		want   string
	}{
		{"abcdef123456", "SL_abcdef.csv"},
		{"abc", "SL_abc.csv"},
		{"", "SL_.csv"},
	}
	for _, tt := range tests {
		if got := exportFileName(tt.author); got != tt.want {
			t.Errorf("exportFileName(%q) = %q, want %q", tt.author, got, tt.want)
		}
	}
}

func TestWriteAuthorCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []store.Saved{
		{
			ID:        "r1",
			AuthorID:  "clerk_abcdefghijklmno",
			CreatedAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
			Record: layer.Record{
				Title: "front side",
				Marks: []mark.Mark{
					{ID: 4, X: 120.5, Y: 80},
					{ID: 7, X: 300, Y: 150.25},
				},
				TextStore: map[int]string{4: "solder, \"bridge\"", 7: "ok"},
			},
		},
	}

	if err := writeAuthorCSV(path, "clerk_abcdefghijklmno", records); err != nil {
		t.Fatalf("writeAuthorCSV: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv back: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}

	header := rows[0]
	if len(header) != 12 {
		t.Fatalf("header columns = %d, want 12", len(header))
	}
	if header[0] != "author" || header[3] != "layer_date" || header[4] != "text1" || header[11] != "text8" {
		t.Errorf("header = %v", header)
	}

	row := rows[1]
	// Author is truncated to 11 characters.
	if row[0] != "clerk_abcde" {
		t.Errorf("author cell = %q", row[0])
	}
	if row[1] != "front side" || row[2] != "1" || row[3] != "2026-08-30" {
		t.Errorf("meta cells = %v", row[1:4])
	}

	// Text cells follow display order, carrying id, JSON note, and position.
	if row[4] != `"id": 4, "text": "solder, \"bridge\"", "x": 120.5, "y": 80` {
		t.Errorf("text1 = %q", row[4])
	}
	if row[5] != `"id": 7, "text": "ok", "x": 300, "y": 150.25` {
		t.Errorf("text2 = %q", row[5])
	}
	for i := 6; i < 12; i++ {
		if row[i] != "" {
			t.Errorf("text%d = %q, want empty", i-3, row[i])
		}
	}
}

func TestWriteAuthorCSVEmptyNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []store.Saved{{
		AuthorID:  "a",
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		Record: layer.Record{
			Marks: []mark.Mark{{ID: 1, X: 10, Y: 20}},
		},
	}}
	if err := writeAuthorCSV(path, "a", records); err != nil {
		t.Fatalf("writeAuthorCSV: %v", err)
	}

	f, _ := os.Open(path)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv back: %v", err)
	}
	// A mark with no note still exports with an empty JSON string.
	if rows[1][4] != `"id": 1, "text": "", "x": 10, "y": 20` {
		t.Errorf("text1 = %q", rows[1][4])
	}
}
