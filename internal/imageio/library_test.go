package imageio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyToLibrary(t *testing.T) {
	src := filepath.Join(t.TempDir(), "picked.PNG")
	writePNG(t, src, 8, 8)
	lib := filepath.Join(t.TempDir(), "images")

	dst, err := CopyToLibrary(src, lib)
	if err != nil {
		t.Fatalf("CopyToLibrary: %v", err)
	}
	if filepath.Dir(dst) != lib {
		t.Errorf("copy landed at %q, want inside %q", dst, lib)
	}
	if !strings.HasSuffix(dst, ".png") {
		t.Errorf("extension not kept lowercased: %q", dst)
	}

	srcData, _ := os.ReadFile(src)
	dstData, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(srcData) != string(dstData) {
		t.Error("copied bytes differ from the source")
	}

	// The original file stays where the user picked it.
	if _, err := os.Stat(src); err != nil {
		t.Errorf("source file gone: %v", err)
	}
}

func TestCopyToLibraryAlreadyInside(t *testing.T) {
	lib := t.TempDir()
	src := filepath.Join(lib, "stored.png")
	writePNG(t, src, 4, 4)

	dst, err := CopyToLibrary(src, lib)
	if err != nil {
		t.Fatalf("CopyToLibrary: %v", err)
	}
	if dst != src {
		t.Errorf("library file re-copied: %q", dst)
	}

	entries, _ := os.ReadDir(lib)
	if len(entries) != 1 {
		t.Errorf("library files = %d, want 1", len(entries))
	}
}

func TestCopyToLibraryRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "images")

	bad := filepath.Join(dir, "notes.txt")
	os.WriteFile(bad, []byte("hi"), 0o644)

	var verr *ValidationError
	if _, err := CopyToLibrary(bad, lib); !errors.As(err, &verr) || verr.Reason != UnsupportedFormat {
		t.Errorf("unsupported file: %v", err)
	}

	if _, err := CopyToLibrary(filepath.Join(dir, "missing.png"), lib); !errors.As(err, &verr) || verr.Reason != ReadFailure {
		t.Errorf("missing file: %v", err)
	}

	// Nothing was created for the rejected copies.
	if _, err := os.Stat(lib); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("library dir created for rejected input: %v", err)
	}
}
