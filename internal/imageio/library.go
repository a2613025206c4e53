package imageio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// CopyToLibrary copies a validated image file into the application's image
// library directory and returns the durable path. A file already inside the
// library is returned unchanged, so repeated saves do not pile up copies.
func CopyToLibrary(path, dir string) (string, error) {
	if filepath.Dir(filepath.Clean(path)) == filepath.Clean(dir) {
		return path, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", &ValidationError{Reason: ReadFailure, Detail: "Failed to read file, please retry"}
	}
	if err := Validate(path, info.Size()); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", &ValidationError{Reason: ReadFailure, Detail: "Failed to read file, please retry"}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(path)))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
