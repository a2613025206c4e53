// Package imageio validates and decodes user-selected image files for the
// editor viewport.
package imageio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp"
)

// MaxFileSize is the upload size limit.
const MaxFileSize = 10 << 20 // 10MB

// Reason classifies why a file was rejected.
type Reason int

const (
	UnsupportedFormat Reason = iota
	TooLarge
	ReadFailure
)

// ValidationError is a typed, user-recoverable rejection of a selected file.
type ValidationError struct {
	Reason Reason
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("imageio: %s", e.Detail)
}

// Message returns the user-facing text for the rejection.
func (e *ValidationError) Message() string {
	return e.Detail
}

// Image is a successfully validated and decoded upload.
type Image struct {
	Path   string
	Data   image.Image
	Width  int
	Height int
}

var supportedExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// SupportedFormats returns the accepted file extensions.
func SupportedFormats() []string {
	return []string{".png", ".jpg", ".jpeg", ".webp"}
}

// Validate checks the file type and size limits without decoding.
func Validate(path string, size int64) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExts[ext] {
		return &ValidationError{
			Reason: UnsupportedFormat,
			Detail: fmt.Sprintf("Unsupported image format: %s (use PNG / JPG / JPEG / WebP)", ext),
		}
	}
	if size > MaxFileSize {
		return &ValidationError{
			Reason: TooLarge,
			Detail: fmt.Sprintf("Image too large: %.2fMB (max 10MB)", float64(size)/1024/1024),
		}
	}
	return nil
}

// LoadFile validates and decodes an image file, yielding its natural pixel
// dimensions. All failures come back as *ValidationError so the caller can
// reset the input and show the message.
func LoadFile(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &ValidationError{Reason: ReadFailure, Detail: "Failed to read file, please retry"}
	}
	if err := Validate(path, info.Size()); err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, &ValidationError{Reason: ReadFailure, Detail: "Failed to read file, please retry"}
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, &ValidationError{Reason: ReadFailure, Detail: "Failed to decode image, please retry"}
	}

	bounds := img.Bounds()
	return &Image{
		Path:   path,
		Data:   img,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}, nil
}
