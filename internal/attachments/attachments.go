// Package attachments loads and validates prototype images for the Test
// phase. Image lists are bounded and ordered; changes replace the whole
// list, matching how the orchestrator receives them.
package attachments

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/designsprint/internal/config"
	"github.com/fyrsmithlabs/designsprint/internal/gateway"
)

var (
	ErrTooManyFiles    = errors.New("too many images")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooLarge        = errors.New("image too large")
	ErrEmpty           = errors.New("image is empty")
)

// Allowed MIME types.
var allowed = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
}

// Image is one staged image.
type Image struct {
	Name     string
	MIMEType string
	Data     []byte
}

// Inline returns the image as an inline gateway part.
func (i Image) Inline() gateway.InlineData {
	return gateway.InlineData{MIMEType: i.MIMEType, Data: i.Data}
}

// Loader validates and reads images within configured bounds.
type Loader struct {
	maxFiles int
	maxBytes int64
}

// NewLoader returns a Loader bounded by cfg.
func NewLoader(cfg config.ImagesConfig) *Loader {
	return &Loader{maxFiles: cfg.MaxFiles, maxBytes: cfg.MaxBytes}
}

// MaxFiles is the most images a single list may hold.
func (l *Loader) MaxFiles() int { return l.maxFiles }

// Decode validates data as an allowed image. The MIME type is sniffed
// from content; the name is only used for display.
func (l *Loader) Decode(name string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%s: %w", name, ErrEmpty)
	}
	if l.maxBytes > 0 && int64(len(data)) > l.maxBytes {
		return Image{}, fmt.Errorf("%s: %w (%d bytes, limit %d)", name, ErrTooLarge, len(data), l.maxBytes)
	}
	mime := http.DetectContentType(data)
	if !allowed[mime] {
		return Image{}, fmt.Errorf("%s: %w: %s", name, ErrUnsupportedType, mime)
	}
	return Image{Name: name, MIMEType: mime, Data: data}, nil
}

// Read decodes one image from r, reading at most the size limit plus one
// byte so oversized input is detected without buffering all of it.
func (l *Loader) Read(name string, r io.Reader) (Image, error) {
	if l.maxBytes > 0 {
		r = io.LimitReader(r, l.maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return l.Decode(name, data)
}

// LoadFile reads and validates the image at path.
func (l *Loader) LoadFile(path string) (Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return l.Read(filepath.Base(path), f)
}

// LoadFiles loads paths as a complete replacement list. It fails without
// reading anything when there are more paths than the limit, and on the
// first invalid file otherwise.
func (l *Loader) LoadFiles(paths []string) ([]Image, error) {
	if err := l.checkCount(len(paths)); err != nil {
		return nil, err
	}
	images := make([]Image, 0, len(paths))
	for _, p := range paths {
		img, err := l.LoadFile(p)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

// Append returns current with extra added, as a new list.
func (l *Loader) Append(current []Image, extra ...Image) ([]Image, error) {
	if err := l.checkCount(len(current) + len(extra)); err != nil {
		return nil, err
	}
	out := make([]Image, 0, len(current)+len(extra))
	out = append(out, current...)
	return append(out, extra...), nil
}

func (l *Loader) checkCount(n int) error {
	if l.maxFiles > 0 && n > l.maxFiles {
		return fmt.Errorf("%w: %d (limit %d)", ErrTooManyFiles, n, l.maxFiles)
	}
	return nil
}

// InlineAll converts images to inline gateway parts, preserving order.
func InlineAll(images []Image) []gateway.InlineData {
	if len(images) == 0 {
		return nil
	}
	out := make([]gateway.InlineData, len(images))
	for i, img := range images {
		out[i] = img.Inline()
	}
	return out
}
