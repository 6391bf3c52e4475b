// Package screenshot saves rendered frames to image files.
package screenshot

import (
	"fmt"
	"image"
	"path/filepath"
	"time"

	"github.com/Faultbox/capsulemaker/internal/uvmap"
)

// Capture writes frames as <Dir>/<Prefix>_<timestamp>.<Format>.
type Capture struct {
	Dir    string
	Prefix string
	Format string // png, webp or tga

	now func() time.Time
}

// New creates a capture writing PNG files.
func New(dir, prefix string) *Capture {
	return &Capture{Dir: dir, Prefix: prefix, Format: uvmap.FormatPNG, now: time.Now}
}

// Filename returns the path the next capture is written to.
func (c *Capture) Filename() string {
	timestamp := c.now().Format("2006-01-02_15-04-05")
	return filepath.Join(c.Dir, fmt.Sprintf("%s_%s.%s", c.Prefix, timestamp, c.Format))
}

// FromPixels builds an image from bottom-up RGBA rows as returned by
// glReadPixels.
func FromPixels(pixels []byte, width, height int) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid frame size %dx%d", width, height)
	}
	if len(pixels) != width*height*4 {
		return nil, fmt.Errorf("pixel data size mismatch: expected %d, got %d", width*height*4, len(pixels))
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	rowSize := width * 4
	for y := 0; y < height; y++ {
		src := (height - 1 - y) * rowSize
		dst := y * img.Stride
		copy(img.Pix[dst:dst+rowSize], pixels[src:src+rowSize])
	}
	return img, nil
}

// Save writes bottom-up RGBA pixels and returns the file name.
func (c *Capture) Save(pixels []byte, width, height int) (string, error) {
	img, err := FromPixels(pixels, width, height)
	if err != nil {
		return "", err
	}

	filename := c.Filename()
	if err := uvmap.Save(filename, img, c.Format); err != nil {
		return "", fmt.Errorf("saving screenshot: %w", err)
	}
	return filename, nil
}
