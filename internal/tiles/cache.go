// Package tiles adapts the external base-map provider: it expands tile URL
// templates, prefetches tiles around the map center into a local webp cache
// and serves them back.
package tiles

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/woozymasta/safetymap/internal/geo"
)

// Cache is a directory of webp tiles laid out as {z}/{x}/{y}.webp.
type Cache struct {
	Dir string
}

// Path returns the file path of tile t.
func (c Cache) Path(t geo.Tile) string {
	return filepath.Join(
		c.Dir,
		strconv.Itoa(t.Z),
		strconv.Itoa(t.X),
		strconv.Itoa(t.Y)+".webp",
	)
}

// Has reports whether a non-empty cached copy of t exists.
func (c Cache) Has(t geo.Tile) bool {
	info, err := os.Stat(c.Path(t))
	return err == nil && !info.IsDir() && info.Size() > 0
}

// Read returns the cached bytes of t.
func (c Cache) Read(t geo.Tile) ([]byte, error) {
	return os.ReadFile(c.Path(t))
}

// Store encodes img as webp and writes it to the cache.
func (c Cache) Store(t geo.Tile, img image.Image) error {
	outPath := c.Path(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return err
	}

	outFile, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = outFile.Close() }()

	return webp.Encode(outFile, img, &webp.Options{Lossless: false, Quality: 80})
}

// ParseTile parses z, x and y path segments; y may carry an image extension.
func ParseTile(z, x, y string) (geo.Tile, error) {
	if ext := filepath.Ext(y); ext != "" {
		y = strings.TrimSuffix(y, ext)
	}

	zi, err1 := strconv.Atoi(z)
	xi, err2 := strconv.Atoi(x)
	yi, err3 := strconv.Atoi(y)
	if err1 != nil || err2 != nil || err3 != nil {
		return geo.Tile{}, fmt.Errorf("invalid tile %s/%s/%s", z, x, y)
	}

	if zi < 0 || zi > 30 {
		return geo.Tile{}, fmt.Errorf("zoom %d out of range", zi)
	}
	size := 1 << zi
	if xi < 0 || yi < 0 || xi >= size || yi >= size {
		return geo.Tile{}, fmt.Errorf("tile %d/%d/%d out of range", zi, xi, yi)
	}

	return geo.Tile{Z: zi, X: xi, Y: yi}, nil
}

// TransparentTile returns an empty square webp tile used when no cached
// copy exists.
func TransparentTile(size int) ([]byte, error) {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Lossless: true}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
