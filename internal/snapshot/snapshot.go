// Package snapshot writes annotated debug copies of solved frames.
package snapshot

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/corona10/goimagehash"
	"golang.org/x/image/draw"
)

var markColor = color.RGBA{B: 255, A: 255}

// crossArm is the half-length of the cross drawn around each mark.
const crossArm = 6

type Writer struct {
	dir    string
	now    func() time.Time
	dedupe bool

	mu       sync.Mutex
	last     *goimagehash.ImageHash
	lastMark []image.Point
}

type Option func(*Writer)

// WithDedupe skips a frame whose marks equal the last saved frame's and whose
// annotated image has the same perceptual hash, as when a driver resends a
// screen the game never advanced from.
func WithDedupe() Option {
	return func(w *Writer) { w.dedupe = true }
}

func New(dir string, opts ...Option) (*Writer, error) {
	if dir == "" {
		return nil, errors.New("snapshot: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: create dir: %w", err)
	}
	w := &Writer{dir: dir, now: time.Now}
	for _, o := range opts {
		o(w)
	}
	return w, nil
}

// Save copies img, marks every point and writes a PNG named after the
// current time in nanoseconds. A skipped duplicate returns an empty path.
func (w *Writer) Save(img image.Image, marks ...image.Point) (string, error) {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Copy(dst, image.Point{}, img, b, draw.Src, nil)
	for _, m := range marks {
		mark(dst, m)
	}

	if w.dedupe {
		hash, err := goimagehash.PerceptionHash(dst)
		if err != nil {
			return "", fmt.Errorf("snapshot: hash: %w", err)
		}
		if w.duplicate(hash, marks) {
			return "", nil
		}
	}

	path := filepath.Join(w.dir, strconv.FormatInt(w.now().UnixNano(), 10)+".png")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("snapshot: create: %w", err)
	}
	if err := png.Encode(f, dst); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("snapshot: encode: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("snapshot: close: %w", err)
	}
	return path, nil
}

func (w *Writer) duplicate(h *goimagehash.ImageHash, marks []image.Point) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last != nil && slices.Equal(w.lastMark, marks) {
		if d, err := w.last.Distance(h); err == nil && d == 0 {
			return true
		}
	}
	w.last = h
	w.lastMark = slices.Clone(marks)
	return false
}

func mark(dst *image.RGBA, p image.Point) {
	dst.Set(p.X, p.Y, markColor)
	for d := 2; d <= crossArm; d++ {
		dst.Set(p.X-d, p.Y, markColor)
		dst.Set(p.X+d, p.Y, markColor)
		dst.Set(p.X, p.Y-d, markColor)
		dst.Set(p.X, p.Y+d, markColor)
	}
}
