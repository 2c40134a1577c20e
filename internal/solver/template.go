package solver

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/cespare/xxhash/v2"
)

// PieceTemplate is the reference piece image and the screen width it was
// captured on. It is read-only once loaded.
type PieceTemplate struct {
	Image       image.Image
	ScreenWidth int
	// Fingerprint identifies image bytes plus screen width; it keys shared
	// result caches so a template change never serves stale results.
	Fingerprint uint64
}

func LoadTemplate(path string, screenWidth int) (*PieceTemplate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read piece template: %w", err)
	}
	return ParseTemplate(b, screenWidth)
}

func ParseTemplate(b []byte, screenWidth int) (*PieceTemplate, error) {
	if screenWidth <= 0 {
		return nil, errors.New("piece template screen width must be positive")
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decode piece template: %w", err)
	}
	if img.Bounds().Empty() {
		return nil, errors.New("piece template is empty")
	}

	d := xxhash.New()
	_, _ = d.Write(b)
	var w [8]byte
	binary.BigEndian.PutUint64(w[:], uint64(screenWidth))
	_, _ = d.Write(w[:])

	return &PieceTemplate{Image: img, ScreenWidth: screenWidth, Fingerprint: d.Sum64()}, nil
}
