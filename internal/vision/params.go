// Package vision holds the detection steps shared by every locator backend:
// the piece confidence decision and the platform shape-boundary scan.
//
// Pixel constants are expressed at the template's reference resolution and
// multiplied by the frame's scale factor before use. They were tuned against
// one game's rendering, so they are calibration values rather than fixed truths.
package vision

import (
	"fmt"
	"image"

	"github.com/cespare/xxhash/v2"
)

type Params struct {
	// BlurSize is the box-blur kernel applied to frame and template before matching.
	BlurSize int
	// MatchThreshold is the minimum normalised correlation accepted as a piece.
	MatchThreshold float64
	// PieceOffset moves the template's top-left match to the piece's contact point.
	PieceOffset image.Point

	CannyLow  float64
	CannyHigh float64

	// TopKeepOut rows at the top of the frame (score and UI) are never scanned.
	TopKeepOut int
	// Columns [piece.X-PieceKeepOutLeft, piece.X+PieceKeepOutRight] are skipped
	// so the piece's own outline never seeds a shape.
	PieceKeepOutLeft  int
	PieceKeepOutRight int

	// VerticalRunLimit consecutive rows without rightward progress end a contour walk.
	VerticalRunLimit int
	// MinShapeHeight rejects short shapes such as the music-note markers drawn
	// on some platforms.
	MinShapeHeight int
}

func DefaultParams() Params {
	return Params{
		BlurSize:          4,
		MatchThreshold:    0.6,
		PieceOffset:       image.Pt(50, 161),
		CannyLow:          50,
		CannyHigh:         100,
		TopKeepOut:        705,
		PieceKeepOutLeft:  50,
		PieceKeepOutRight: 51,
		VerticalRunLimit:  4,
		MinShapeHeight:    20,
	}
}

// Fingerprint hashes every calibration value so results computed under
// different tuning never share a cache entry.
func (p Params) Fingerprint() uint64 {
	return xxhash.Sum64String(fmt.Sprintf("%+v", p))
}

// scaled truncates toward zero like the calibration it came from.
func scaled(v int, scale float64) int {
	return int(float64(v) * scale)
}
