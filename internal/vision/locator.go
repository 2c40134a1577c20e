package vision

import "image"

// Template is the piece template resized to one frame scale and blurred once.
// It is shared between requests and must not be modified.
type Template struct {
	Scale float64
	Image *image.RGBA
}

// Locator finds the piece and the target platform in a decoded frame.
// Implementations differ in how they compute correlation and edges, never in
// their contracts.
type Locator interface {
	Name() string
	// Params returns the calibration the locator was built with.
	Params() Params
	// PrepareTemplate resizes src by scale (nearest neighbour) and blurs it.
	PrepareTemplate(src image.Image, scale float64) (*Template, error)
	// FindPiece returns the piece anchor, or false when the best correlation
	// is below the confidence threshold.
	FindPiece(frame image.Image, tmpl *Template, scale float64) (image.Point, bool, error)
	// FindPlatform returns the target platform center above piece, or false.
	FindPlatform(frame image.Image, piece image.Point, scale float64) (image.Point, bool, error)
}
