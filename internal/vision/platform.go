package vision

import (
	"image"
	"log/slog"
)

// Shape is a platform silhouette reduced to its two extreme points.
type Shape struct {
	TopCenter image.Point
	RightMost image.Point
}

// Center approximates the platform's visual center from its silhouette.
func (s Shape) Center() image.Point {
	return image.Pt(s.TopCenter.X, s.RightMost.Y)
}

func (s Shape) Height() int { return s.RightMost.Y - s.TopCenter.Y }

// Scanner finds the target platform in an edge map above the piece.
type Scanner struct {
	Params Params
	Log    *slog.Logger
}

// FindPlatformCenter scans rows from the top keep-out band down to the piece,
// left to right, and returns the center of the first shape tall enough to be
// a platform.
func (s Scanner) FindPlatformCenter(e *Edges, piece image.Point, scale float64) (image.Point, bool) {
	p := s.Params
	keepL := max(0, piece.X-scaled(p.PieceKeepOutLeft, scale))
	keepR := min(piece.X+scaled(p.PieceKeepOutRight, scale), e.W)

	top := max(0, scaled(p.TopKeepOut, scale))
	bottom := min(piece.Y, e.H)
	for y := top; y < bottom; y++ {
		for x := 0; x < e.W; x++ {
			if !e.At(x, y) || (x >= keepL && x <= keepR) {
				continue
			}
			if shape, ok := s.ShapePoints(e, piece, x, y, scale); ok {
				return shape.Center(), true
			}
		}
	}
	return image.Point{}, false
}

// ShapePoints traces the shape seeded at edge pixel (sx, sy): the top run
// gives the top-center, then the right contour is followed downward until it
// turns back or runs vertical.
func (s Scanner) ShapePoints(e *Edges, piece image.Point, sx, sy int, scale float64) (Shape, bool) {
	p := s.Params

	runEnd := sx
	for x := sx; x < e.W && e.At(x, sy); x++ {
		runEnd = x
	}
	top := image.Pt((sx+runEnd)/2, sy)
	right := image.Pt(runEnd, sy)

	vertical := 0
	bottom := min(piece.Y, e.H)
	for y := sy + 1; y < bottom; y++ {
		nx := right.X
		for x := right.X; x < e.W; x++ {
			if e.At(x, y) && !e.At(x+1, y) {
				nx = x
				break
			}
		}
		if nx < right.X {
			break // corner: the contour turned back
		}
		if nx == right.X {
			vertical++
			if vertical >= p.VerticalRunLimit {
				break
			}
			continue
		}
		vertical = 0
		right = image.Pt(nx, y)
	}

	shape := Shape{TopCenter: top, RightMost: right}
	if shape.Height() < scaled(p.MinShapeHeight, scale) {
		if s.Log != nil {
			s.Log.Debug("ignored shape", "top", top.String(), "right", right.String())
		}
		return Shape{}, false
	}
	return shape, true
}
