package vision

import "image"

// Match is the global maximum of a correlation map.
type Match struct {
	Score float64
	Loc   image.Point
}

// PieceFromPeak turns a correlation peak into the piece's anchor point.
// A peak below the threshold means the piece is not reliably visible.
func PieceFromPeak(m Match, scale float64, p Params) (image.Point, bool) {
	if m.Score < p.MatchThreshold {
		return image.Point{}, false
	}
	return image.Pt(
		m.Loc.X+scaled(p.PieceOffset.X, scale),
		m.Loc.Y+scaled(p.PieceOffset.Y, scale),
	), true
}
