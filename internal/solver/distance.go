package solver

import (
	"image"

	"gonum.org/v1/gonum/floats"
)

// ReferenceWidth is the screen width the press-time calibration was made on.
const ReferenceWidth = 1440

// Distance is the Euclidean distance between two pixel positions.
func Distance(a, b image.Point) float64 {
	return floats.Distance(
		[]float64{float64(a.X), float64(a.Y)},
		[]float64{float64(b.X), float64(b.Y)},
		2,
	)
}

// Duration maps an on-screen distance to a press time in milliseconds,
// truncated toward zero.
func Duration(distance, scale float64, templateScreenWidth int) int {
	return int(distance / scale * ReferenceWidth / float64(templateScreenWidth))
}
