package pure

import (
	"image"
	"image/color"
)

// plane is a single-channel float image, row-major.
type plane struct {
	w, h int
	pix  []float64
}

func newPlane(w, h int) *plane {
	return &plane{w: w, h: h, pix: make([]float64, w*h)}
}

func (p *plane) at(x, y int) float64 { return p.pix[y*p.w+x] }

// clampAt replicates border pixels for out of range coordinates.
func (p *plane) clampAt(x, y int) float64 {
	x = min(max(x, 0), p.w-1)
	y = min(max(y, 0), p.h-1)
	return p.pix[y*p.w+x]
}

func luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

// lumaPlane converts img to 8-bit range luminance. RGBA and NRGBA sources
// are read directly; anything else goes through its color model.
func lumaPlane(img image.Image) *plane {
	b := img.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.RGBA:
		for y := 0; y < p.h; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < p.w; x++ {
				i := x * 4
				p.pix[y*p.w+x] = luma(row[i], row[i+1], row[i+2])
			}
		}
	case *image.NRGBA:
		for y := 0; y < p.h; y++ {
			row := src.Pix[(y+b.Min.Y-src.Rect.Min.Y)*src.Stride+(b.Min.X-src.Rect.Min.X)*4:]
			for x := 0; x < p.w; x++ {
				i := x * 4
				p.pix[y*p.w+x] = luma(row[i], row[i+1], row[i+2])
			}
		}
	case *image.YCbCr:
		for y := 0; y < p.h; y++ {
			for x := 0; x < p.w; x++ {
				p.pix[y*p.w+x] = float64(src.Y[src.YOffset(x+b.Min.X, y+b.Min.Y)])
			}
		}
	default:
		for y := 0; y < p.h; y++ {
			for x := 0; x < p.w; x++ {
				c := color.RGBAModel.Convert(img.At(x+b.Min.X, y+b.Min.Y)).(color.RGBA)
				p.pix[y*p.w+x] = luma(c.R, c.G, c.B)
			}
		}
	}
	return p
}

// integral holds summed-area tables of values and squared values with a
// zero row and column in front.
type integral struct {
	w, h int
	s    []float64
	sq   []float64
}

func newIntegral(p *plane) *integral {
	w, h := p.w+1, p.h+1
	ii := &integral{w: w, h: h, s: make([]float64, w*h), sq: make([]float64, w*h)}
	for y := 1; y < h; y++ {
		var rs, rsq float64
		for x := 1; x < w; x++ {
			v := p.pix[(y-1)*p.w+x-1]
			rs += v
			rsq += v * v
			ii.s[y*w+x] = ii.s[(y-1)*w+x] + rs
			ii.sq[y*w+x] = ii.sq[(y-1)*w+x] + rsq
		}
	}
	return ii
}

// window returns the sum and sum of squares over the w x h window at (x, y).
func (ii *integral) window(x, y, w, h int) (float64, float64) {
	a, b := y*ii.w+x, y*ii.w+x+w
	c, d := (y+h)*ii.w+x, (y+h)*ii.w+x+w
	return ii.s[d] - ii.s[b] - ii.s[c] + ii.s[a],
		ii.sq[d] - ii.sq[b] - ii.sq[c] + ii.sq[a]
}
