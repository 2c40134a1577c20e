package pure

import (
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// correlate returns, for every offset (x, y) of p, the sum of the zero-mean
// template times the pixels under it, indexed like p.pix. Offsets where the
// template would cross the right or bottom border wrap around and are not
// meaningful.
func correlate(p *plane, t tmplStats) []float64 {
	w, h := p.w, p.h
	rows, cols := fourier.NewCmplxFFT(w), fourier.NewCmplxFFT(h)

	f := make([]complex128, w*h)
	for i, v := range p.pix {
		f[i] = complex(v, 0)
	}
	g := make([]complex128, w*h)
	for y := 0; y < t.h; y++ {
		for x := 0; x < t.w; x++ {
			g[y*w+x] = complex(t.zero[y*t.w+x], 0)
		}
	}

	fft2(f, w, h, rows, cols, false)
	fft2(g, w, h, rows, cols, false)
	for i := range f {
		f[i] *= cmplx.Conj(g[i])
	}
	fft2(f, w, h, rows, cols, true)

	// gonum transforms are unnormalised
	n := float64(w * h)
	out := make([]float64, w*h)
	for i, v := range f {
		out[i] = real(v) / n
	}
	return out
}

// fft2 transforms the row-major w x h grid d in place, rows then columns.
func fft2(d []complex128, w, h int, rows, cols *fourier.CmplxFFT, inverse bool) {
	line := make([]complex128, w)
	for y := 0; y < h; y++ {
		r := d[y*w : (y+1)*w]
		if inverse {
			rows.Sequence(line, r)
		} else {
			rows.Coefficients(line, r)
		}
		copy(r, line)
	}

	col := make([]complex128, h)
	out := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = d[y*w+x]
		}
		if inverse {
			cols.Sequence(out, col)
		} else {
			cols.Coefficients(out, col)
		}
		for y := 0; y < h; y++ {
			d[y*w+x] = out[y]
		}
	}
}
