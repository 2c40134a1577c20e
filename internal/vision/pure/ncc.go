package pure

import (
	"image"
	"math"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

// directWork bounds positions x template area for the direct scan; larger
// searches compute the numerator for every offset with one FFT correlation.
const directWork = 1 << 24

// tmplStats caches the zero-mean template and its energy.
type tmplStats struct {
	w, h int
	zero []float64
	norm float64
}

func newTmplStats(t *plane) tmplStats {
	var sum float64
	for _, v := range t.pix {
		sum += v
	}
	mean := sum / float64(len(t.pix))
	st := tmplStats{w: t.w, h: t.h, zero: make([]float64, len(t.pix))}
	for i, v := range t.pix {
		d := v - mean
		st.zero[i] = d
		st.norm += d * d
	}
	return st
}

// ncc normalises the correlation numerator num at (x, y). A flat window or
// template has no defined correlation and scores 0.
func ncc(ii *integral, t tmplStats, x, y int, num float64) float64 {
	n := float64(t.w * t.h)
	s, sq := ii.window(x, y, t.w, t.h)
	den := (sq - s*s/n) * t.norm
	if den <= 1e-9 {
		return 0
	}
	return max(-1, min(1, num/math.Sqrt(den)))
}

// score computes the numerator at (x, y) directly.
func score(img *plane, ii *integral, t tmplStats, x, y int) float64 {
	var num float64
	for ty := 0; ty < t.h; ty++ {
		row := img.pix[(y+ty)*img.w+x:]
		trow := t.zero[ty*t.w:]
		for tx := 0; tx < t.w; tx++ {
			num += trow[tx] * row[tx]
		}
	}
	return ncc(ii, t, x, y, num)
}

// bestIn returns the maximum over top-left positions inside region. Ties keep
// the first position in row-major order.
func bestIn(img *plane, ii *integral, t tmplStats, region image.Rectangle) vision.Match {
	region = region.Intersect(image.Rect(0, 0, img.w-t.w+1, img.h-t.h+1))
	best := vision.Match{Score: math.Inf(-1)}
	for y := region.Min.Y; y < region.Max.Y; y++ {
		for x := region.Min.X; x < region.Max.X; x++ {
			if s := score(img, ii, t, x, y); s > best.Score {
				best = vision.Match{Score: s, Loc: image.Pt(x, y)}
			}
		}
	}
	return best
}

// searchFFT is bestIn over every position, with numerators from correlate.
func searchFFT(img *plane, ii *integral, t tmplStats) vision.Match {
	num := correlate(img, t)
	best := vision.Match{Score: math.Inf(-1)}
	for y := 0; y <= img.h-t.h; y++ {
		for x := 0; x <= img.w-t.w; x++ {
			if s := ncc(ii, t, x, y, num[y*img.w+x]); s > best.Score {
				best = vision.Match{Score: s, Loc: image.Pt(x, y)}
			}
		}
	}
	return best
}

// matchTemplate finds the global correlation peak of tmpl over frame. A
// template larger than the frame yields a score of -1.
func matchTemplate(frame, tmpl *plane) vision.Match {
	if tmpl.w > frame.w || tmpl.h > frame.h || tmpl.w == 0 || tmpl.h == 0 {
		return vision.Match{Score: -1}
	}
	ii := newIntegral(frame)
	st := newTmplStats(tmpl)

	positions := (frame.w - tmpl.w + 1) * (frame.h - tmpl.h + 1)
	if positions*tmpl.w*tmpl.h <= directWork {
		return bestIn(frame, ii, st, image.Rect(0, 0, frame.w, frame.h))
	}
	return searchFFT(frame, ii, st)
}
