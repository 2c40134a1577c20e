package pure

import (
	"math"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

var (
	tan22 = math.Tan(22.5 * math.Pi / 180)
	tan67 = math.Tan(67.5 * math.Pi / 180)
)

// canny runs 3x3 Sobel, non-maximum suppression and hysteresis over p using
// L1 gradient magnitude. The outermost pixel ring is never an edge.
func canny(p *plane, low, high float64) *vision.Edges {
	w, h := p.w, p.h
	e := vision.NewEdges(w, h)
	if w < 3 || h < 3 {
		return e
	}

	gx := make([]float64, w*h)
	gy := make([]float64, w*h)
	mag := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			tl, t, tr := p.clampAt(x-1, y-1), p.clampAt(x, y-1), p.clampAt(x+1, y-1)
			l, r := p.clampAt(x-1, y), p.clampAt(x+1, y)
			bl, b, br := p.clampAt(x-1, y+1), p.clampAt(x, y+1), p.clampAt(x+1, y+1)
			dx := (tr + 2*r + br) - (tl + 2*l + bl)
			dy := (bl + 2*b + br) - (tl + 2*t + tr)
			i := y*w + x
			gx[i], gy[i] = dx, dy
			mag[i] = math.Abs(dx) + math.Abs(dy)
		}
	}

	const (
		none uint8 = iota
		weak
		strong
	)
	state := make([]uint8, w*h)
	var stack []int
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			i := y*w + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := math.Abs(gx[i]), math.Abs(gy[i])
			var n1, n2 float64
			switch {
			case ay < ax*tan22:
				n1, n2 = mag[i-1], mag[i+1]
			case ay > ax*tan67:
				n1, n2 = mag[i-w], mag[i+w]
			case gx[i]*gy[i] > 0:
				n1, n2 = mag[i-w-1], mag[i+w+1]
			default:
				n1, n2 = mag[i-w+1], mag[i+w-1]
			}
			if m <= n1 || m < n2 {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e.Pix[i] = true
		x, y := i%w, i/w
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 1 || ny < 1 || nx >= w-1 || ny >= h-1 {
					continue
				}
				j := ny*w + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}
	return e
}
