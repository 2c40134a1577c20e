package pure

import (
	"image"
	"image/draw"
)

// reflect101 maps i into [0, n) mirroring about the edge pixels without
// repeating them: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}

// boxBlur is a normalised k x k mean filter. The kernel is anchored at
// (k/2, k/2), so an even k covers k/2 pixels before the target and k/2-1
// after it. Borders are reflect-101. Results round to nearest.
func boxBlur(img image.Image, k int) *image.RGBA {
	src := toRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	if k <= 1 || w == 0 || h == 0 {
		draw.Draw(dst, dst.Bounds(), src, src.Rect.Min, draw.Src)
		return dst
	}
	a := k / 2

	// horizontal sums per channel
	rows := make([]int, w*h*4)
	for y := 0; y < h; y++ {
		line := src.Pix[y*src.Stride:]
		for x := 0; x < w; x++ {
			var s [4]int
			for j := 0; j < k; j++ {
				i := reflect101(x-a+j, w) * 4
				s[0] += int(line[i])
				s[1] += int(line[i+1])
				s[2] += int(line[i+2])
				s[3] += int(line[i+3])
			}
			o := (y*w + x) * 4
			copy(rows[o:o+4], s[:])
		}
	}

	area := k * k
	for y := 0; y < h; y++ {
		out := dst.Pix[y*dst.Stride:]
		for x := 0; x < w; x++ {
			var s [4]int
			for j := 0; j < k; j++ {
				o := (reflect101(y-a+j, h)*w + x) * 4
				s[0] += rows[o]
				s[1] += rows[o+1]
				s[2] += rows[o+2]
				s[3] += rows[o+3]
			}
			for c := 0; c < 4; c++ {
				out[x*4+c] = uint8((s[c] + area/2) / area)
			}
		}
	}
	return dst
}
