package pure

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

func noisePlane(w, h int, seed uint64) *plane {
	r := rand.New(rand.NewPCG(seed, seed+1))
	p := newPlane(w, h)
	for i := range p.pix {
		p.pix[i] = float64(r.IntN(256))
	}
	return p
}

func crop(p *plane, x, y, w, h int) *plane {
	out := newPlane(w, h)
	for ty := 0; ty < h; ty++ {
		copy(out.pix[ty*w:(ty+1)*w], p.pix[(y+ty)*p.w+x:])
	}
	return out
}

func TestMatchTemplate_ExactCrop(t *testing.T) {
	frame := noisePlane(160, 240, 7)
	m := matchTemplate(frame, crop(frame, 40, 60, 20, 30))
	if m.Loc != image.Pt(40, 60) {
		t.Fatalf("loc=%v want (40,60)", m.Loc)
	}
	if m.Score < 0.999 {
		t.Fatalf("score=%v want ~1", m.Score)
	}
}

func TestMatchTemplate_LargeTemplate(t *testing.T) {
	frame := noisePlane(200, 260, 11)
	// large enough to take the FFT path
	m := matchTemplate(frame, crop(frame, 40, 60, 60, 40))
	if m.Loc != image.Pt(40, 60) || m.Score < 0.999 {
		t.Fatalf("got %+v want (40,60) ~1", m)
	}
}

func TestMatchTemplate_FineDetailFoundGlobally(t *testing.T) {
	frame := noisePlane(200, 100, 5)
	stripes := newPlane(48, 8)
	for i := range stripes.pix {
		if (i%stripes.w)%2 == 0 {
			stripes.pix[i] = 255
		}
	}
	for y := 0; y < stripes.h; y++ {
		copy(frame.pix[(60+y)*frame.w+120:], stripes.pix[y*stripes.w:(y+1)*stripes.w])
	}

	m := matchTemplate(frame, stripes)
	if m.Loc != image.Pt(120, 60) || m.Score < 0.999 {
		t.Fatalf("got %+v want (120,60) ~1", m)
	}
	fft := searchFFT(frame, newIntegral(frame), newTmplStats(stripes))
	if fft.Loc != m.Loc || math.Abs(fft.Score-m.Score) > 1e-6 {
		t.Fatalf("fft %+v disagrees with direct %+v", fft, m)
	}
}

func TestSearchFFT_MatchesDirectScan(t *testing.T) {
	// odd sizes exercise the non power-of-two transforms
	frame := noisePlane(61, 47, 21)
	tmpl := crop(frame, 20, 15, 9, 7)
	ii, st := newIntegral(frame), newTmplStats(tmpl)

	direct := bestIn(frame, ii, st, image.Rect(0, 0, frame.w, frame.h))
	fft := searchFFT(frame, ii, st)
	if direct.Loc != image.Pt(20, 15) || fft.Loc != direct.Loc {
		t.Fatalf("direct=%+v fft=%+v want (20,15)", direct, fft)
	}
	num := correlate(frame, st)
	for _, pt := range []image.Point{{0, 0}, {3, 4}, {52, 40}} {
		want := score(frame, ii, st, pt.X, pt.Y)
		if got := ncc(ii, st, pt.X, pt.Y, num[pt.Y*frame.w+pt.X]); math.Abs(got-want) > 1e-9 {
			t.Fatalf("at %v fft score=%v direct=%v", pt, got, want)
		}
	}
}

func TestBoxBlur_FourWideSpread(t *testing.T) {
	row := image.NewRGBA(image.Rect(0, 0, 11, 1))
	draw.Draw(row, row.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	row.SetRGBA(5, 0, color.RGBA{R: 160, A: 255})

	out := boxBlur(row, 4)
	// anchor at k/2: pixel 5 reaches outputs 4..7
	want := []uint8{0, 0, 0, 0, 40, 40, 40, 40, 0, 0, 0}
	for x, w := range want {
		if got := out.RGBAAt(x, 0).R; got != w {
			t.Fatalf("x=%d R=%d want %d (row %v)", x, got, w, out.Pix)
		}
	}
	if out.RGBAAt(0, 0).A != 255 {
		t.Fatal("opaque input must stay opaque")
	}
}

func TestBoxBlur_ReflectBorder(t *testing.T) {
	row := image.NewRGBA(image.Rect(0, 0, 6, 1))
	row.SetRGBA(0, 0, color.RGBA{G: 160, A: 255})

	out := boxBlur(row, 4)
	// reflect-101 never repeats the edge pixel, so it is counted once
	want := []uint8{40, 40, 40, 0, 0, 0}
	for x, w := range want {
		if got := out.RGBAAt(x, 0).G; got != w {
			t.Fatalf("x=%d G=%d want %d", x, got, w)
		}
	}
}

func TestReflect101(t *testing.T) {
	cases := []struct{ i, n, want int }{
		{-1, 5, 1}, {-2, 5, 2}, {5, 5, 3}, {6, 5, 2}, {2, 5, 2}, {-3, 1, 0}, {-3, 2, 1},
	}
	for _, c := range cases {
		if got := reflect101(c.i, c.n); got != c.want {
			t.Errorf("reflect101(%d,%d)=%d want %d", c.i, c.n, got, c.want)
		}
	}
}

func TestMatchTemplate_FlatAndOversized(t *testing.T) {
	flat := newPlane(50, 50)
	m := matchTemplate(flat, noisePlane(10, 10, 3))
	if m.Score != 0 {
		t.Fatalf("flat frame score=%v want 0", m.Score)
	}
	m = matchTemplate(noisePlane(10, 10, 3), newPlane(20, 5))
	if m.Score != -1 {
		t.Fatalf("oversized template score=%v want -1", m.Score)
	}
}

func TestIntegral_Window(t *testing.T) {
	p := newPlane(3, 2)
	copy(p.pix, []float64{1, 2, 3, 4, 5, 6})
	s, sq := newIntegral(p).window(1, 0, 2, 2)
	if s != 16 || sq != 4+9+25+36 {
		t.Fatalf("sum=%v sq=%v", s, sq)
	}
}

func whiteSquare(w, h int, r image.Rectangle) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(img, r, image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}

func TestCanny_Square(t *testing.T) {
	img := whiteSquare(60, 60, image.Rect(20, 20, 40, 40))
	p := vision.DefaultParams()
	e := canny(lumaPlane(img), p.CannyLow, p.CannyHigh)

	if !e.At(19, 30) {
		t.Fatal("expected left edge on the dark side at x=19")
	}
	if e.At(20, 30) {
		t.Fatal("suppressed neighbour at x=20 must not be an edge")
	}
	if !e.At(30, 19) {
		t.Fatal("expected top edge at y=19")
	}
	if e.At(30, 30) || e.At(5, 5) {
		t.Fatal("flat regions must not be edges")
	}
}

func TestCanny_UniformHasNoEdges(t *testing.T) {
	img := whiteSquare(30, 30, image.Rectangle{})
	e := canny(lumaPlane(img), 50, 100)
	for _, v := range e.Pix {
		if v {
			t.Fatal("uniform frame produced an edge")
		}
	}
}

func blockFrame(w, h, block int, seed uint64) *image.RGBA {
	r := rand.New(rand.NewPCG(seed, seed^0x9e37))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for by := 0; by < h; by += block {
		for bx := 0; bx < w; bx += block {
			c := color.RGBA{uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256)), 255}
			draw.Draw(img, image.Rect(bx, by, bx+block, by+block), image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
	return img
}

func TestLocator_FindPiece(t *testing.T) {
	frame := blockFrame(160, 240, 5, 42)
	sub := frame.SubImage(image.Rect(40, 60, 60, 90))

	l := New(vision.DefaultParams(), nil)
	tmpl, err := l.PrepareTemplate(sub, 1)
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if b := tmpl.Image.Bounds(); b.Dx() != 20 || b.Dy() != 30 {
		t.Fatalf("template bounds=%v want 20x30", b)
	}
	pt, ok, err := l.FindPiece(frame, tmpl, 1)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if pt != image.Pt(90, 221) {
		t.Fatalf("piece=%v want (90,221)", pt)
	}
}

func TestLocator_PrepareTemplateScales(t *testing.T) {
	l := New(vision.DefaultParams(), nil)
	src := blockFrame(101, 40, 5, 1)
	tmpl, err := l.PrepareTemplate(src, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	// round(50.5)=51, round(20)=20
	if b := tmpl.Image.Bounds(); b.Dx() != 51 || b.Dy() != 20 {
		t.Fatalf("bounds=%v want 51x20", b)
	}
	tiny, err := l.PrepareTemplate(src, 0.001)
	if err != nil {
		t.Fatal(err)
	}
	if b := tiny.Image.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Fatalf("tiny bounds=%v want 1x1", b)
	}
	if _, err := l.PrepareTemplate(image.NewRGBA(image.Rectangle{}), 1); err == nil {
		t.Fatal("expected error for empty template")
	}
}

func TestLocator_UniformFrameNotFound(t *testing.T) {
	l := New(vision.DefaultParams(), nil)
	frame := whiteSquare(120, 200, image.Rectangle{})
	tmpl, err := l.PrepareTemplate(blockFrame(20, 30, 5, 3), 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok, err := l.FindPiece(frame, tmpl, 1); ok || err != nil {
		t.Fatalf("ok=%v err=%v want not found", ok, err)
	}
	if _, ok, _ := l.FindPlatform(frame, image.Pt(60, 190), 0.1); ok {
		t.Fatal("uniform frame must not yield a platform")
	}
}

func diamondFrame(w, h, cx, cy, radius int) *image.RGBA {
	img := whiteSquare(w, h, image.Rectangle{})
	for dy := -radius; dy <= radius; dy++ {
		half := radius - max(dy, -dy)
		for dx := -half; dx <= half; dx++ {
			img.Set(cx+dx, cy+dy, color.White)
		}
	}
	return img
}

func TestLocator_FindPlatformOnRenderedDiamond(t *testing.T) {
	l := New(vision.DefaultParams(), nil)
	frame := diamondFrame(200, 300, 100, 200, 40)

	// scale 0.2 puts the top keep-out at row 141 and the piece keep-out at ±10
	pt, ok, err := l.FindPlatform(frame, image.Pt(30, 290), 0.2)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if d := pt.Sub(image.Pt(100, 200)); max(d.X, -d.X) > 2 || max(d.Y, -d.Y) > 2 {
		t.Fatalf("center=%v want within 2px of (100,200)", pt)
	}
}
