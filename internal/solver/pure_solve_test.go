package solver

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math/rand/v2"
	"testing"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
	"github.com/microdog/wechat-automated-jump-game/internal/vision/pure"
)

// pieceImage is a 40x60 block pattern inside a 5 px black ring, so its outline
// stays inside the piece keep-out columns once drawn on a black frame.
func pieceImage(seed uint64) *image.RGBA {
	r := rand.New(rand.NewPCG(seed, seed^0x5bd1))
	img := image.NewRGBA(image.Rect(0, 0, 40, 60))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	for y := 5; y < 55; y += 5 {
		for x := 5; x < 35; x += 5 {
			c := color.RGBA{uint8(r.IntN(256)), uint8(r.IntN(256)), uint8(r.IntN(256)), 255}
			draw.Draw(img, image.Rect(x, y, x+5, y+5), image.NewUniform(c), image.Point{}, draw.Src)
		}
	}
	return img
}

func fillDiamond(img *image.RGBA, cx, cy, radius int) {
	for dy := -radius; dy <= radius; dy++ {
		half := radius - max(dy, -dy)
		for dx := -half; dx <= half; dx++ {
			img.Set(cx+dx, cy+dy, color.White)
		}
	}
}

func abs(v int) int { return max(v, -v) }

func TestSolve_PureBackendEndToEnd(t *testing.T) {
	piece := pieceImage(9)
	before := bytes.Clone(piece.Pix)

	frame := image.NewRGBA(image.Rect(0, 0, 720, 1280))
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
	draw.Draw(frame, image.Rect(100, 950, 140, 1010), piece, image.Point{}, draw.Src)
	fillDiamond(frame, 500, 800, 60)

	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		t.Fatal(err)
	}

	tmpl := &PieceTemplate{Image: piece, ScreenWidth: 720, Fingerprint: 1}
	s := New(pure.New(vision.DefaultParams(), nil), tmpl)
	res, err := s.SolveBytes(context.Background(), buf.Bytes())
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	if !res.Found {
		t.Fatalf("result=%+v want found", res)
	}
	// template top-left (100,950) plus the (50,161) contact offset
	if res.Piece != image.Pt(150, 1111) {
		t.Fatalf("piece=%v want (150,1111)", res.Piece)
	}
	if abs(res.Platform.X-500) > 2 || abs(res.Platform.Y-800) > 2 {
		t.Fatalf("platform=%v want within 2px of (500,800)", res.Platform)
	}
	if want := Duration(Distance(res.Piece, res.Platform), 1, 720); res.DurationMs != want {
		t.Fatalf("duration=%d want %d", res.DurationMs, want)
	}
	// |(150,1111)-(500,800)| = 468.2 px, doubled for a 720 px template
	if res.DurationMs < 925 || res.DurationMs > 945 {
		t.Fatalf("duration=%d want about 936", res.DurationMs)
	}

	if !bytes.Equal(piece.Pix, before) {
		t.Fatal("solve modified the loaded piece template")
	}

	again, err := s.SolveBytes(context.Background(), buf.Bytes())
	if err != nil || again != res {
		t.Fatalf("second solve=%+v err=%v want %+v", again, err, res)
	}
}

type tunedLocator struct {
	*fakeLocator
	p vision.Params
}

func (l tunedLocator) Params() vision.Params { return l.p }

func TestFingerprint_CoversCalibration(t *testing.T) {
	tmpl := testTemplate(1440)
	tuned := vision.DefaultParams()
	tuned.MatchThreshold = 0.7

	a := New(tunedLocator{&fakeLocator{}, vision.DefaultParams()}, tmpl)
	b := New(tunedLocator{&fakeLocator{}, tuned}, tmpl)
	if a.Fingerprint() == b.Fingerprint() {
		t.Fatal("different calibration must change the fingerprint")
	}
	if a.Fingerprint() != New(&fakeLocator{}, tmpl).Fingerprint() {
		t.Fatal("fingerprint must be stable for the same template and calibration")
	}
}
