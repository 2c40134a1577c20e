// Package pure is the locator backend that runs without OpenCV. Resizing runs
// on gift; blur, correlation and edge detection are computed in Go.
package pure

import (
	"errors"
	"image"
	"log/slog"
	"math"

	"github.com/disintegration/gift"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

const Name = "pure"

var errEmptyTemplate = errors.New("pure: empty template")

type Locator struct {
	params vision.Params
	scan   vision.Scanner
}

func New(p vision.Params, log *slog.Logger) *Locator {
	return &Locator{params: p, scan: vision.Scanner{Params: p, Log: log}}
}

func (l *Locator) Name() string { return Name }

func (l *Locator) Params() vision.Params { return l.params }

func (l *Locator) PrepareTemplate(src image.Image, scale float64) (*vision.Template, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, errEmptyTemplate
	}
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))

	g := gift.New(gift.Resize(w, h, gift.NearestNeighborResampling))
	resized := image.NewRGBA(g.Bounds(b))
	g.Draw(resized, src)
	return &vision.Template{Scale: scale, Image: boxBlur(resized, l.params.BlurSize)}, nil
}

func (l *Locator) FindPiece(frame image.Image, tmpl *vision.Template, scale float64) (image.Point, bool, error) {
	if tmpl == nil || tmpl.Image == nil {
		return image.Point{}, false, errEmptyTemplate
	}
	blurred := boxBlur(frame, l.params.BlurSize)
	m := matchTemplate(lumaPlane(blurred), lumaPlane(tmpl.Image))
	pt, ok := vision.PieceFromPeak(m, scale, l.params)
	return pt, ok, nil
}

func (l *Locator) FindPlatform(frame image.Image, piece image.Point, scale float64) (image.Point, bool, error) {
	e := canny(lumaPlane(frame), l.params.CannyLow, l.params.CannyHigh)
	pt, ok := l.scan.FindPlatformCenter(e, piece, scale)
	return pt, ok, nil
}
