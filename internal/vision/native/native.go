//go:build gocv

// Package native is the OpenCV locator backend, built with -tags gocv.
package native

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"log/slog"
	"math"

	"gocv.io/x/gocv"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

const Name = "native"

var ErrUnavailable = errors.New("native: opencv backend not compiled in")

// Available reports whether the binary was built with OpenCV.
func Available() bool { return true }

type Locator struct {
	params vision.Params
	scan   vision.Scanner
}

func New(p vision.Params, log *slog.Logger) (*Locator, error) {
	return &Locator{params: p, scan: vision.Scanner{Params: p, Log: log}}, nil
}

func (l *Locator) Name() string { return Name }

func (l *Locator) Params() vision.Params { return l.params }

func (l *Locator) ksize() image.Point {
	return image.Pt(l.params.BlurSize, l.params.BlurSize)
}

func (l *Locator) PrepareTemplate(src image.Image, scale float64) (*vision.Template, error) {
	b := src.Bounds()
	if b.Empty() {
		return nil, errors.New("native: empty template")
	}
	mat, err := gocv.ImageToMatRGB(src)
	if err != nil {
		return nil, fmt.Errorf("native: template to mat: %w", err)
	}
	defer mat.Close()

	size := image.Pt(
		max(1, int(math.Round(float64(b.Dx())*scale))),
		max(1, int(math.Round(float64(b.Dy())*scale))),
	)
	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(mat, &resized, size, 0, 0, gocv.InterpolationNearestNeighbor)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.Blur(resized, &blurred, l.ksize())

	img, err := blurred.ToImage()
	if err != nil {
		return nil, fmt.Errorf("native: template to image: %w", err)
	}
	rgba := image.NewRGBA(image.Rect(0, 0, size.X, size.Y))
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	return &vision.Template{Scale: scale, Image: rgba}, nil
}

func (l *Locator) FindPiece(frame image.Image, tmpl *vision.Template, scale float64) (image.Point, bool, error) {
	if tmpl == nil || tmpl.Image == nil {
		return image.Point{}, false, errors.New("native: empty template")
	}
	fb := frame.Bounds()
	tb := tmpl.Image.Bounds()
	if tb.Dx() > fb.Dx() || tb.Dy() > fb.Dy() {
		return image.Point{}, false, nil
	}

	fm, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return image.Point{}, false, fmt.Errorf("native: frame to mat: %w", err)
	}
	defer fm.Close()
	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.Blur(fm, &blurred, l.ksize())

	tm, err := gocv.ImageToMatRGB(tmpl.Image)
	if err != nil {
		return image.Point{}, false, fmt.Errorf("native: template to mat: %w", err)
	}
	defer tm.Close()

	res := gocv.NewMat()
	defer res.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(blurred, tm, &res, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, maxLoc := gocv.MinMaxLoc(res)

	pt, ok := vision.PieceFromPeak(vision.Match{Score: float64(maxVal), Loc: maxLoc}, scale, l.params)
	return pt, ok, nil
}

func (l *Locator) FindPlatform(frame image.Image, piece image.Point, scale float64) (image.Point, bool, error) {
	fm, err := gocv.ImageToMatRGB(frame)
	if err != nil {
		return image.Point{}, false, fmt.Errorf("native: frame to mat: %w", err)
	}
	defer fm.Close()
	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(fm, &edges, float32(l.params.CannyLow), float32(l.params.CannyHigh))

	e := vision.EdgesFromBytes(edges.Cols(), edges.Rows(), edges.ToBytes())
	pt, ok := l.scan.FindPlatformCenter(e, piece, scale)
	return pt, ok, nil
}
