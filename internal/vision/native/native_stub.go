//go:build !gocv

package native

import (
	"errors"
	"image"
	"log/slog"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

const Name = "native"

var ErrUnavailable = errors.New("native: opencv backend not compiled in")

func Available() bool { return false }

// Locator is never constructed without OpenCV; New always fails.
type Locator struct {
	params vision.Params
}

func New(vision.Params, *slog.Logger) (*Locator, error) {
	return nil, ErrUnavailable
}

func (l *Locator) Name() string { return Name }

func (l *Locator) Params() vision.Params { return l.params }

func (l *Locator) PrepareTemplate(image.Image, float64) (*vision.Template, error) {
	return nil, ErrUnavailable
}

func (l *Locator) FindPiece(image.Image, *vision.Template, float64) (image.Point, bool, error) {
	return image.Point{}, false, ErrUnavailable
}

func (l *Locator) FindPlatform(image.Image, image.Point, float64) (image.Point, bool, error) {
	return image.Point{}, false, ErrUnavailable
}
