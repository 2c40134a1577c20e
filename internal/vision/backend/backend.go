// Package backend picks the locator implementation at startup.
package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/microdog/wechat-automated-jump-game/internal/vision"
	"github.com/microdog/wechat-automated-jump-game/internal/vision/native"
	"github.com/microdog/wechat-automated-jump-game/internal/vision/pure"
)

const Auto = "auto"

var ErrUnknownBackend = errors.New("unknown locator backend")

// Select returns the named locator. "auto" prefers OpenCV when the binary
// was built with it and falls back to the pure backend otherwise.
func Select(name string, p vision.Params, log *slog.Logger) (vision.Locator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", Auto:
		if native.Available() {
			if l, err := native.New(p, log); err == nil {
				return l, nil
			}
		}
		return pure.New(p, log), nil
	case pure.Name:
		return pure.New(p, log), nil
	case native.Name:
		l, err := native.New(p, log)
		if err != nil {
			return nil, fmt.Errorf("backend %q: %w", name, err)
		}
		return l, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
	}
}
