package solver

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput covers every caller-side problem with a frame.
	ErrInvalidInput = errors.New("invalid input")

	ErrEmptyImage   = fmt.Errorf("%w: missing image data", ErrInvalidInput)
	ErrInvalidImage = fmt.Errorf("%w: invalid image data", ErrInvalidInput)

	ErrTemplateNotLoaded = errors.New("piece template not loaded")
)
