// Package solver turns one game screenshot into a press duration: it picks the
// template for the frame's scale, locates the piece and the next platform
// through a vision.Locator, and maps their distance to milliseconds.
package solver

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"
	"time"

	// frame formats accepted from drivers
	_ "image/jpeg"
	_ "image/png"

	"github.com/cespare/xxhash/v2"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/microdog/wechat-automated-jump-game/internal/core/observability"
	mylog "github.com/microdog/wechat-automated-jump-game/internal/logger"
	"github.com/microdog/wechat-automated-jump-game/internal/vision"
)

// Result is the outcome of one solve. Found=false is a normal answer, not an
// error; the other fields are then zero except Scale.
type Result struct {
	Found      bool        `json:"found"`
	DurationMs int         `json:"duration_ms"`
	Distance   float64     `json:"distance"`
	Scale      float64     `json:"scale"`
	Piece      image.Point `json:"piece"`
	Platform   image.Point `json:"platform"`
}

// Snapshotter persists an annotated copy of a frame.
type Snapshotter interface {
	Save(img image.Image, marks ...image.Point) (string, error)
}

type Option func(*Solver)

func WithLogger(l *slog.Logger) Option {
	return func(s *Solver) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSnapshotter enables debug image persistence.
func WithSnapshotter(sn Snapshotter) Option {
	return func(s *Solver) { s.snap = sn }
}

func WithCacheSize(n int) Option {
	return func(s *Solver) { s.cache = NewTemplateCache(n) }
}

type Solver struct {
	loc   vision.Locator
	tmpl  *PieceTemplate
	cache *TemplateCache
	log   *slog.Logger
	snap  Snapshotter

	wg sync.WaitGroup
}

func New(loc vision.Locator, tmpl *PieceTemplate, opts ...Option) *Solver {
	s := &Solver{
		loc:   loc,
		tmpl:  tmpl,
		cache: NewTemplateCache(DefaultCacheSize),
		log:   slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ready reports whether a template is loaded.
func (s *Solver) Ready() bool { return s.tmpl != nil && s.loc != nil }

func (s *Solver) Backend() string {
	if s.loc == nil {
		return ""
	}
	return s.loc.Name()
}

// Fingerprint identifies the loaded template together with the locator's
// calibration; 0 when no template is loaded.
func (s *Solver) Fingerprint() uint64 {
	if s.tmpl == nil {
		return 0
	}
	if s.loc == nil {
		return s.tmpl.Fingerprint
	}
	var b [16]byte
	binary.BigEndian.PutUint64(b[:8], s.tmpl.Fingerprint)
	binary.BigEndian.PutUint64(b[8:], s.loc.Params().Fingerprint())
	return xxhash.Sum64(b[:])
}

// Wait blocks until pending debug images are written.
func (s *Solver) Wait() { s.wg.Wait() }

func (s *Solver) SolveReader(ctx context.Context, r io.Reader) (Result, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read frame: %w", err)
	}
	return s.SolveBytes(ctx, b)
}

func (s *Solver) SolveBytes(ctx context.Context, b []byte) (Result, error) {
	if len(b) == 0 {
		observability.ObserveSolve("invalid_input", -1)
		return Result{}, ErrEmptyImage
	}
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		s.log.DebugContext(ctx, "frame decode failed", "err", err, "bytes", len(b))
		observability.ObserveSolve("invalid_input", -1)
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return s.Solve(ctx, img)
}

func (s *Solver) Solve(ctx context.Context, img image.Image) (Result, error) {
	start := time.Now()
	ctx = mylog.WithBackend(ctx, s.Backend())
	res, err := s.solve(ctx, img)
	outcome := "found"
	switch {
	case errors.Is(err, ErrInvalidInput):
		outcome = "invalid_input"
	case err != nil:
		outcome = "error"
	case !res.Found:
		outcome = "not_found"
	}
	observability.ObserveSolve(outcome, time.Since(start).Seconds())
	return res, err
}

func (s *Solver) solve(ctx context.Context, img image.Image) (Result, error) {
	if !s.Ready() {
		return Result{}, ErrTemplateNotLoaded
	}
	if img == nil || img.Bounds().Empty() {
		return Result{}, ErrInvalidImage
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	scale := float64(img.Bounds().Dx()) / float64(s.tmpl.ScreenWidth)
	res := Result{Scale: scale}

	tmpl, err := s.template(ctx, scale)
	if err != nil {
		return Result{}, err
	}

	piece, ok, err := s.loc.FindPiece(img, tmpl, scale)
	if err != nil {
		return Result{}, fmt.Errorf("find piece: %w", err)
	}
	if !ok {
		s.log.DebugContext(ctx, "piece not found", "scale", scale)
		return res, nil
	}
	s.log.DebugContext(ctx, "piece located", "x", piece.X, "y", piece.Y)

	platform, ok, err := s.loc.FindPlatform(img, piece, scale)
	if err != nil {
		return Result{}, fmt.Errorf("find platform: %w", err)
	}
	if !ok {
		s.log.DebugContext(ctx, "platform not found", "piece", piece.String())
		return res, nil
	}
	s.log.DebugContext(ctx, "platform located", "x", platform.X, "y", platform.Y)

	dist := Distance(piece, platform)
	res.Found = true
	res.Piece = piece
	res.Platform = platform
	res.Distance = dist
	res.DurationMs = Duration(dist, scale, s.tmpl.ScreenWidth)
	s.log.DebugContext(ctx, "duration computed", "distance", dist, "duration_ms", res.DurationMs)

	s.persist(ctx, img, piece, platform)
	return res, nil
}

// template returns the cached template for scale, building it on a miss.
// Racing builders for the same scale both store; the last one wins.
func (s *Solver) template(ctx context.Context, scale float64) (*vision.Template, error) {
	if t, ok := s.cache.Get(scale); ok {
		return t, nil
	}
	t, err := s.loc.PrepareTemplate(s.tmpl.Image, scale)
	if err != nil {
		return nil, fmt.Errorf("prepare template at scale %g: %w", scale, err)
	}
	s.cache.Put(scale, t)
	s.log.DebugContext(ctx, "template cached", "scale", scale)
	return t, nil
}

func (s *Solver) persist(ctx context.Context, img image.Image, piece, platform image.Point) {
	if s.snap == nil {
		return
	}
	// detach from request cancellation; keep its log fields
	lctx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		path, err := s.snap.Save(img, piece, platform)
		switch {
		case err != nil:
			observability.IncDebugImage("error")
			s.log.WarnContext(lctx, "debug image not saved", "err", err)
		case path == "":
			observability.IncDebugImage("skipped")
		default:
			observability.IncDebugImage("saved")
			s.log.DebugContext(lctx, "debug image saved", "path", path)
		}
	}()
}
