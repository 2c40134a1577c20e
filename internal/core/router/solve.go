// Package router turns driver requests into solver calls.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/microdog/wechat-automated-jump-game/internal/core/observability"
	mylog "github.com/microdog/wechat-automated-jump-game/internal/logger"
	"github.com/microdog/wechat-automated-jump-game/internal/solveevents"
	"github.com/microdog/wechat-automated-jump-game/internal/solver"
)

const notFoundBody = "jump target not found"

// Solver computes a result from an encoded frame.
type Solver interface {
	SolveBytes(ctx context.Context, frame []byte) (solver.Result, error)
}

// EventSink receives one event per answered solve.
type EventSink interface {
	Publish(ev solveevents.Event)
}

type Deps struct {
	Logger   *slog.Logger
	Solver   Solver
	Events   EventSink
	Backend  string
	MaxBytes int64
	Jitter   *Jitter
}

type SolveRequest struct {
	Frame  []byte
	Jitter float64
	JSON   bool
}

var (
	errBodyTooLarge = errors.New("request body too large")
	errBadJitter    = errors.New("jitter must be a number in [0, 1)")
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type solveResponse struct {
	DurationMs    int     `json:"duration_ms"`
	RawDurationMs int     `json:"raw_duration_ms"`
	Piece         point   `json:"piece"`
	Platform      point   `json:"platform"`
	Scale         float64 `json:"scale"`
	Distance      float64 `json:"distance"`
}

// ParseJitter reads the optional jitter query value.
func ParseJitter(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	j, err := strconv.ParseFloat(raw, 64)
	if err != nil || !(j >= 0 && j < 1) {
		return 0, errBadJitter
	}
	return j, nil
}

// ParseSolveRequest validates query options and reads at most maxBytes of body.
func ParseSolveRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (SolveRequest, error) {
	j, err := ParseJitter(r.URL.Query().Get("jitter"))
	if err != nil {
		return SolveRequest{}, err
	}
	body := r.Body
	if maxBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return SolveRequest{}, errBodyTooLarge
		}
		return SolveRequest{}, fmt.Errorf("read body: %w", err)
	}
	return SolveRequest{
		Frame:  b,
		Jitter: j,
		JSON:   strings.Contains(r.Header.Get("Accept"), "application/json"),
	}, nil
}

// HandleSolve answers with the press duration in milliseconds as plain text,
// or as JSON when the client accepts it.
func HandleSolve(route string, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
		}()
		ctx := mylog.WithBackend(r.Context(), d.Backend)

		req, err := ParseSolveRequest(sw, r, d.MaxBytes)
		switch {
		case errors.Is(err, errBodyTooLarge):
			http.Error(sw, err.Error(), http.StatusRequestEntityTooLarge)
			return
		case err != nil:
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		}

		res, err := d.Solver.SolveBytes(ctx, req.Frame)
		switch {
		case errors.Is(err, solver.ErrInvalidInput):
			http.Error(sw, err.Error(), http.StatusBadRequest)
			return
		case err != nil:
			d.Logger.ErrorContext(ctx, "solve failed", "err", err)
			http.Error(sw, "internal server error", http.StatusInternalServerError)
			return
		}
		d.publish(ctx, res)

		if !res.Found {
			http.Error(sw, notFoundBody, http.StatusNotFound)
			return
		}

		dur := d.Jitter.Apply(res.DurationMs, req.Jitter)
		d.Logger.InfoContext(ctx, "solved", "duration_ms", dur, "raw_duration_ms", res.DurationMs)
		if req.JSON {
			sw.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(sw).Encode(solveResponse{
				DurationMs:    dur,
				RawDurationMs: res.DurationMs,
				Piece:         point{res.Piece.X, res.Piece.Y},
				Platform:      point{res.Platform.X, res.Platform.Y},
				Scale:         res.Scale,
				Distance:      res.Distance,
			})
			return
		}
		sw.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(sw, strconv.Itoa(dur))
	}
}

func (d Deps) publish(ctx context.Context, res solver.Result) {
	if d.Events == nil {
		return
	}
	ev := solveevents.Event{
		RequestID:  mylog.RequestID(ctx),
		Found:      res.Found,
		DurationMs: res.DurationMs,
		Scale:      res.Scale,
		Backend:    d.Backend,
	}
	if res.Found {
		pc, pf := res.Piece, res.Platform
		ev.Piece, ev.Platform = &pc, &pf
	}
	d.Events.Publish(ev)
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
