package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/microdog/wechat-automated-jump-game/internal/core/config"
	"github.com/microdog/wechat-automated-jump-game/internal/core/health"
	middleware "github.com/microdog/wechat-automated-jump-game/internal/core/middleware"
	"github.com/microdog/wechat-automated-jump-game/internal/core/router"
)

// NewHandler builds the routed HTTP handler. metrics may be nil.
func NewHandler(logger *slog.Logger, deps router.Deps, ready health.ReadinessReporter, metrics http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(ready))
	if metrics != nil {
		r.Method(http.MethodGet, "/metrics", metrics)
	}
	r.Post("/", router.HandleSolve("/", deps))
	r.Post("/solve", router.HandleSolve("/solve", deps))
	r.Get("/ws", router.HandleStream(deps))
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully. It returns
// only after every handler, hijacked websockets included, has finished or the
// shutdown timeout has passed.
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, handler http.Handler) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	var active sync.WaitGroup
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           track(handler, &active),
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	// Shutdown does not wait for hijacked connections; ending their request
	// contexts stops the stream handlers.
	srv.RegisterOnShutdown(cancelBase)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		cancelBase()
		wait(shutdownCtx, &active, logger)
		return nil
	case err := <-errCh:
		return err
	}
}

func track(next http.Handler, active *sync.WaitGroup) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		active.Add(1)
		defer active.Done()
		next.ServeHTTP(w, r)
	})
}

func wait(ctx context.Context, active *sync.WaitGroup, logger *slog.Logger) {
	done := make(chan struct{})
	go func() {
		active.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("handlers still running after shutdown timeout")
	}
}
