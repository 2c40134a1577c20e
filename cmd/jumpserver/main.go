package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/microdog/wechat-automated-jump-game/internal/cache/redisstore"
	"github.com/microdog/wechat-automated-jump-game/internal/core/config"
	"github.com/microdog/wechat-automated-jump-game/internal/core/observability"
	"github.com/microdog/wechat-automated-jump-game/internal/core/router"
	"github.com/microdog/wechat-automated-jump-game/internal/core/server"
	"github.com/microdog/wechat-automated-jump-game/internal/logger"
	"github.com/microdog/wechat-automated-jump-game/internal/metrics"
	"github.com/microdog/wechat-automated-jump-game/internal/results"
	"github.com/microdog/wechat-automated-jump-game/internal/snapshot"
	"github.com/microdog/wechat-automated-jump-game/internal/solveevents"
	"github.com/microdog/wechat-automated-jump-game/internal/solver"
	"github.com/microdog/wechat-automated-jump-game/internal/vision"
	"github.com/microdog/wechat-automated-jump-game/internal/vision/backend"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.FromEnv()

	// flags override env
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.StringVar(&cfg.PieceTemplate, "piece-template", cfg.PieceTemplate, "piece template image")
	flag.IntVar(&cfg.TemplateScreenWidth, "piece-template-screen-width", cfg.TemplateScreenWidth, "screen width the template was captured on")
	flag.IntVar(&cfg.TemplateCacheSize, "piece-template-cache-size", cfg.TemplateCacheSize, "number of scaled templates kept")
	flag.StringVar(&cfg.ResultsPath, "results-path", cfg.ResultsPath, "directory for annotated debug frames (empty disables)")
	flag.BoolVar(&cfg.ResultsDedupe, "results-dedupe", cfg.ResultsDedupe, "skip debug frames identical to the previous one")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "locator backend (auto, pure, native)")
	flag.Parse()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   cfg.LogConsole,
		SampleN:   cfg.LogSampleN,
		Component: "jumpserver",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	if err := cfg.Validate(); err != nil {
		appLog.Error("invalid configuration", "err", err)
		return 1
	}

	loc, err := backend.Select(cfg.Backend, vision.DefaultParams(), appLog)
	if err != nil {
		appLog.Error("locator backend setup failed", "err", err)
		return 1
	}
	observability.SetBackend(loc.Name())

	tmpl, err := solver.LoadTemplate(cfg.PieceTemplate, cfg.TemplateScreenWidth)
	if err != nil {
		appLog.Error("failed to load piece template", "path", cfg.PieceTemplate, "err", err)
		return 1
	}

	opts := []solver.Option{
		solver.WithLogger(appLog),
		solver.WithCacheSize(cfg.TemplateCacheSize),
	}
	if cfg.ResultsPath != "" {
		var sopts []snapshot.Option
		if cfg.ResultsDedupe {
			sopts = append(sopts, snapshot.WithDedupe())
		}
		w, err := snapshot.New(cfg.ResultsPath, sopts...)
		if err != nil {
			appLog.Error("debug image directory unusable", "path", cfg.ResultsPath, "err", err)
			return 1
		}
		opts = append(opts, solver.WithSnapshotter(w))
	}
	s := solver.New(loc, tmpl, opts...)
	defer s.Wait()

	appLog.Info("starting jumpserver",
		"addr", cfg.Addr,
		"version", Version,
		"backend", loc.Name(),
		"template", cfg.PieceTemplate,
		"template_screen_width", cfg.TemplateScreenWidth,
		"results_path", cfg.ResultsPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := router.Deps{
		Logger:   appLog,
		Solver:   s,
		Backend:  loc.Name(),
		MaxBytes: cfg.MaxImageBytes,
		Jitter:   router.NewJitter(uint64(time.Now().UnixNano()), uint64(os.Getpid())),
	}

	if cfg.ResultStore.Addr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		rc, err := redisstore.New(pingCtx, cfg.ResultStore.Addr,
			redisstore.WithReadTimeout(cfg.ResultStore.OpTimeout),
			redisstore.WithWriteTimeout(cfg.ResultStore.OpTimeout))
		cancel()
		if err != nil {
			// the store is an optimisation; serve without it
			appLog.Warn("result store unavailable", "addr", cfg.ResultStore.Addr, "err", err)
		} else {
			defer func() { _ = rc.Close() }()
			deps.Solver = results.New(s, rc, cfg.ResultStore.TTL, cfg.ResultStore.OpTimeout, appLog)
			appLog.Info("result store enabled", "addr", cfg.ResultStore.Addr, "ttl", cfg.ResultStore.TTL)
		}
	}

	if cfg.SolveEvents.Enabled {
		pub, err := solveevents.NewPublisher(cfg.SolveEvents.Brokers, cfg.SolveEvents.Topic, cfg.SolveEvents.QueueSize, appLog)
		if err != nil {
			appLog.Error("solve events setup failed", "err", err)
			return 1
		}
		defer func() {
			if err := pub.Close(); err != nil {
				appLog.Warn("solve events close", "err", err)
			}
		}()
		deps.Events = pub
	}

	p := metrics.Init(metrics.Config{
		Enabled: cfg.MetricsEnabled,
		Build: metrics.BuildInfo{
			Version:   Version,
			Revision:  os.Getenv("BUILD_REVISION"),
			Branch:    os.Getenv("BUILD_BRANCH"),
			BuildDate: os.Getenv("BUILD_DATE"),
		},
	})

	handler := server.NewHandler(appLog, deps, s, p.Handler())
	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
