// Command jumpsolve runs the solver over saved screenshots, for calibrating
// the detection constants without a device attached.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/microdog/wechat-automated-jump-game/internal/core/config"
	"github.com/microdog/wechat-automated-jump-game/internal/logger"
	"github.com/microdog/wechat-automated-jump-game/internal/snapshot"
	"github.com/microdog/wechat-automated-jump-game/internal/solver"
	"github.com/microdog/wechat-automated-jump-game/internal/vision"
	"github.com/microdog/wechat-automated-jump-game/internal/vision/backend"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.FromEnv()

	fs := flag.NewFlagSet("jumpsolve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&cfg.PieceTemplate, "piece-template", cfg.PieceTemplate, "piece template image")
	fs.IntVar(&cfg.TemplateScreenWidth, "piece-template-screen-width", cfg.TemplateScreenWidth, "screen width the template was captured on")
	fs.StringVar(&cfg.ResultsPath, "results-path", cfg.ResultsPath, "directory for annotated frames (empty disables)")
	fs.BoolVar(&cfg.ResultsDedupe, "results-dedupe", cfg.ResultsDedupe, "skip debug frames identical to the previous one")
	fs.StringVar(&cfg.Backend, "backend", cfg.Backend, "locator backend (auto, pure, native)")
	fs.StringVar(&cfg.LogLevel, "log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(stderr, "usage: jumpsolve [flags] screenshot...")
		return 2
	}

	zl := logger.Build(logger.Config{Level: cfg.LogLevel, Console: true, Component: "jumpsolve"}, stderr)
	log := logger.NewSlog(&zl)

	loc, err := backend.Select(cfg.Backend, vision.DefaultParams(), log)
	if err != nil {
		fmt.Fprintln(stderr, "jumpsolve:", err)
		return 1
	}
	tmpl, err := solver.LoadTemplate(cfg.PieceTemplate, cfg.TemplateScreenWidth)
	if err != nil {
		fmt.Fprintln(stderr, "jumpsolve:", err)
		return 1
	}
	opts := []solver.Option{solver.WithLogger(log)}
	if cfg.ResultsPath != "" {
		var sopts []snapshot.Option
		if cfg.ResultsDedupe {
			sopts = append(sopts, snapshot.WithDedupe())
		}
		w, err := snapshot.New(cfg.ResultsPath, sopts...)
		if err != nil {
			fmt.Fprintln(stderr, "jumpsolve:", err)
			return 1
		}
		opts = append(opts, solver.WithSnapshotter(w))
	}
	s := solver.New(loc, tmpl, opts...)
	defer s.Wait()

	code := 0
	ctx := context.Background()
	for _, path := range fs.Args() {
		res, err := solveFile(ctx, s, path)
		switch {
		case err != nil:
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			code = 1
		case !res.Found:
			fmt.Fprintf(stdout, "%s\tnot found\n", path)
		default:
			fmt.Fprintf(stdout, "%s\t%d\n", path, res.DurationMs)
		}
	}
	return code
}

func solveFile(ctx context.Context, s *solver.Solver, path string) (solver.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return solver.Result{}, err
	}
	defer f.Close()
	return s.SolveReader(ctx, f)
}
