package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/pthm-cable/ember/config"
	"github.com/pthm-cable/ember/control"
	"github.com/pthm-cable/ember/driver"
	"github.com/pthm-cable/ember/pipeline"
	"github.com/pthm-cable/ember/renderer"
	"github.com/pthm-cable/ember/settings"
	"github.com/pthm-cable/ember/shaders"
	"github.com/pthm-cable/ember/surface"
	"github.com/pthm-cable/ember/telemetry"
	"github.com/pthm-cable/ember/window"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	listen := flag.String("listen", "", "HTTP control address, e.g. 127.0.0.1:7070 (empty = use config)")
	noStdin := flag.Bool("no-stdin", false, "Ignore update messages on stdin")
	logStats := flag.Bool("log-stats", false, "Output perf stats via slog")
	maxFrames := flag.Int("max-frames", 0, "Stop after N frames (0 = unlimited)")
	debug := flag.Bool("debug", false, "Enable debug logging")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *listen != "" {
		cfg.Control.Listen = *listen
	}
	if *noStdin {
		cfg.Control.Stdin = false
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}
	if dir := output.Dir(); dir != "" {
		slog.Info("writing telemetry", "dir", dir)
	}

	win, err := window.Open(window.Options{
		Width:        cfg.Screen.Width,
		Height:       cfg.Screen.Height,
		Title:        cfg.Screen.Title,
		TargetFPS:    cfg.Screen.TargetFPS,
		HighDPI:      cfg.Screen.HighDPI,
		Undecorated:  cfg.Screen.Undecorated,
		Topmost:      cfg.Screen.Topmost,
		ClickThrough: cfg.Screen.ClickThrough,
	})
	if err != nil {
		idle(ctx, err)
		return
	}
	defer win.Close()

	if err := renderer.Init(); err != nil {
		idle(ctx, err)
		return
	}
	slog.Info("gl ready", "version", renderer.Version())

	fire := renderer.NewFireRenderer()
	fire.Init()
	defer fire.Unload()

	start := time.Now()
	perf := telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	var drv *driver.Driver
	drv = driver.New(fire, surface.NewManager(win, fire), settings.NewStore(cfg.Fire), driver.Options{
		Timer:         perf,
		InboxSize:     cfg.Control.InboxSize,
		RetryInterval: cfg.Derived.RetryInterval,
		OnSettingsChange: func(s settings.Settings, changed []string) {
			rec := telemetry.NewSettingsRecord(drv.FrameCount(), time.Since(start), s, changed)
			if err := output.WriteSettings(rec); err != nil {
				slog.Warn("failed to write settings record", "error", err)
			}
		},
	})
	win.OnResize(drv.NotifyResize)
	drv.SetBuilder(func() *pipeline.Pipeline {
		return pipeline.Build(renderer.GLDevice{}, shaders.FireVertex, shaders.FireFragment)
	})

	startControl(ctx, cfg, drv)

	frames := &frameLimiter{
		next:      win,
		drv:       drv,
		perf:      perf,
		output:    output,
		maxFrames: *maxFrames,
		logStats:  *logStats,
		interval:  cfg.Derived.StatsInterval,
		budget:    cfg.Derived.FrameBudget,
		lastStats: time.Now(),
	}

	slog.Info("starting overlay",
		"config", *configPath,
		"listen", cfg.Control.Listen,
		"max_frames", *maxFrames,
	)
	if err := drv.Run(ctx, frames); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("frame loop ended", "error", err)
	}
	slog.Info("overlay stopped", "frames", drv.FrameCount())
}

// idle keeps the process alive without drawing when no rendering context
// exists, so a supervising host sees a quiet transparent overlay rather than
// a crash loop.
func idle(ctx context.Context, err error) {
	slog.Error("rendering unavailable, running without output", "error", err)
	<-ctx.Done()
}

func startControl(ctx context.Context, cfg *config.Config, drv *driver.Driver) {
	if cfg.Control.Stdin {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			slog.Info("stdin is a terminal, not reading update messages")
		} else {
			go func() {
				if err := control.ReadLines(ctx, os.Stdin, drv); err != nil && !errors.Is(err, context.Canceled) {
					slog.Warn("stdin control stopped", "error", err)
				}
			}()
		}
	}

	if cfg.Control.Listen != "" {
		srv := control.NewHTTPServer(cfg.Control.Listen, drv, drv)
		srv.MaxBodyBytes = cfg.Control.MaxBodyBytes
		if err := srv.Start(ctx); err != nil {
			slog.Error("control endpoint unavailable", "error", err)
		}
	}
}

// frameLimiter wraps the window's frame pacing with the frame cap and
// periodic perf reporting.
type frameLimiter struct {
	next      driver.Frames
	drv       *driver.Driver
	perf      *telemetry.PerfCollector
	output    *telemetry.OutputManager
	maxFrames int
	logStats  bool
	interval  time.Duration
	budget    time.Duration
	lastStats time.Time
	count     int
}

func (f *frameLimiter) Next() bool {
	if f.maxFrames > 0 && f.count >= f.maxFrames {
		slog.Info("max frames reached", "frames", f.count)
		f.drv.Stop()
		return false
	}
	if !f.next.Next() {
		return false
	}
	f.count++

	if f.interval > 0 && time.Since(f.lastStats) >= f.interval {
		f.lastStats = time.Now()
		stats := f.perf.Stats()
		if f.logStats {
			stats.LogStats()
		}
		if stats.OverBudget(f.budget) {
			slog.Warn("frame budget exceeded",
				"p95_tick", stats.P95TickDuration,
				"budget", f.budget,
			)
		}
		if err := f.output.WritePerf(stats, f.drv.FrameCount()); err != nil {
			slog.Warn("failed to write perf", "error", err)
		}
	}
	return true
}
