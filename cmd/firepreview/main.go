// Fire preview tool - renders the fire field on the CPU, either as PNG frames,
// in an interactive window with sliders, or in the terminal.
//
// Usage:
//
//	go run ./cmd/firepreview                          # interactive
//	go run ./cmd/firepreview -out frames -frames 60   # PNG sequence
//	go run ./cmd/firepreview -overlay http://127.0.0.1:7070
//	go run ./cmd/firepreview -term
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/pthm-cable/ember/config"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml for the starting parameters (empty = use defaults)")
	outDir := flag.String("out", "", "Write PNG frames to this directory instead of opening a window")
	frames := flag.Int("frames", 1, "Number of PNG frames to write")
	fps := flag.Float64("fps", 30, "Frame rate of the PNG sequence")
	start := flag.Float64("t", 0, "Time of the first frame in seconds")
	width := flag.Int("width", 320, "Render width")
	height := flag.Int("height", 240, "Render height")
	overlay := flag.String("overlay", "", "Base URL of a running overlay's control endpoint; enables Push")
	term := flag.Bool("term", false, "Draw in the terminal with half-block cells (space pauses, q quits)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if *outDir != "" {
		job := exportJob{
			Dir:    *outDir,
			Frames: *frames,
			FPS:    *fps,
			Start:  *start,
			Width:  *width,
			Height: *height,
		}
		if err := job.Run(cfg.Fire); err != nil {
			slog.Error("export failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if *term {
		if err := runTerminal(cfg.Fire, *fps); err != nil {
			slog.Error("terminal preview failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runInteractive(cfg.Fire, *width, *height, *overlay)
}
