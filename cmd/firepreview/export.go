package main

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pthm-cable/ember/flame"
	"github.com/pthm-cable/ember/settings"
)

// exportJob writes a PNG sequence of the fire field.
type exportJob struct {
	Dir    string
	Frames int
	FPS    float64
	Start  float64
	Width  int
	Height int
}

func (j exportJob) Run(s settings.Settings) error {
	if j.Width < 1 || j.Height < 1 {
		return fmt.Errorf("invalid size %dx%d", j.Width, j.Height)
	}
	if j.FPS <= 0 {
		return fmt.Errorf("invalid fps %v", j.FPS)
	}
	if err := os.MkdirAll(j.Dir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	params := settings.NewStore(s).Snapshot().Params()
	img := image.NewNRGBA(image.Rect(0, 0, j.Width, j.Height))

	for i := 0; i < max(1, j.Frames); i++ {
		t := j.Start + float64(i)/j.FPS
		flame.Render(img, t, params)

		path := filepath.Join(j.Dir, fmt.Sprintf("fire_%04d.png", i))
		if err := writePNG(path, img); err != nil {
			return err
		}
	}

	slog.Info("frames written", "dir", j.Dir, "frames", max(1, j.Frames), "width", j.Width, "height", j.Height)
	return nil
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return f.Close()
}
