// Shader debug tool - compiles the fire program on the GPU, renders one frame
// offscreen and writes it to a PNG file for inspection.
//
// Usage: go run ./cmd/shaderdebug -t 1.5 -out debug.png
//
//	go run ./cmd/shaderdebug -frag my.frag.glsl -check
package main

import (
	"flag"
	"fmt"
	"os"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ember/config"
	"github.com/pthm-cable/ember/driver"
	"github.com/pthm-cable/ember/pipeline"
	"github.com/pthm-cable/ember/renderer"
	"github.com/pthm-cable/ember/settings"
	"github.com/pthm-cable/ember/shaders"
	"github.com/pthm-cable/ember/surface"
	"github.com/pthm-cable/ember/window"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml for the fire parameters (empty = use defaults)")
	fragPath := flag.String("frag", "", "Fragment stage source to use instead of the embedded one")
	outPath := flag.String("out", "debug.png", "Output PNG path")
	width := flag.Int("width", 512, "Render width")
	height := flag.Int("height", 512, "Render height")
	t := flag.Float64("t", 0, "Time uniform in seconds")
	check := flag.Bool("check", false, "Only build the program and report its state")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fail("loading config: %v", err)
	}

	fragment := shaders.FireFragment
	if *fragPath != "" {
		data, err := os.ReadFile(*fragPath)
		if err != nil {
			fail("reading fragment source: %v", err)
		}
		fragment = string(data)
	}

	// Initialize raylib with hidden window
	win, err := window.Open(window.Options{Width: *width, Height: *height, Title: "Shader Debug", Hidden: true})
	if err != nil {
		fail("%v", err)
	}
	defer win.Close()

	if err := renderer.Init(); err != nil {
		fail("%v", err)
	}

	prog := pipeline.Build(renderer.GLDevice{}, shaders.FireVertex, fragment)
	defer prog.Release()
	if prog.State() != pipeline.Linked {
		fail("program %s: %v", prog.State(), prog.Err())
	}
	fmt.Printf("Program linked on %s: %d/%d slots resolved\n", renderer.Version(), prog.Slots().Count(), pipeline.NumSlots)
	if *check {
		return
	}

	fire := renderer.NewFireRenderer()
	fire.Init()
	defer fire.Unload()

	target := rl.LoadRenderTexture(int32(*width), int32(*height))
	defer rl.UnloadRenderTexture(target)

	dims := surface.Dimensions{Width: *width, Height: *height}
	u := driver.Uniforms(*t, dims, settings.NewStore(cfg.Fire).Snapshot())

	// Render the program into the texture
	rl.BeginTextureMode(target)
	fire.Viewport(0, 0, int32(*width), int32(*height))
	fire.Clear()
	if prog.Upload(fire, u) {
		fire.Draw()
	}
	rl.EndTextureMode()

	// Get image from texture and flip it (OpenGL convention)
	img := rl.LoadImageFromTexture(target.Texture)
	rl.ImageFlipVertical(img)

	success := rl.ExportImage(*img, *outPath)
	rl.UnloadImage(img)

	if !success {
		fail("failed to export image")
	}
	fmt.Printf("Fire rendered to: %s (%dx%d, t=%.2f)\n", *outPath, *width, *height, *t)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
