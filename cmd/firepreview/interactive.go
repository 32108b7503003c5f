package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"net/http"
	"strings"
	"time"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ember/flame"
	"github.com/pthm-cable/ember/settings"
)

const (
	windowWidth  = 1040
	windowHeight = 640
	previewW     = 640
	previewH     = 480
	panelWidth   = windowWidth - previewW - 30
	checkerSize  = 8
)

type palette struct {
	Name      string
	Primary   string
	Secondary string
}

var palettes = []palette{
	{"ember", "#FF6B35", "#FF0000"},
	{"gas", "#35A7FF", "#0033FF"},
	{"toxic", "#00FF00", "#006600"},
	{"arcane", "#C77DFF", "#5A189A"},
	{"white hot", "#FFFFFF", "#FFB000"},
}

type slider struct {
	label    string
	value    *float64
	min, max float32
}

func runInteractive(initial settings.Settings, w, h int, overlay string) {
	rl.InitWindow(windowWidth, windowHeight, "Fire Preview")
	defer rl.CloseWindow()
	rl.SetTargetFPS(30)

	s := settings.NewStore(initial).Snapshot()
	defaults := s
	paletteIdx := 0

	frame := image.NewNRGBA(image.Rect(0, 0, w, h))
	pixels := make([]color.RGBA, w*h)
	img := rl.GenImageColor(w, h, rl.Black)
	texture := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	defer rl.UnloadTexture(texture)

	var t float64
	animating := true
	status := ""

	sliders := []slider{
		{"Intensity (brightness)", &s.Intensity, 0, 3},
		{"Speed (scroll rate)", &s.Speed, -2, 2},
		{"Scale (spatial frequency)", &s.Scale, 0.5, 20},
		{"Turbulence (warp weight)", &s.Turbulence, 0, 1.5},
		{"Height (alpha threshold gain)", &s.Height, 0, 4},
		{"Opacity", &s.Opacity, 0, 1},
	}

	for !rl.WindowShouldClose() {
		if animating {
			t += float64(rl.GetFrameTime())
		}

		start := time.Now()
		flame.Render(frame, t, s.Params())
		renderTime := time.Since(start)
		compositeOverChecker(pixels, frame)
		rl.UpdateTexture(texture, pixels)

		rl.BeginDrawing()
		rl.ClearBackground(rl.RayWhite)

		rl.DrawTexturePro(
			texture,
			rl.Rectangle{X: 0, Y: 0, Width: float32(w), Height: float32(h)},
			rl.Rectangle{X: 10, Y: 10, Width: previewW, Height: previewH},
			rl.Vector2{X: 0, Y: 0},
			0,
			rl.White,
		)
		rl.DrawRectangleLines(10, 10, previewW, previewH, rl.DarkGray)

		statsY := int32(previewH + 25)
		rl.DrawText(fmt.Sprintf("t: %.2fs  cpu frame: %v  (%dx%d)", t, renderTime.Round(time.Millisecond), w, h), 15, statsY, 16, rl.DarkGray)
		rl.DrawText(fmt.Sprintf("primary %s  secondary %s", s.PrimaryColor, s.SecondaryColor), 15, statsY+20, 16, rl.DarkGray)
		if status != "" {
			rl.DrawText(status, 15, statsY+40, 16, rl.Maroon)
		}

		panelX := float32(previewW + 20)
		panelY := float32(10)

		rl.DrawText("Fire Parameters", int32(panelX), int32(panelY), 20, rl.DarkGray)
		panelY += 35

		for _, sl := range sliders {
			rl.DrawText(sl.label, int32(panelX), int32(panelY), 14, rl.Gray)
			panelY += 18
			v := gui.SliderBar(
				rl.Rectangle{X: panelX, Y: panelY, Width: float32(panelWidth - 80), Height: 20},
				fmt.Sprintf("%g", sl.min), fmt.Sprintf("%g", sl.max),
				float32(*sl.value), sl.min, sl.max,
			)
			rl.DrawText(fmt.Sprintf("%.2f", *sl.value), int32(panelX+float32(panelWidth-70)), int32(panelY+2), 16, rl.DarkGray)
			if v != float32(*sl.value) {
				*sl.value = float64(v)
			}
			panelY += 35
		}

		rl.DrawLine(int32(panelX), int32(panelY), int32(panelX)+int32(panelWidth)-20, int32(panelY), rl.LightGray)
		panelY += 15

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 250, Height: 30}, "Colors: "+palettes[paletteIdx].Name) {
			paletteIdx = (paletteIdx + 1) % len(palettes)
			s.PrimaryColor = palettes[paletteIdx].Primary
			s.SecondaryColor = palettes[paletteIdx].Secondary
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, toggleText(animating, "Pause", "Animate")) {
			animating = !animating
		}
		if gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Reset Time") {
			t = 0
		}
		panelY += 40

		if gui.Button(rl.Rectangle{X: panelX, Y: panelY, Width: 120, Height: 30}, "Reset All") {
			s = defaults
			paletteIdx = 0
		}
		if overlay != "" && gui.Button(rl.Rectangle{X: panelX + 130, Y: panelY, Width: 120, Height: 30}, "Push") {
			if err := push(overlay, s); err != nil {
				status = "push failed: " + err.Error()
				slog.Warn("push failed", "error", err)
			} else {
				status = "pushed to " + overlay
			}
		}

		rl.EndDrawing()
	}
}

func toggleText(cond bool, ifTrue, ifFalse string) string {
	if cond {
		return ifTrue
	}
	return ifFalse
}

// compositeOverChecker blends the straight-alpha frame over a gray checker so
// transparency is visible.
func compositeOverChecker(dst []color.RGBA, src *image.NRGBA) {
	b := src.Bounds()
	w := b.Dx()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < w; x++ {
			c := src.NRGBAAt(b.Min.X+x, b.Min.Y+y)
			bg := uint32(90)
			if (x/checkerSize+y/checkerSize)%2 == 0 {
				bg = 60
			}
			a := uint32(c.A)
			blend := func(v uint8) uint8 {
				return uint8((uint32(v)*a + bg*(255-a)) / 255)
			}
			dst[y*w+x] = color.RGBA{R: blend(c.R), G: blend(c.G), B: blend(c.B), A: 255}
		}
	}
}

// push sends the full parameter set to a running overlay.
func push(base string, s settings.Settings) error {
	body, err := json.Marshal(struct {
		Type     string            `json:"type"`
		Settings settings.Settings `json:"settings"`
	}{settings.MessageTypeUpdate, s})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 2 * time.Second}
	url := strings.TrimRight(base, "/") + "/api/v1/settings"
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("%s: %s", url, resp.Status)
	}
	return nil
}
