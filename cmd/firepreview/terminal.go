package main

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/pthm-cable/ember/flame"
	"github.com/pthm-cable/ember/settings"
)

// runTerminal draws the fire field into the terminal using half-block cells,
// two pixel rows per cell, composited over black.
func runTerminal(s settings.Settings, fps float64) error {
	if fps <= 0 {
		return fmt.Errorf("invalid fps %v", fps)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	screen.SetStyle(tcell.StyleDefault.Background(tcell.ColorBlack))
	screen.HideCursor()
	screen.Clear()

	events := make(chan tcell.Event)
	done := make(chan struct{})
	defer close(done)
	go forwardEvents(screen.PollEvent, events, done)

	params := settings.NewStore(s).Snapshot().Params()
	ticker := time.NewTicker(time.Duration(float64(time.Second) / fps))
	defer ticker.Stop()

	var frame *image.NRGBA
	var t float64
	paused := false
	last := time.Now()

	for {
		select {
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return nil
				}
				if ev.Rune() == ' ' {
					paused = !paused
				}
			}
		case now := <-ticker.C:
			if !paused {
				t += now.Sub(last).Seconds()
			}
			last = now

			cols, rows := screen.Size()
			if cols < 1 || rows < 1 {
				continue
			}
			if frame == nil || frame.Rect.Dx() != cols || frame.Rect.Dy() != rows*2 {
				frame = image.NewNRGBA(image.Rect(0, 0, cols, rows*2))
			}
			flame.Render(frame, t, params)
			drawHalfBlocks(screen, frame)
			screen.Show()
		}
	}
}

// forwardEvents feeds polled events to events until poll reports the screen
// is finished or done is closed.
func forwardEvents(poll func() tcell.Event, events chan<- tcell.Event, done <-chan struct{}) {
	for {
		ev := poll()
		if ev == nil {
			return
		}
		select {
		case events <- ev:
		case <-done:
			return
		}
	}
}

// drawHalfBlocks maps pixel rows 2y and 2y+1 onto the foreground and
// background of cell row y.
func drawHalfBlocks(screen tcell.Screen, frame *image.NRGBA) {
	b := frame.Bounds()
	for y := 0; y+1 < b.Dy(); y += 2 {
		for x := 0; x < b.Dx(); x++ {
			top := overBlack(frame.NRGBAAt(b.Min.X+x, b.Min.Y+y))
			bottom := overBlack(frame.NRGBAAt(b.Min.X+x, b.Min.Y+y+1))
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			screen.SetContent(x, y/2, '▀', nil, style)
		}
	}
}

// overBlack premultiplies a straight-alpha pixel, which is the same as
// compositing it over an opaque black terminal.
func overBlack(c color.NRGBA) tcell.Color {
	a := int32(c.A)
	return tcell.NewRGBColor(
		int32(c.R)*a/255,
		int32(c.G)*a/255,
		int32(c.B)*a/255,
	)
}
