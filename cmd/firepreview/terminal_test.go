package main

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func TestOverBlack(t *testing.T) {
	tests := []struct {
		name    string
		in      color.NRGBA
		r, g, b int32
	}{
		{"opaque", color.NRGBA{R: 255, G: 107, B: 53, A: 255}, 255, 107, 53},
		{"transparent", color.NRGBA{R: 255, G: 255, B: 255, A: 0}, 0, 0, 0},
		{"half", color.NRGBA{R: 200, G: 100, B: 0, A: 128}, 100, 50, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b := overBlack(tt.in).RGB()
			if r != tt.r || g != tt.g || b != tt.b {
				t.Errorf("overBlack(%v) = (%d, %d, %d), want (%d, %d, %d)", tt.in, r, g, b, tt.r, tt.g, tt.b)
			}
		})
	}
}

func TestDrawHalfBlocks(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	if err := screen.Init(); err != nil {
		t.Fatalf("init: %v", err)
	}
	defer screen.Fini()
	screen.SetSize(2, 1)

	frame := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	frame.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	frame.SetNRGBA(0, 1, color.NRGBA{B: 255, A: 255})

	drawHalfBlocks(screen, frame)

	mainc, _, style, _ := screen.GetContent(0, 0)
	if mainc != '▀' {
		t.Errorf("cell rune = %q, want upper half block", mainc)
	}
	fg, bg, _ := style.Decompose()
	if r, _, _ := fg.RGB(); r != 255 {
		t.Errorf("foreground red = %d, want 255 (top pixel)", r)
	}
	if _, _, b := bg.RGB(); b != 255 {
		t.Errorf("background blue = %d, want 255 (bottom pixel)", b)
	}

	_, _, style, _ = screen.GetContent(1, 0)
	fg, bg, _ = style.Decompose()
	if r, g, b := fg.RGB(); r != 0 || g != 0 || b != 0 {
		t.Errorf("transparent pixel foreground = (%d, %d, %d), want black", r, g, b)
	}
	if r, g, b := bg.RGB(); r != 0 || g != 0 || b != 0 {
		t.Errorf("transparent pixel background = (%d, %d, %d), want black", r, g, b)
	}
}

func TestForwardEventsStopsWhenDone(t *testing.T) {
	poll := func() tcell.Event {
		return tcell.NewEventInterrupt(nil)
	}
	events := make(chan tcell.Event)
	done := make(chan struct{})
	exited := make(chan struct{})

	go func() {
		forwardEvents(poll, events, done)
		close(exited)
	}()

	<-events
	close(done)

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("forwarder still blocked after done was closed")
	}
}

func TestForwardEventsStopsOnNilEvent(t *testing.T) {
	exited := make(chan struct{})
	go func() {
		forwardEvents(func() tcell.Event { return nil }, make(chan tcell.Event), make(chan struct{}))
		close(exited)
	}()

	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("forwarder did not stop when polling ended")
	}
}
