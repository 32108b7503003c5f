// Package window hosts the overlay in a transparent raylib window and paces
// frames on the display refresh.
package window

import (
	"errors"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// ErrNoContext is returned when no window with a GL context could be
// created.
var ErrNoContext = errors.New("window: no rendering context available")

// Options configures the window.
type Options struct {
	Width        int
	Height       int
	Title        string
	TargetFPS    int // 0 = vsync only
	HighDPI      bool
	Undecorated  bool
	Topmost      bool
	ClickThrough bool
	Hidden       bool
}

// Window is an open raylib window. It must be used from the thread that
// opened it.
type Window struct {
	opts     Options
	began    bool
	onResize func()
	logger   *slog.Logger
}

// Flags returns the raylib config flags for opts. Transparency and vsync
// are always requested.
func Flags(opts Options) uint32 {
	flags := uint32(rl.FlagWindowTransparent | rl.FlagWindowResizable | rl.FlagVsyncHint)
	if opts.HighDPI {
		flags |= rl.FlagWindowHighdpi
	}
	if opts.Undecorated {
		flags |= rl.FlagWindowUndecorated
	}
	if opts.Topmost {
		flags |= rl.FlagWindowTopmost
	}
	if opts.ClickThrough {
		flags |= rl.FlagWindowMousePassthrough
	}
	if opts.Hidden {
		flags |= rl.FlagWindowHidden
	}
	return flags
}

// Open creates the window and makes its GL context current.
func Open(opts Options) (*Window, error) {
	rl.SetTraceLogLevel(rl.LogWarning)
	rl.SetConfigFlags(Flags(opts))
	rl.InitWindow(int32(opts.Width), int32(opts.Height), opts.Title)
	if !rl.IsWindowReady() {
		return nil, ErrNoContext
	}
	if opts.TargetFPS > 0 {
		rl.SetTargetFPS(int32(opts.TargetFPS))
	}

	w := &Window{opts: opts, logger: slog.With("component", "window")}
	w.logger.Info("window opened",
		"width", rl.GetScreenWidth(),
		"height", rl.GetScreenHeight(),
		"render_width", rl.GetRenderWidth(),
		"render_height", rl.GetRenderHeight(),
		"pixel_ratio", w.PixelRatio(),
	)
	return w, nil
}

// OnResize registers fn to run when the host reports a resize.
func (w *Window) OnResize(fn func()) {
	w.onResize = fn
}

// LogicalSize reports the window size in screen coordinates.
func (w *Window) LogicalSize() (int, int) {
	return rl.GetScreenWidth(), rl.GetScreenHeight()
}

// PixelRatio reports framebuffer pixels per screen coordinate.
func (w *Window) PixelRatio() float64 {
	if !w.opts.HighDPI {
		return 1
	}
	scale := rl.GetWindowScaleDPI()
	if scale.X <= 0 {
		return 1
	}
	return float64(scale.X)
}

// ResizeBackingStore returns the framebuffer size the platform layer
// allocated. raylib reallocates the default framebuffer itself on resize, so
// the requested size is only a fallback before the first frame.
func (w *Window) ResizeBackingStore(width, height int) (int, int) {
	rw, rh := rl.GetRenderWidth(), rl.GetRenderHeight()
	if rw <= 0 || rh <= 0 {
		return width, height
	}
	return rw, rh
}

// Next ends the current frame, presents it and begins the next one. It
// blocks on vsync and reports false once the window is asked to close.
func (w *Window) Next() bool {
	if w.began {
		rl.EndDrawing()
		w.began = false
	}
	if rl.WindowShouldClose() {
		return false
	}
	if rl.IsWindowResized() && w.onResize != nil {
		w.onResize()
	}

	rl.BeginDrawing()
	rl.ClearBackground(rl.Blank)
	w.began = true
	return true
}

// Close ends any open frame and destroys the window.
func (w *Window) Close() {
	if w.began {
		rl.EndDrawing()
		w.began = false
	}
	rl.CloseWindow()
}
