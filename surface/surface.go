// Package surface keeps a drawable's backing store and the render viewport
// in step with its logical size and device pixel ratio.
package surface

import (
	"log/slog"
	"math"
)

// Dimensions is the backing-store size in physical pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Drawable is the window or canvas being rendered into.
type Drawable interface {
	// LogicalSize reports the size in device-independent units.
	LogicalSize() (w, h int)
	// PixelRatio reports physical pixels per logical unit.
	PixelRatio() float64
	// ResizeBackingStore reallocates the pixel buffer and returns the size
	// actually allocated, which may differ from the one requested.
	ResizeBackingStore(w, h int) (int, int)
}

// Viewporter sets the active render viewport.
type Viewporter interface {
	Viewport(x, y, w, h int32)
}

// Manager tracks the last requested and applied Dimensions.
type Manager struct {
	drawable  Drawable
	viewport  Viewporter
	requested Dimensions
	dims      Dimensions
	synced    bool
}

// NewManager creates a manager. Sync must be called before the first draw.
func NewManager(d Drawable, v Viewporter) *Manager {
	return &Manager{drawable: d, viewport: v}
}

// Compute returns the pixel dimensions for a logical size and pixel ratio,
// never smaller than 1x1.
func Compute(w, h int, ratio float64) Dimensions {
	if ratio <= 0 || math.IsNaN(ratio) {
		ratio = 1
	}
	return Dimensions{
		Width:  max(1, int(math.Round(float64(w)*ratio))),
		Height: max(1, int(math.Round(float64(h)*ratio))),
	}
}

// Sync recomputes the pixel dimensions and, if they differ from the last
// requested ones, resizes the backing store and resets the viewport to cover
// what was allocated. It reports whether anything changed.
func (m *Manager) Sync() (Dimensions, bool) {
	w, h := m.drawable.LogicalSize()
	want := Compute(w, h, m.drawable.PixelRatio())

	if m.synced && want == m.requested {
		return m.dims, false
	}

	dims := want
	if gw, gh := m.drawable.ResizeBackingStore(want.Width, want.Height); gw > 0 && gh > 0 {
		dims = Dimensions{Width: gw, Height: gh}
	}
	if dims != want {
		slog.Warn("backing store differs from requested size",
			"want_width", want.Width, "want_height", want.Height,
			"width", dims.Width, "height", dims.Height,
		)
	}
	m.viewport.Viewport(0, 0, int32(dims.Width), int32(dims.Height))
	m.requested = want
	m.dims = dims
	m.synced = true

	slog.Debug("surface resized", "width", dims.Width, "height", dims.Height)
	return dims, true
}

// Dimensions returns the last applied size. It is zero before the first Sync.
func (m *Manager) Dimensions() Dimensions {
	return m.dims
}
