// Package driver runs the per-frame update-and-draw cycle of the fire overlay.
//
// The driver and everything it touches (store, surface, pipeline, GL state)
// belong to the render goroutine. Other goroutines talk to it only through
// Submit, NotifyResize, Stop and Settings.
package driver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm-cable/ember/pipeline"
	"github.com/pthm-cable/ember/settings"
	"github.com/pthm-cable/ember/surface"
)

// Phase names reported to the Timer.
const (
	PhaseInbox   = "inbox"
	PhaseResize  = "resize"
	PhaseUpload  = "upload"
	PhaseDraw    = "draw"
	PhaseRebuild = "rebuild"
)

// DefaultInboxSize bounds the number of queued patches before Submit starts
// coalescing them.
const DefaultInboxSize = 64

// Drawer clears the surface and issues the full-surface draw.
type Drawer interface {
	pipeline.Uploader
	// Clear fills the surface with fully transparent color.
	Clear()
	// Draw issues the six implicit vertices with the bound program.
	Draw()
}

// Frames paces the loop. Next blocks until the display is ready for the
// next frame and reports false once the host has closed.
type Frames interface {
	Next() bool
}

// Timer receives per-tick timing. telemetry.PerfCollector implements it.
type Timer interface {
	StartTick()
	StartPhase(name string)
	EndTick()
}

// Builder constructs a fresh pipeline on the render goroutine.
type Builder func() *pipeline.Pipeline

// Options tune a Driver. Zero values select defaults.
type Options struct {
	Clock     Clock
	Timer     Timer
	InboxSize int
	// RetryInterval is how long to wait after a failed build before trying
	// again. Zero disables retries.
	RetryInterval time.Duration
	// OnSettingsChange runs on the render goroutine after a drain that
	// changed at least one field.
	OnSettingsChange func(s settings.Settings, changed []string)
}

// Driver owns the frame loop.
type Driver struct {
	drawer  Drawer
	surface *surface.Manager
	store   *settings.Store
	clock   Clock
	timer   Timer
	logger  *slog.Logger
	notify  func(settings.Settings, []string)

	pipe        *pipeline.Pipeline
	build       Builder
	retry       time.Duration
	lastAttempt float64
	warned      bool
	released    bool

	inbox    chan settings.Patch
	submitMu sync.Mutex
	resize   atomic.Bool
	stopped  atomic.Bool

	published atomic.Pointer[settings.Settings]
	frames    atomic.Uint64
}

// New creates a driver. The surface is synced on the first tick.
func New(drawer Drawer, surf *surface.Manager, store *settings.Store, opts Options) *Driver {
	if opts.Clock == nil {
		opts.Clock = NewClock()
	}
	if opts.Timer == nil {
		opts.Timer = nopTimer{}
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}

	d := &Driver{
		drawer:  drawer,
		surface: surf,
		store:   store,
		clock:   opts.Clock,
		timer:   opts.Timer,
		retry:   opts.RetryInterval,
		notify:  opts.OnSettingsChange,
		logger:  slog.With("component", "driver"),
		inbox:   make(chan settings.Patch, opts.InboxSize),
	}
	d.resize.Store(true)
	d.publish()
	return d
}

// SetBuilder installs the pipeline constructor and builds the first
// pipeline. Must be called on the render goroutine.
func (d *Driver) SetBuilder(build Builder) {
	d.build = build
	d.Rebuild()
}

// Rebuild releases the current pipeline and constructs a new one with the
// installed Builder. Must be called on the render goroutine.
func (d *Driver) Rebuild() {
	if d.build == nil || d.stopped.Load() {
		return
	}
	d.pipe.Release()
	d.pipe = d.build()
	d.lastAttempt = d.clock.Seconds()
	d.warned = false
}

// Pipeline returns the current pipeline, which may be nil.
func (d *Driver) Pipeline() *pipeline.Pipeline {
	return d.pipe
}

// Submit queues a patch for the next tick. It never blocks: when the inbox
// is full every queued patch is folded into one, preserving arrival order.
// Safe for concurrent use.
func (d *Driver) Submit(p settings.Patch) {
	if p.Empty() {
		return
	}

	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	select {
	case d.inbox <- p:
		return
	default:
	}

	var merged settings.Patch
	for drained := false; !drained; {
		select {
		case old := <-d.inbox:
			merged = merged.Merge(old)
		default:
			drained = true
		}
	}
	d.inbox <- merged.Merge(p)
	d.logger.Debug("inbox full, coalesced pending patches")
}

// NotifyResize marks the surface for recomputation at the next tick. Safe
// for concurrent use.
func (d *Driver) NotifyResize() {
	d.resize.Store(true)
}

// Stop cancels the loop. The pipeline is released by the render goroutine
// at its next tick or when Run returns; no further frames are drawn. Safe
// for concurrent use and to call more than once.
func (d *Driver) Stop() {
	if d.stopped.CompareAndSwap(false, true) {
		d.logger.Info("stop requested")
	}
}

// Stopped reports whether Stop has been called.
func (d *Driver) Stopped() bool {
	return d.stopped.Load()
}

// Settings returns the settings as of the last completed inbox drain. Safe
// for concurrent use.
func (d *Driver) Settings() settings.Settings {
	return *d.published.Load()
}

// FrameCount returns the number of frames drawn.
func (d *Driver) FrameCount() uint64 {
	return d.frames.Load()
}

// Tick runs one frame. It applies every patch submitted before it started,
// keeps the surface in step with the drawable, and draws if the pipeline is
// linked.
func (d *Driver) Tick() {
	if d.stopped.Load() {
		d.teardown()
		return
	}

	d.timer.StartPhase(PhaseInbox)
	d.drainInbox()

	if d.resize.Swap(false) {
		d.timer.StartPhase(PhaseResize)
		d.surface.Sync()
	}

	now := d.clock.Seconds()

	if d.pipe.State() != pipeline.Linked {
		d.maybeRetry(now)
		if d.pipe.State() != pipeline.Linked {
			d.warnUnlinked()
			return
		}
	}

	d.timer.StartPhase(PhaseUpload)
	u := Uniforms(now, d.surface.Dimensions(), d.store.Snapshot())
	d.drawer.Clear()
	if !d.pipe.Upload(d.drawer, u) {
		return
	}

	d.timer.StartPhase(PhaseDraw)
	d.drawer.Draw()
	d.frames.Add(1)
}

// Run ticks once per frame until ctx is done, Stop is called or the host
// closes. The pipeline is released before Run returns.
func (d *Driver) Run(ctx context.Context, frames Frames) error {
	defer d.teardown()

	for frames.Next() {
		if ctx.Err() != nil || d.stopped.Load() {
			break
		}
		d.timer.StartTick()
		d.Tick()
		d.timer.EndTick()
	}
	return ctx.Err()
}

// drainInbox applies every queued patch. Receiving happens under submitMu so
// a coalescing Submit never loses its place to a concurrent drain.
func (d *Driver) drainInbox() {
	var changed []string
	for _, p := range d.takePending() {
		changed = append(changed, d.store.Apply(p)...)
	}
	if len(changed) == 0 {
		return
	}
	d.publish()
	d.logger.Info("settings updated", "fields", changed)
	if d.notify != nil {
		d.notify(d.store.Snapshot(), changed)
	}
}

func (d *Driver) takePending() []settings.Patch {
	d.submitMu.Lock()
	defer d.submitMu.Unlock()

	var pending []settings.Patch
	for {
		select {
		case p := <-d.inbox:
			pending = append(pending, p)
		default:
			return pending
		}
	}
}

func (d *Driver) publish() {
	s := d.store.Snapshot()
	d.published.Store(&s)
}

func (d *Driver) maybeRetry(now float64) {
	if d.pipe.State() != pipeline.Failed || d.retry <= 0 || d.build == nil {
		return
	}
	if now-d.lastAttempt < d.retry.Seconds() {
		return
	}
	d.timer.StartPhase(PhaseRebuild)
	d.logger.Info("retrying pipeline build", "after", d.retry)
	d.Rebuild()
}

func (d *Driver) warnUnlinked() {
	if d.warned {
		return
	}
	d.warned = true
	d.logger.Warn("pipeline not linked, skipping draw", "state", d.pipe.State().String(), "error", d.pipe.Err())
}

func (d *Driver) teardown() {
	if d.released {
		return
	}
	d.released = true
	d.stopped.Store(true)
	d.pipe.Release()
	d.logger.Info("driver torn down", "frames", d.frames.Load())
}

type nopTimer struct{}

func (nopTimer) StartTick()        {}
func (nopTimer) StartPhase(string) {}
func (nopTimer) EndTick()          {}
