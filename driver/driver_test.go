package driver

import (
	"context"
	"math"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pthm-cable/ember/pipeline"
	"github.com/pthm-cable/ember/settings"
	"github.com/pthm-cable/ember/surface"
)

type fakeClock struct{ t float64 }

func (c *fakeClock) Seconds() float64 { return c.t }

// fakeDevice links anything that does not contain "#error".
type fakeDevice struct {
	next     pipeline.Handle
	live     int
	compiles int
}

func (d *fakeDevice) CompileStage(kind pipeline.StageKind, src string) (pipeline.Handle, error) {
	d.compiles++
	if strings.Contains(src, "#error") {
		return 0, &pipeline.StageError{Stage: kind, Log: "#error directive"}
	}
	d.next++
	d.live++
	return d.next, nil
}

func (d *fakeDevice) DeleteStage(pipeline.Handle) { d.live-- }

func (d *fakeDevice) Link(_, _ pipeline.Handle) (pipeline.Handle, error) {
	d.next++
	d.live++
	return d.next, nil
}

func (d *fakeDevice) DeleteProgram(pipeline.Handle) { d.live-- }

func (d *fakeDevice) UniformLocation(_ pipeline.Handle, name string) int32 {
	return int32(slices.Index(pipeline.Names(), name))
}

type fakeDrawer struct {
	clears  int
	draws   int
	program pipeline.Handle
	values  map[int32][]float32
}

func newFakeDrawer() *fakeDrawer {
	return &fakeDrawer{values: make(map[int32][]float32)}
}

func (f *fakeDrawer) Clear()                       { f.clears++ }
func (f *fakeDrawer) Draw()                        { f.draws++ }
func (f *fakeDrawer) UseProgram(h pipeline.Handle) { f.program = h }
func (f *fakeDrawer) Uniform1f(loc int32, v float32) {
	f.values[loc] = []float32{v}
}
func (f *fakeDrawer) Uniform2f(loc int32, x, y float32) {
	f.values[loc] = []float32{x, y}
}
func (f *fakeDrawer) Uniform3f(loc int32, x, y, z float32) {
	f.values[loc] = []float32{x, y, z}
}

type fakeWindow struct {
	w, h    int
	ratio   float64
	resizes int
}

func (f *fakeWindow) LogicalSize() (int, int)   { return f.w, f.h }
func (f *fakeWindow) PixelRatio() float64       { return f.ratio }
func (f *fakeWindow) Viewport(_, _, _, _ int32) {}
func (f *fakeWindow) ResizeBackingStore(w, h int) (int, int) {
	f.resizes++
	return w, h
}

type harness struct {
	driver *Driver
	device *fakeDevice
	drawer *fakeDrawer
	window *fakeWindow
	clock  *fakeClock
}

func newHarness(t *testing.T, fragment string, retry time.Duration) *harness {
	t.Helper()
	h := &harness{
		device: &fakeDevice{},
		drawer: newFakeDrawer(),
		window: &fakeWindow{w: 800, h: 600, ratio: 2},
		clock:  &fakeClock{},
	}
	surf := surface.NewManager(h.window, h.window)
	h.driver = New(h.drawer, surf, settings.NewStore(settings.Defaults()), Options{
		Clock:         h.clock,
		RetryInterval: retry,
	})
	h.driver.SetBuilder(func() *pipeline.Pipeline {
		return pipeline.Build(h.device, "void main() {}", fragment)
	})
	return h
}

func slot(name string) int32 {
	return int32(slices.Index(pipeline.Names(), name))
}

func TestTickDrawsWithLinkedPipeline(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	h.clock.t = 2.5

	h.driver.Tick()

	if h.drawer.clears != 1 || h.drawer.draws != 1 {
		t.Fatalf("clears=%d draws=%d, want 1/1", h.drawer.clears, h.drawer.draws)
	}
	if got := h.drawer.values[slot(pipeline.UniformTime)]; !slices.Equal(got, []float32{2.5}) {
		t.Errorf("time = %v, want [2.5]", got)
	}
	if got := h.drawer.values[slot(pipeline.UniformResolution)]; !slices.Equal(got, []float32{1600, 1200}) {
		t.Errorf("resolution = %v, want [1600 1200]", got)
	}
	if got := h.drawer.values[slot(pipeline.UniformSpeed)]; !slices.Equal(got, []float32{0.2}) {
		t.Errorf("speed = %v, want [0.2]", got)
	}
	if h.driver.FrameCount() != 1 {
		t.Errorf("frame count = %d", h.driver.FrameCount())
	}
}

func TestTickSkipsWhenNotLinked(t *testing.T) {
	h := newHarness(t, "#error broken", 0)

	for n := 0; n < 3; n++ {
		h.driver.Tick()
	}

	if h.driver.Pipeline().State() != pipeline.Failed {
		t.Fatalf("state = %v, want failed", h.driver.Pipeline().State())
	}
	if h.drawer.draws != 0 || h.drawer.clears != 0 {
		t.Errorf("drew on failed pipeline: clears=%d draws=%d", h.drawer.clears, h.drawer.draws)
	}
	if len(h.drawer.values) != 0 {
		t.Error("uniforms pushed to failed pipeline")
	}
	// Surface is still kept in step.
	if h.window.resizes != 1 {
		t.Errorf("resizes = %d, want 1", h.window.resizes)
	}
}

func TestFailedPipelineRetriesAfterInterval(t *testing.T) {
	h := newHarness(t, "#error broken", time.Second)
	compiles := h.device.compiles

	h.clock.t = 0.5
	h.driver.Tick()
	if h.device.compiles != compiles {
		t.Fatal("retried before the interval elapsed")
	}

	h.clock.t = 1.5
	h.driver.Tick()
	if h.device.compiles == compiles {
		t.Error("no retry after the interval elapsed")
	}
}

func TestFailedPipelineNoRetryWhenDisabled(t *testing.T) {
	h := newHarness(t, "#error broken", 0)
	compiles := h.device.compiles

	h.clock.t = 1000
	h.driver.Tick()

	if h.device.compiles != compiles {
		t.Error("retried with retries disabled")
	}
}

func TestPatchAppliedBeforeNextTick(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)

	green := "#00FF00"
	h.driver.Submit(settings.Patch{PrimaryColor: &green})
	h.driver.Tick()

	if got := h.drawer.values[slot(pipeline.UniformPrimaryColor)]; !slices.Equal(got, []float32{0, 1, 0}) {
		t.Errorf("primaryColor = %v, want [0 1 0]", got)
	}
	if h.driver.Settings().PrimaryColor != green {
		t.Errorf("published primaryColor = %q", h.driver.Settings().PrimaryColor)
	}
	// Untouched fields keep their values.
	if got := h.drawer.values[slot(pipeline.UniformSecondaryColor)]; !slices.Equal(got, []float32{1, 0, 0}) {
		t.Errorf("secondaryColor = %v, want [1 0 0]", got)
	}
}

func TestSubmitCoalescesWhenFull(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	h.driver.inbox = make(chan settings.Patch, 2)

	for i := 1; i <= 5; i++ {
		v := float64(i)
		h.driver.Submit(settings.Patch{Speed: &v})
	}
	tall := 3.0
	h.driver.Submit(settings.Patch{Height: &tall})
	h.driver.Tick()

	got := h.driver.Settings()
	if got.Speed != 5 || got.Height != 3 {
		t.Errorf("speed=%v height=%v, want 5/3", got.Speed, got.Height)
	}
}

func TestSubmitConcurrent(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				v := float64(i)
				h.driver.Submit(settings.Patch{Turbulence: &v})
			}
		}()
	}
	wg.Wait()
	h.driver.Tick()

	if turb := h.driver.Settings().Turbulence; turb < 0 || turb > 7 || turb != math.Trunc(turb) {
		t.Errorf("turbulence = %v, want one of the submitted values", turb)
	}
}

func TestSubmitCoalescingKeepsOrderUnderConcurrentDrain(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	h.driver.inbox = make(chan settings.Patch, 2)

	var applied []float64
	h.driver.notify = func(s settings.Settings, _ []string) {
		applied = append(applied, s.Speed)
	}

	const n = 2000
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 1; i <= n; i++ {
			v := float64(i)
			h.driver.Submit(settings.Patch{Speed: &v})
			if i%3 == 0 {
				turb := float64(i)
				h.driver.Submit(settings.Patch{Turbulence: &turb})
			}
		}
	}()

	for running := true; running; {
		select {
		case <-done:
			running = false
		default:
		}
		h.driver.Tick()
	}
	h.driver.Tick()

	for i := 1; i < len(applied); i++ {
		if applied[i] < applied[i-1] {
			t.Fatalf("speed stepped backwards at update %d: %v -> %v", i, applied[i-1], applied[i])
		}
	}
	if got := h.driver.Settings().Speed; got != n {
		t.Errorf("final speed = %v, want %d", got, n)
	}
}

func TestResizeIsSyncedOnNextTick(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	h.driver.Tick()

	h.driver.NotifyResize()
	h.driver.Tick()
	if h.window.resizes != 1 {
		t.Errorf("unchanged resize reallocated: resizes = %d", h.window.resizes)
	}

	h.window.w = 1024
	h.driver.NotifyResize()
	h.driver.Tick()
	if h.window.resizes != 2 {
		t.Errorf("resizes = %d, want 2", h.window.resizes)
	}
	if got := h.drawer.values[slot(pipeline.UniformResolution)]; !slices.Equal(got, []float32{2048, 1200}) {
		t.Errorf("resolution = %v, want [2048 1200]", got)
	}
}

func TestStopReleasesAndStopsDrawing(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	h.driver.Tick()

	h.driver.Stop()
	h.driver.Stop()
	h.driver.Tick()
	h.driver.Tick()

	if h.drawer.draws != 1 {
		t.Errorf("draws = %d, want 1", h.drawer.draws)
	}
	if h.driver.Pipeline().State() != pipeline.Uninitialized {
		t.Errorf("state = %v, want uninitialized", h.driver.Pipeline().State())
	}
	if h.device.live != 0 {
		t.Errorf("leaked %d device objects", h.device.live)
	}

	h.driver.Rebuild()
	if h.driver.Pipeline().State() == pipeline.Linked {
		t.Error("rebuilt after stop")
	}
}

type countedFrames struct {
	n, limit int
	onFrame  func(int)
}

func (f *countedFrames) Next() bool {
	if f.n >= f.limit {
		return false
	}
	f.n++
	if f.onFrame != nil {
		f.onFrame(f.n)
	}
	return true
}

func TestRunUntilHostCloses(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)

	if err := h.driver.Run(context.Background(), &countedFrames{limit: 4}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.drawer.draws != 4 {
		t.Errorf("draws = %d, want 4", h.drawer.draws)
	}
	if h.device.live != 0 {
		t.Errorf("pipeline not released on exit: %d live objects", h.device.live)
	}
}

func TestRunStopsOnStop(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	frames := &countedFrames{limit: 100, onFrame: func(n int) {
		if n == 3 {
			h.driver.Stop()
		}
	}}

	h.driver.Run(context.Background(), frames)

	if h.drawer.draws != 2 {
		t.Errorf("draws = %d, want 2", h.drawer.draws)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	h := newHarness(t, "void main() {}", 0)
	ctx, cancel := context.WithCancel(context.Background())
	frames := &countedFrames{limit: 100, onFrame: func(n int) {
		if n == 2 {
			cancel()
		}
	}}

	err := h.driver.Run(ctx, frames)

	if err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if h.drawer.draws != 1 {
		t.Errorf("draws = %d, want 1", h.drawer.draws)
	}
	if !h.driver.Stopped() {
		t.Error("driver not marked stopped after Run returned")
	}
}

func TestUniformsConvertColors(t *testing.T) {
	s := settings.Defaults()
	s.SecondaryColor = "not a color"

	u := Uniforms(1, surface.Dimensions{Width: 10, Height: 20}, s)

	if u.SecondaryColor != [3]float32{1, 1, 1} {
		t.Errorf("malformed color = %v, want white", u.SecondaryColor)
	}
	if u.PrimaryColor[0] != 1 || math.Abs(float64(u.PrimaryColor[1])-107.0/255) > 1e-6 {
		t.Errorf("primary = %v", u.PrimaryColor)
	}
	if u.Resolution != [2]float32{10, 20} {
		t.Errorf("resolution = %v", u.Resolution)
	}
}
