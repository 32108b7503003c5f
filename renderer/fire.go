package renderer

import (
	"github.com/go-gl/gl/v3.3-core/gl"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/ember/pipeline"
)

// quadVertices is two triangles covering clip space; the vertex stage
// derives positions from gl_VertexID so no buffer is bound.
const quadVertices = 6

// FireRenderer draws the linked fire program over the whole viewport. It
// implements the uniform upload and viewport hooks the pipeline and surface
// packages expect.
type FireRenderer struct {
	vao         uint32
	initialized bool
}

// NewFireRenderer creates an uninitialized renderer.
func NewFireRenderer() *FireRenderer {
	return &FireRenderer{}
}

// Init allocates the empty vertex array (must be called after the GL
// context is current and Init has loaded function pointers).
func (f *FireRenderer) Init() {
	if f.initialized {
		return
	}
	gl.GenVertexArrays(1, &f.vao)
	f.initialized = true
}

// Clear fills the backing store with fully transparent black.
func (f *FireRenderer) Clear() {
	rl.DrawRenderBatchActive()
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

// Draw issues the six-vertex draw with the currently bound program. Color
// is blended with straight alpha; the destination alpha accumulates so the
// compositor sees the flame's own coverage.
func (f *FireRenderer) Draw() {
	if !f.initialized {
		f.Init()
	}

	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(f.vao)
	gl.DrawArrays(gl.TRIANGLES, 0, quadVertices)

	// Hand the context back in the state raylib's batch expects.
	gl.BindVertexArray(0)
	gl.UseProgram(0)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// Viewport sets the GL viewport.
func (f *FireRenderer) Viewport(x, y, w, h int32) {
	gl.Viewport(x, y, w, h)
}

func (f *FireRenderer) UseProgram(program pipeline.Handle) {
	gl.UseProgram(uint32(program))
}

func (f *FireRenderer) Uniform1f(loc int32, v float32) {
	gl.Uniform1f(loc, v)
}

func (f *FireRenderer) Uniform2f(loc int32, x, y float32) {
	gl.Uniform2f(loc, x, y)
}

func (f *FireRenderer) Uniform3f(loc int32, x, y, z float32) {
	gl.Uniform3f(loc, x, y, z)
}

// Unload frees the vertex array.
func (f *FireRenderer) Unload() {
	if f.initialized {
		gl.DeleteVertexArrays(1, &f.vao)
		f.initialized = false
	}
}
