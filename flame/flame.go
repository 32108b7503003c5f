// Package flame composites the fire field for a single pixel and rasterizes
// it on the CPU. The GLSL program in package shaders performs the same
// arithmetic on the GPU; this implementation is the reference the tests and
// the preview tool run against.
package flame

import (
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/ember/noise"
)

// Params is a fully resolved parameter set with colors already normalized.
type Params struct {
	Primary    r3.Vec
	Secondary  r3.Vec
	Intensity  float64
	Speed      float64
	Scale      float64
	Turbulence float64
	Height     float64
	Opacity    float64
}

// Shade evaluates the fire field at uv in [-1,1]² at time t (seconds).
// resolution is the surface size in pixels and only contributes its aspect
// ratio. The returned color is not clamped; alpha is straight, in [0,1].
func Shade(uv r2.Vec, t float64, resolution r2.Vec, p Params) (r3.Vec, float64) {
	st := uv
	if resolution.Y > 0 {
		st.X *= resolution.X / resolution.Y
	}

	fireCoords := r2.Scale(p.Scale, r2.Vec{X: st.X, Y: st.Y - t*p.Speed})

	gradient := noise.Mix(st.Y*0.3, st.Y*0.7, noise.FBM(fireCoords))

	noise1 := noise.FBM(fireCoords)

	// Domain warp with raw time so flicker continues when speed is zero.
	warp := noise1 + t
	noise2 := p.Turbulence*noise.FBM(r2.Add(fireCoords, r2.Vec{X: warp, Y: warp})) - 0.5

	fireIntensity := noise.FBM(r2.Vec{X: noise2, Y: noise1})

	color := r3.Scale(p.Intensity, mix3(p.Secondary, p.Primary, fireIntensity))

	if p.Height <= 0 {
		return color, 0
	}
	alpha := noise.Smoothstep(0, 1, (fireIntensity-gradient+0.3)*p.Height) * p.Opacity

	return color, alpha
}

func mix3(a, b r3.Vec, t float64) r3.Vec {
	return r3.Add(r3.Scale(1-t, a), r3.Scale(t, b))
}
