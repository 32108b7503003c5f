// Package noise provides the hashed value noise and fractal brownian motion
// the fire field is built from. Every function is pure: the same coordinate
// always produces the same value.
package noise

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// FBM structure. These shape the look of the effect and are not tunables.
const (
	Octaves    = 5
	Amplitude  = 0.4 // first octave amplitude
	Gain       = 0.4 // amplitude multiplier per octave
	Lacunarity = 2.0 // frequency multiplier per octave
)

const hashScale = 43758.5453123

var hashKey = r2.Vec{X: 12.9898, Y: 78.233}

// Hash returns a pseudo-random value in [0, 1) for a 2D coordinate.
func Hash(p r2.Vec) float64 {
	h := Fract(math.Sin(r2.Dot(p, hashKey)) * hashScale)
	if h >= 1 {
		// x - floor(x) rounds up to 1 for tiny negative x
		return 0
	}
	return h
}

// Noise returns smooth value noise at p, approximately in [0, 1].
func Noise(p r2.Vec) float64 {
	i := r2.Vec{X: math.Floor(p.X), Y: math.Floor(p.Y)}
	return interpolate(i, r2.Sub(p, i))
}

// interpolate blends the hashed corners of cell i at fractional offset f.
// The y term is a correction on top of the x mix rather than a second lerp.
func interpolate(i, f r2.Vec) float64 {
	a := Hash(i)
	b := Hash(r2.Add(i, r2.Vec{X: 1}))
	c := Hash(r2.Add(i, r2.Vec{Y: 1}))
	d := Hash(r2.Add(i, r2.Vec{X: 1, Y: 1}))

	ux := f.X * f.X * (3 - 2*f.X)
	uy := f.Y * f.Y * (3 - 2*f.Y)

	return Mix(a, b, ux) + (c-a)*uy*(1-ux) + (d-b)*ux*uy
}

// FBM sums Octaves layers of Noise, doubling frequency and scaling amplitude
// by Gain on each layer.
func FBM(p r2.Vec) float64 {
	var value float64
	amplitude := Amplitude
	for o := 0; o < Octaves; o++ {
		value += amplitude * Noise(p)
		p = r2.Scale(Lacunarity, p)
		amplitude *= Gain
	}
	return value
}

// MaxFBM is the upper bound of FBM given the octave structure.
func MaxFBM() float64 {
	var sum float64
	amplitude := Amplitude
	for o := 0; o < Octaves; o++ {
		sum += amplitude
		amplitude *= Gain
	}
	return sum
}
