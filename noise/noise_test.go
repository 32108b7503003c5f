package noise

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestHashDeterministic(t *testing.T) {
	points := []r2.Vec{
		{X: 0, Y: 0},
		{X: 1, Y: 0},
		{X: -3, Y: 17},
		{X: 12.5, Y: -0.25},
		{X: 1e4, Y: 1e4},
	}

	for _, p := range points {
		first := Hash(p)
		for i := 0; i < 100; i++ {
			if got := Hash(p); math.Float64bits(got) != math.Float64bits(first) {
				t.Fatalf("Hash(%v) changed between calls: %v vs %v", p, first, got)
			}
		}
	}
}

func TestHashRange(t *testing.T) {
	for x := -50; x <= 50; x++ {
		for y := -50; y <= 50; y++ {
			h := Hash(r2.Vec{X: float64(x), Y: float64(y)})
			if h < 0 || h >= 1 {
				t.Fatalf("Hash(%d,%d) = %v, want [0,1)", x, y, h)
			}
		}
	}
}

func TestHashKnownValue(t *testing.T) {
	// sin(0) = 0 so the origin hashes to exactly zero.
	if got := Hash(r2.Vec{}); got != 0 {
		t.Errorf("Hash(0,0) = %v, want 0", got)
	}

	want := Fract(math.Sin(12.9898) * 43758.5453123)
	if got := Hash(r2.Vec{X: 1}); got != want {
		t.Errorf("Hash(1,0) = %v, want %v", got, want)
	}
}

func TestNoiseMatchesHashAtLatticePoints(t *testing.T) {
	for x := -5; x <= 5; x++ {
		for y := -5; y <= 5; y++ {
			p := r2.Vec{X: float64(x), Y: float64(y)}
			if got, want := Noise(p), Hash(p); math.Abs(got-want) > 1e-12 {
				t.Errorf("Noise(%v) = %v, want corner hash %v", p, got, want)
			}
		}
	}
}

func TestNoiseContinuousAcrossCells(t *testing.T) {
	const tol = 1e-9

	for cx := -3; cx <= 3; cx++ {
		for cy := -3; cy <= 3; cy++ {
			cell := r2.Vec{X: float64(cx), Y: float64(cy)}
			right := r2.Add(cell, r2.Vec{X: 1})
			up := r2.Add(cell, r2.Vec{Y: 1})

			for _, s := range []float64{0, 0.1, 0.37, 0.5, 0.81, 1} {
				// Shared vertical edge between cell and its right neighbour.
				fromLeft := interpolate(cell, r2.Vec{X: 1, Y: s})
				fromRight := interpolate(right, r2.Vec{X: 0, Y: s})
				if math.Abs(fromLeft-fromRight) > tol {
					t.Errorf("x edge of cell %v at y=%v: %v vs %v", cell, s, fromLeft, fromRight)
				}

				// Shared horizontal edge between cell and the one above.
				fromBelow := interpolate(cell, r2.Vec{X: s, Y: 1})
				fromAbove := interpolate(up, r2.Vec{X: s, Y: 0})
				if math.Abs(fromBelow-fromAbove) > tol {
					t.Errorf("y edge of cell %v at x=%v: %v vs %v", cell, s, fromBelow, fromAbove)
				}
			}
		}
	}
}

func TestNoiseApproachesEdgeSmoothly(t *testing.T) {
	edge := r2.Vec{X: 4, Y: 2.3}
	before := Noise(r2.Vec{X: edge.X - 1e-7, Y: edge.Y})
	at := Noise(edge)
	if math.Abs(before-at) > 1e-6 {
		t.Errorf("noise jumps at cell boundary: %v -> %v", before, at)
	}
}

func TestFBMDeterministic(t *testing.T) {
	p := r2.Vec{X: 3.7, Y: -1.2}
	first := FBM(p)
	for i := 0; i < 10; i++ {
		if got := FBM(p); math.Float64bits(got) != math.Float64bits(first) {
			t.Fatalf("FBM changed between calls: %v vs %v", first, got)
		}
	}
}

func TestFBMMatchesOctaveSum(t *testing.T) {
	p := r2.Vec{X: 0.3, Y: 0.9}

	var want float64
	amp, freq := 0.4, 1.0
	for i := 0; i < 5; i++ {
		want += amp * Noise(r2.Scale(freq, p))
		freq *= 2
		amp *= 0.4
	}

	if got := FBM(p); math.Abs(got-want) > 1e-12 {
		t.Errorf("FBM(%v) = %v, want %v", p, got, want)
	}
}

func TestFBMRange(t *testing.T) {
	upper := MaxFBM()
	if math.Abs(upper-0.66464) > 1e-9 {
		t.Errorf("MaxFBM = %v, want 0.66464", upper)
	}

	for x := -20.0; x <= 20; x += 0.73 {
		for y := -20.0; y <= 20; y += 0.91 {
			v := FBM(r2.Vec{X: x, Y: y})
			if v < 0 || v > upper {
				t.Fatalf("FBM(%v,%v) = %v out of [0,%v]", x, y, v, upper)
			}
		}
	}
}

func TestSmoothstep(t *testing.T) {
	tests := []struct {
		x, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.5, 0.5},
		{1, 1},
		{2, 1},
	}
	for _, tc := range tests {
		if got := Smoothstep(0, 1, tc.x); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("Smoothstep(0,1,%v) = %v, want %v", tc.x, got, tc.want)
		}
	}
}
